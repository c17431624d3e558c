// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/sops"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/zeebo/blake3"
)

func checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SaveSnapshot stores an encoded state snapshot under the next sequence
// number. The record stays pending until the blob is written, and older
// snapshots beyond the retention count are pruned afterwards.
func (d *Database) SaveSnapshot(
	ctx context.Context,
	data []byte,
) (*models.SnapshotRecord, error) {
	d.snapshotMu.Lock()
	defer d.snapshotMu.Unlock()
	start := time.Now()
	seq, err := d.metadata.NextSnapshotSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate snapshot seq: %w", err)
	}
	rec := &models.SnapshotRecord{
		Seq:        seq,
		BlobKey:    types.SnapshotBlobKey(seq),
		Status:     models.SnapshotStatusPending,
		Compressed: d.config.CompressSnapshots,
		Encrypted:  d.config.EncryptSnapshots,
	}
	if err := d.metadata.CreateSnapshotRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("create snapshot record: %w", err)
	}
	if err := d.writeSnapshotBlob(ctx, rec, data); err != nil {
		d.metrics.snapshotFailures.Inc()
		rec.Status = models.SnapshotStatusFailed
		rec.Error = err.Error()
		if updateErr := d.metadata.UpdateSnapshotRecord(ctx, rec); updateErr != nil {
			err = errors.Join(err, updateErr)
		}
		d.logger.Error(
			fmt.Sprintf("failed to save snapshot %d: %s", seq, err),
			"component", "database",
		)
		return nil, err
	}
	now := time.Now()
	rec.Status = models.SnapshotStatusComplete
	rec.CompletedAt = &now
	if err := d.metadata.UpdateSnapshotRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("complete snapshot record: %w", err)
	}
	d.metrics.snapshotsSaved.Inc()
	d.metrics.snapshotBytes.Set(float64(rec.Size))
	d.metrics.snapshotSeconds.Observe(time.Since(start).Seconds())
	d.logger.Debug(
		fmt.Sprintf("saved snapshot %d (%d bytes)", seq, rec.Size),
		"component", "database",
	)
	if err := d.pruneSnapshots(ctx); err != nil {
		// The new snapshot is durable, so pruning failures are not fatal
		d.logger.Warn(
			fmt.Sprintf("failed to prune snapshots: %s", err),
			"component", "database",
		)
	}
	return rec, nil
}

func (d *Database) writeSnapshotBlob(
	ctx context.Context,
	rec *models.SnapshotRecord,
	data []byte,
) error {
	payload := data
	if rec.Compressed {
		payload = compress(payload)
	}
	if rec.Encrypted {
		encrypted, err := sops.Encrypt(payload)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
		payload = encrypted
	}
	rec.Size = uint64(len(payload))
	rec.Checksum = checksum(payload)
	if err := d.blob.Put(ctx, rec.BlobKey, payload); err != nil {
		return fmt.Errorf("write snapshot blob: %w", err)
	}
	return nil
}

// LoadLatestSnapshot returns the newest complete snapshot. It returns
// ErrNoSnapshot when none was ever saved.
func (d *Database) LoadLatestSnapshot(
	ctx context.Context,
) ([]byte, *models.SnapshotRecord, error) {
	rec, err := d.metadata.LatestCompleteSnapshot(ctx)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, nil, ErrNoSnapshot
		}
		return nil, nil, err
	}
	data, err := d.readSnapshotBlob(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return data, rec, nil
}

// LoadSnapshot returns the complete snapshot with the given sequence number
func (d *Database) LoadSnapshot(
	ctx context.Context,
	seq uint64,
) ([]byte, *models.SnapshotRecord, error) {
	rec, err := d.metadata.GetSnapshotRecord(ctx, seq)
	if err != nil {
		if errors.Is(err, types.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: seq %d", ErrNoSnapshot, seq)
		}
		return nil, nil, err
	}
	if !rec.IsComplete() {
		return nil, nil, fmt.Errorf("%w: snapshot %d is %s", ErrNoSnapshot, seq, rec.Status)
	}
	data, err := d.readSnapshotBlob(ctx, rec)
	if err != nil {
		return nil, nil, err
	}
	return data, rec, nil
}

func (d *Database) readSnapshotBlob(
	ctx context.Context,
	rec *models.SnapshotRecord,
) ([]byte, error) {
	payload, err := d.blob.Get(ctx, rec.BlobKey)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %d: %w", rec.Seq, err)
	}
	if rec.Checksum != "" && checksum(payload) != rec.Checksum {
		return nil, fmt.Errorf("%w: snapshot %d", ErrSnapshotCorrupt, rec.Seq)
	}
	if rec.Encrypted {
		payload, err = sops.Decrypt(payload)
		if err != nil {
			return nil, fmt.Errorf("decrypt snapshot %d: %w", rec.Seq, err)
		}
	}
	if rec.Compressed {
		payload, err = decompress(payload)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot %d: %w", rec.Seq, err)
		}
	}
	return payload, nil
}

// ListSnapshots returns snapshot records newest first
func (d *Database) ListSnapshots(
	ctx context.Context,
	limit int,
) ([]models.SnapshotRecord, error) {
	return d.metadata.ListSnapshotRecords(ctx, limit)
}

// pruneSnapshots keeps the configured number of complete snapshots and drops
// every record, complete or not, older than the oldest one kept
func (d *Database) pruneSnapshots(ctx context.Context) error {
	recs, err := d.metadata.ListSnapshotRecords(ctx, 0)
	if err != nil {
		return err
	}
	var complete int
	var errs []error
	for _, rec := range recs {
		if complete < d.config.KeepSnapshots {
			if rec.IsComplete() {
				complete++
			}
			continue
		}
		if err := d.blob.Delete(ctx, rec.BlobKey); err != nil &&
			!errors.Is(err, types.ErrBlobKeyNotFound) {
			errs = append(errs, err)
			continue
		}
		if err := d.metadata.DeleteSnapshotRecord(ctx, rec.Seq); err != nil {
			errs = append(errs, err)
			continue
		}
		d.metrics.snapshotsPruned.Inc()
	}
	return errors.Join(errs...)
}
