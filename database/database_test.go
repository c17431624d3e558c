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

package database_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/plugin/blob/badger"
	"github.com/blinklabs-io/guild/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/guild/database/sops"
	"github.com/blinklabs-io/guild/database/types"
)

// flakyBlob fails writes while failPut is set
type flakyBlob struct {
	types.BlobStore
	failPut bool
}

func (f *flakyBlob) Put(ctx context.Context, key string, data []byte) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.BlobStore.Put(ctx, key, data)
}

func newInMemory(
	t *testing.T,
	keep int,
	opts ...func(*database.Config),
) (*database.Database, *flakyBlob, *prometheus.Registry) {
	t.Helper()
	blobStore, err := badger.New()
	require.NoError(t, err)
	require.NoError(t, blobStore.Start())
	metaStore, err := sqlite.New("", nil, nil)
	require.NoError(t, err)
	flaky := &flakyBlob{BlobStore: blobStore}
	reg := prometheus.NewRegistry()
	cfg := database.Config{
		BlobStore:     flaky,
		MetadataStore: metaStore,
		KeepSnapshots: keep,
		PromRegistry:  reg,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, flaky, reg
}

func TestLoadWithoutSnapshot(t *testing.T) {
	db, _, _ := newInMemory(t, 0)
	_, _, err := db.LoadLatestSnapshot(context.Background())
	require.ErrorIs(t, err, database.ErrNoSnapshot)
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	ctx := context.Background()
	db, _, reg := newInMemory(t, 0)
	first, err := db.SaveSnapshot(ctx, []byte{0xa1, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, models.SnapshotStatusComplete, first.Status)
	assert.Len(t, first.Checksum, 64)
	assert.NotNil(t, first.CompletedAt)

	second, err := db.SaveSnapshot(ctx, []byte{0xa1, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.Seq)

	data, rec, err := db.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0x01, 0x02}, data)
	assert.Equal(t, second.Seq, rec.Seq)

	data, _, err = db.LoadSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa1, 0x01, 0x01}, data)

	_, _, err = db.LoadSnapshot(ctx, 9)
	require.ErrorIs(t, err, database.ErrNoSnapshot)

	expected := `
# HELP guild_database_snapshots_saved_total state snapshots written
# TYPE guild_database_snapshots_saved_total counter
guild_database_snapshots_saved_total 2
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"guild_database_snapshots_saved_total",
	))
}

func TestCompressedSnapshot(t *testing.T) {
	ctx := context.Background()
	db, flaky, _ := newInMemory(t, 0, func(cfg *database.Config) {
		cfg.CompressSnapshots = true
	})
	data := []byte(strings.Repeat("governance state ", 512))
	rec, err := db.SaveSnapshot(ctx, data)
	require.NoError(t, err)
	assert.True(t, rec.Compressed)
	assert.Less(t, rec.Size, uint64(len(data)))

	stored, err := flaky.Get(ctx, rec.BlobKey)
	require.NoError(t, err)
	assert.NotEqual(t, data, stored)

	loaded, _, err := db.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}

func TestFailedSaveKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	db, flaky, _ := newInMemory(t, 0)
	_, err := db.SaveSnapshot(ctx, []byte("good"))
	require.NoError(t, err)

	flaky.failPut = true
	_, err = db.SaveSnapshot(ctx, []byte("lost"))
	require.ErrorContains(t, err, "disk full")

	recs, err := db.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, models.SnapshotStatusFailed, recs[0].Status)
	assert.Contains(t, recs[0].Error, "disk full")

	data, rec, err := db.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), data)
	assert.Equal(t, uint64(1), rec.Seq)

	_, _, err = db.LoadSnapshot(ctx, 2)
	require.ErrorIs(t, err, database.ErrNoSnapshot)
}

func TestCorruptSnapshotIsDetected(t *testing.T) {
	ctx := context.Background()
	db, _, _ := newInMemory(t, 0)
	rec, err := db.SaveSnapshot(ctx, []byte("original"))
	require.NoError(t, err)
	require.NoError(t, db.Blob().Put(ctx, rec.BlobKey, []byte("tampered")))
	_, _, err = db.LoadLatestSnapshot(ctx)
	require.ErrorIs(t, err, database.ErrSnapshotCorrupt)
}

func TestPruneSnapshots(t *testing.T) {
	ctx := context.Background()
	db, flaky, _ := newInMemory(t, 2)
	for i := range 3 {
		_, err := db.SaveSnapshot(ctx, []byte{byte(i)})
		require.NoError(t, err)
	}
	flaky.failPut = true
	_, err := db.SaveSnapshot(ctx, []byte{9})
	require.Error(t, err)
	flaky.failPut = false
	_, err = db.SaveSnapshot(ctx, []byte{4})
	require.NoError(t, err)

	recs, err := db.ListSnapshots(ctx, 0)
	require.NoError(t, err)
	seqs := make([]uint64, 0, len(recs))
	for _, r := range recs {
		seqs = append(seqs, r.Seq)
	}
	// 5 and 3 are the two newest complete snapshots, failed 4 sits between
	assert.Equal(t, []uint64{5, 4, 3}, seqs)

	keys, err := db.Blob().List(ctx, types.SnapshotBlobKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{types.SnapshotBlobKey(3), types.SnapshotBlobKey(5)}, keys)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	db, _, _ := newInMemory(t, 0)
	require.NoError(t, db.RecordEvent(ctx, &models.HistoryEntry{EventType: "voting.created", VotingId: 3, Caller: "alice"}))
	require.NoError(t, db.RecordEvent(ctx, &models.HistoryEntry{EventType: "vote.cast", VotingId: 3, Caller: "bob"}))
	entries, err := db.History(ctx, models.HistoryFilter{VotingId: 3})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[1].Caller)
}

func TestEncryptionRequiresKeys(t *testing.T) {
	t.Setenv(sops.EnvGcpKmsResourceId, "")
	t.Setenv(sops.EnvAwsKmsKeyArns, "")
	_, err := database.New(database.Config{
		DataDir:          t.TempDir(),
		EncryptSnapshots: true,
	})
	require.ErrorIs(t, err, database.ErrEncryptionNotSet)
}

func TestDataDirLock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	db, err := database.New(database.Config{DataDir: dir})
	require.NoError(t, err)
	_, err = db.SaveSnapshot(ctx, []byte("persisted"))
	require.NoError(t, err)

	_, err = database.New(database.Config{DataDir: dir})
	require.ErrorIs(t, err, database.ErrDataDirLocked)

	require.NoError(t, db.Close())
	reopened, err := database.New(database.Config{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()
	data, _, err := reopened.LoadLatestSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("persisted"), data)
}
