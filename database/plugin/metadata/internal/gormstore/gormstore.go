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

// Package gormstore holds the metadata queries shared by every GORM-backed
// metadata plugin
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open enables tracing and applies schema migrations on db
func Open(db *gorm.DB, logger *slog.Logger) (*Store, error) {
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, err
	}
	for _, model := range models.MigrateModels {
		logger.Debug(
			fmt.Sprintf("creating table: %T", model),
			"component", "database",
		)
		if err := db.AutoMigrate(model); err != nil {
			return nil, err
		}
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) NextSnapshotSeq(ctx context.Context) (uint64, error) {
	var last models.SnapshotRecord
	result := s.db.WithContext(ctx).Order("seq DESC").Limit(1).Find(&last)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 1, nil
	}
	return last.Seq + 1, nil
}

func (s *Store) CreateSnapshotRecord(
	ctx context.Context,
	rec *models.SnapshotRecord,
) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

func (s *Store) UpdateSnapshotRecord(
	ctx context.Context,
	rec *models.SnapshotRecord,
) error {
	result := s.db.WithContext(ctx).Save(rec)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrRecordNotFound
	}
	return nil
}

func (s *Store) LatestCompleteSnapshot(
	ctx context.Context,
) (*models.SnapshotRecord, error) {
	var ret models.SnapshotRecord
	result := s.db.WithContext(ctx).
		Where("status = ?", models.SnapshotStatusComplete).
		Order("seq DESC").
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, types.ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

func (s *Store) GetSnapshotRecord(
	ctx context.Context,
	seq uint64,
) (*models.SnapshotRecord, error) {
	var ret models.SnapshotRecord
	result := s.db.WithContext(ctx).
		Where("seq = ?", seq).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, types.ErrRecordNotFound
		}
		return nil, result.Error
	}
	return &ret, nil
}

// ListSnapshotRecords returns records newest first. A non-positive limit
// returns all of them.
func (s *Store) ListSnapshotRecords(
	ctx context.Context,
	limit int,
) ([]models.SnapshotRecord, error) {
	var ret []models.SnapshotRecord
	query := s.db.WithContext(ctx).Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

func (s *Store) DeleteSnapshotRecord(ctx context.Context, seq uint64) error {
	result := s.db.WithContext(ctx).
		Where("seq = ?", seq).
		Delete(&models.SnapshotRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return types.ErrRecordNotFound
	}
	return nil
}

func (s *Store) AddHistoryEntry(
	ctx context.Context,
	entry *models.HistoryEntry,
) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
}

// ListHistory returns entries oldest first
func (s *Store) ListHistory(
	ctx context.Context,
	filter models.HistoryFilter,
) ([]models.HistoryEntry, error) {
	query := s.db.WithContext(ctx).Order("id ASC")
	if filter.EventType != "" {
		query = query.Where("event_type = ?", filter.EventType)
	}
	if filter.VotingId != 0 {
		query = query.Where("voting_id = ?", types.Uint64(filter.VotingId))
	}
	if !filter.Since.IsZero() {
		query = query.Where("created_at >= ?", filter.Since)
	}
	if filter.AfterId != 0 {
		query = query.Where("id > ?", filter.AfterId)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	var ret []models.HistoryEntry
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
