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

package models

import "time"

type SnapshotStatus string

const (
	SnapshotStatusPending  SnapshotStatus = "pending"
	SnapshotStatusComplete SnapshotStatus = "complete"
	SnapshotStatusFailed   SnapshotStatus = "failed"
)

// SnapshotRecord describes one state snapshot held in the blob store. The
// record is written as pending before the blob and only marked complete
// once the blob write succeeded.
type SnapshotRecord struct {
	ID          uint           `gorm:"primarykey"`
	Seq         uint64         `gorm:"uniqueIndex;not null"`
	BlobKey     string         `gorm:"size:255;not null"`
	Status      SnapshotStatus `gorm:"size:16;index;not null"`
	Checksum    string         `gorm:"size:64"`
	Error       string         `gorm:"type:text"`
	Size        uint64
	Compressed  bool
	Encrypted   bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

func (SnapshotRecord) TableName() string {
	return "snapshot"
}

func (r *SnapshotRecord) IsComplete() bool {
	return r.Status == SnapshotStatusComplete
}
