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

import (
	"time"

	"github.com/blinklabs-io/guild/database/types"
)

// HistoryEntry is one line of the governance audit trail. Payload holds the
// CBOR-encoded event data.
type HistoryEntry struct {
	ID        uint         `gorm:"primarykey"`
	EventType string       `gorm:"size:64;index;not null"`
	EntityId  types.Uint64 `gorm:"index"`
	VotingId  types.Uint64 `gorm:"index"`
	Caller    string       `gorm:"size:255"`
	Payload   []byte
	CreatedAt time.Time `gorm:"index"`
}

func (HistoryEntry) TableName() string {
	return "history"
}

// HistoryFilter narrows a history listing. Zero values match everything.
type HistoryFilter struct {
	EventType string
	VotingId  uint64
	Since     time.Time
	AfterId   uint
	Limit     int
}
