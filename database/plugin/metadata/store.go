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

package metadata

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/database/plugin"
	"gorm.io/gorm"
)

// MetadataStore keeps snapshot bookkeeping and the governance history
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB

	// Snapshots
	NextSnapshotSeq(context.Context) (uint64, error)
	CreateSnapshotRecord(context.Context, *models.SnapshotRecord) error
	UpdateSnapshotRecord(context.Context, *models.SnapshotRecord) error
	GetSnapshotRecord(context.Context, uint64) (*models.SnapshotRecord, error)
	LatestCompleteSnapshot(context.Context) (*models.SnapshotRecord, error)
	ListSnapshotRecords(context.Context, int) ([]models.SnapshotRecord, error)
	DeleteSnapshotRecord(context.Context, uint64) error

	// History
	AddHistoryEntry(context.Context, *models.HistoryEntry) error
	ListHistory(context.Context, models.HistoryFilter) ([]models.HistoryEntry, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	store, ok := p.(MetadataStore)
	if !ok {
		_ = p.Stop()
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return store, nil
}
