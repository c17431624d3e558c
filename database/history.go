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

	"github.com/blinklabs-io/guild/database/models"
)

// RecordEvent appends an entry to the history trail
func (d *Database) RecordEvent(ctx context.Context, entry *models.HistoryEntry) error {
	if err := d.metadata.AddHistoryEntry(ctx, entry); err != nil {
		return err
	}
	d.metrics.historyEntries.WithLabelValues(entry.EventType).Inc()
	return nil
}

func (d *Database) History(
	ctx context.Context,
	filter models.HistoryFilter,
) ([]models.HistoryEntry, error) {
	return d.metadata.ListHistory(ctx, filter)
}
