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


package guild

import (
	"context"
	"log/slog"
	"strings"

	"github.com/blinklabs-io/guild/codec"
	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	dbtypes "github.com/blinklabs-io/guild/database/types"
	"github.com/blinklabs-io/guild/event"
)

// historyRecorder writes every governance event to the history trail of
// the metadata store
type historyRecorder struct {
	db     *database.Database
	logger *slog.Logger
}

func (h *historyRecorder) subscribe(eventBus *event.EventBus) {
	for _, evtType := range event.GovernanceEventTypes {
		eventBus.SubscribeFunc(evtType, h.handle)
	}
}

func (h *historyRecorder) handle(evt event.Event) {
	entry, err := historyEntry(evt)
	if err != nil {
		h.logger.Error(
			"failed to encode history entry",
			"component", "guild",
			"event_type", string(evt.Type),
			"error", err,
		)
		return
	}
	if err := h.db.RecordEvent(context.Background(), entry); err != nil {
		h.logger.Error(
			"failed to record history entry",
			"component", "guild",
			"event_type", string(evt.Type),
			"error", err,
		)
	}
}

func historyEntry(evt event.Event) (*models.HistoryEntry, error) {
	payload, err := codec.Marshal(evt.Data)
	if err != nil {
		return nil, err
	}
	entry := &models.HistoryEntry{
		EventType: string(evt.Type),
		Payload:   payload,
		CreatedAt: evt.Timestamp,
	}
	switch data := evt.Data.(type) {
	case event.EntityEvent:
		entry.EntityId = dbtypes.Uint64(data.Id)
		entry.Caller = string(data.Caller)
		if strings.HasPrefix(string(evt.Type), "voting.") {
			entry.VotingId = dbtypes.Uint64(data.Id)
		}
	case event.VotingStatusEvent:
		entry.EntityId = dbtypes.Uint64(data.VotingId)
		entry.VotingId = dbtypes.Uint64(data.VotingId)
	case event.VoteCastEvent:
		entry.EntityId = dbtypes.Uint64(data.VotingId)
		entry.VotingId = dbtypes.Uint64(data.VotingId)
		entry.Caller = string(data.Voter)
	case event.ChoiceExecutedEvent:
		entry.EntityId = dbtypes.Uint64(data.ChoiceId)
		entry.VotingId = dbtypes.Uint64(data.VotingId)
	}
	return entry, nil
}
