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

package event

import (
	"github.com/blinklabs-io/guild/types"
)

const (
	PermissionCreatedEventType   EventType = "permission.created"
	PermissionUpdatedEventType   EventType = "permission.updated"
	PermissionRemovedEventType   EventType = "permission.removed"
	AccessConfigCreatedEventType EventType = "access_config.created"
	AccessConfigUpdatedEventType EventType = "access_config.updated"
	AccessConfigDeletedEventType EventType = "access_config.deleted"
	VotingConfigCreatedEventType EventType = "voting_config.created"
	VotingConfigUpdatedEventType EventType = "voting_config.updated"
	VotingConfigDeletedEventType EventType = "voting_config.deleted"
	VotingCreatedEventType       EventType = "voting.created"
	VotingUpdatedEventType       EventType = "voting.updated"
	VotingDeletedEventType       EventType = "voting.deleted"
	VotingStatusEventType        EventType = "voting.status"
	VoteCastEventType            EventType = "vote.cast"
	ChoiceExecutedEventType      EventType = "choice.executed"
)

// GovernanceEventTypes lists every event type published by the governance
// service
var GovernanceEventTypes = []EventType{
	PermissionCreatedEventType,
	PermissionUpdatedEventType,
	PermissionRemovedEventType,
	AccessConfigCreatedEventType,
	AccessConfigUpdatedEventType,
	AccessConfigDeletedEventType,
	VotingConfigCreatedEventType,
	VotingConfigUpdatedEventType,
	VotingConfigDeletedEventType,
	VotingCreatedEventType,
	VotingUpdatedEventType,
	VotingDeletedEventType,
	VotingStatusEventType,
	VoteCastEventType,
	ChoiceExecutedEventType,
}

// EntityEvent reports a change to a permission, access config, voting
// config or voting
type EntityEvent struct {
	Id     types.Id
	Name   string
	Caller types.Principal
}

// VotingStatusEvent reports a voting state machine transition
type VotingStatusEvent struct {
	VotingId types.Id
	From     string
	To       string
	Winners  []types.Id
}

type VoteCastEvent struct {
	VotingId types.Id
	Round    uint16
	Voter    types.Principal
	Scope    types.GroupOrProfile
	Shares   types.Shares
}

// ChoiceExecutedEvent reports the outcome of running a winning choice
type ChoiceExecutedEvent struct {
	VotingId types.Id
	ChoiceId types.Id
	Success  bool
	Error    string
}
