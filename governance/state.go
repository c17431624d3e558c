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

// Package governance owns the governance state and the service that runs
// every operation against it.
package governance

import (
	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
	"github.com/blinklabs-io/guild/votingconfig"
)

const (
	DefaultPermissionName   = "Default"
	DefaultAccessConfigName = "Administrators"
)

// State holds every repository of the governance engine
type State struct {
	Permissions   *permission.Repository
	AccessConfigs *accessconfig.Repository
	VotingConfigs *votingconfig.Repository
	Votings       *voting.Repository
	Choices       *voting.ChoiceRepository
	Executions    *ExecutionRepository
}

func NewState() *State {
	return &State{
		Permissions:   permission.NewRepository(),
		AccessConfigs: accessconfig.NewRepository(),
		VotingConfigs: votingconfig.NewRepository(),
		Votings:       voting.NewRepository(),
		Choices:       voting.NewChoiceRepository(),
		Executions:    NewExecutionRepository(),
	}
}

// Attach makes every repository record its changes in j
func (s *State) Attach(j *repository.Journal) {
	s.Permissions.Attach(j)
	s.AccessConfigs.Attach(j)
	s.VotingConfigs.Attach(j)
	s.Votings.Attach(j)
	s.Choices.Attach(j)
	s.Executions.Attach(j)
}

func (s *State) Gate() *accessconfig.Gate {
	return accessconfig.NewGate(s.Permissions, s.AccessConfigs)
}

// Bootstrap seeds an empty state with a permission covering the wallet's
// own endpoints and an access config admitting the administrator. An empty
// administrator admits everyone. A state that already holds permissions is
// left alone.
func (s *State) Bootstrap(self types.Principal, admin types.Principal) (bool, error) {
	if s.Permissions.Len() > 0 {
		return false, nil
	}
	if self == "" {
		return false, types.NewValidationError("self", "must not be empty")
	}
	p, err := s.Permissions.Create(
		DefaultPermissionName,
		[]permission.Target{
			permission.SelfEmptyProgram(),
			permission.RemoteActor(self),
		},
		permission.ScopeWhitelist,
	)
	if err != nil {
		return false, err
	}
	allowee := accessconfig.Everyone()
	if admin != "" {
		allowee = accessconfig.ProfileAllowee(admin)
	}
	if _, err := s.AccessConfigs.Create(
		DefaultAccessConfigName,
		"Wallet administrators",
		[]types.Id{p.ID},
		[]accessconfig.Allowee{allowee},
	); err != nil {
		return false, err
	}
	return true, nil
}
