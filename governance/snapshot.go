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

package governance

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/codec"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/voting"
	"github.com/blinklabs-io/guild/votingconfig"
)

const SnapshotVersion = 1

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// snapshot is the persisted form of a State. Indexes are not stored and are
// rebuilt on restore.
type snapshot struct {
	Version         uint16                       `cbor:"1,keyasint"`
	Permissions     []*permission.Permission     `cbor:"2,keyasint"`
	PermissionIds   repository.IdGenerator       `cbor:"3,keyasint"`
	AccessConfigs   []*accessconfig.AccessConfig `cbor:"4,keyasint"`
	AccessConfigIds repository.IdGenerator       `cbor:"5,keyasint"`
	VotingConfigs   []*votingconfig.VotingConfig `cbor:"6,keyasint"`
	VotingConfigIds repository.IdGenerator       `cbor:"7,keyasint"`
	Votings         []*voting.Voting             `cbor:"8,keyasint"`
	VotingIds       repository.IdGenerator       `cbor:"9,keyasint"`
	Choices         []*voting.Choice             `cbor:"10,keyasint"`
	ChoiceIds       repository.IdGenerator       `cbor:"11,keyasint"`
	Executions      []*ExecutionRecord           `cbor:"12,keyasint"`
	ExecutionIds    repository.IdGenerator       `cbor:"13,keyasint"`
}

// Snapshot serializes the whole state into one blob
func (s *State) Snapshot() ([]byte, error) {
	snap := snapshot{Version: SnapshotVersion}
	snap.Permissions, snap.PermissionIds = s.Permissions.Export()
	snap.AccessConfigs, snap.AccessConfigIds = s.AccessConfigs.Export()
	snap.VotingConfigs, snap.VotingConfigIds = s.VotingConfigs.Export()
	snap.Votings, snap.VotingIds = s.Votings.Export()
	snap.Choices, snap.ChoiceIds = s.Choices.Export()
	snap.Executions, snap.ExecutionIds = s.Executions.Export()
	return codec.Marshal(snap)
}

// RestoreState rebuilds a State from a blob produced by Snapshot
func RestoreState(data []byte) (ret *State, err error) {
	var snap snapshot
	if err := codec.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf(
			"%w: unsupported version %d",
			ErrInvalidSnapshot,
			snap.Version,
		)
	}
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*types.DataIntegrityFault)
			if !ok {
				panic(r)
			}
			ret = nil
			err = fmt.Errorf("%w: %w", ErrInvalidSnapshot, fault)
		}
	}()
	st := NewState()
	st.Permissions.Import(snap.Permissions, snap.PermissionIds)
	st.AccessConfigs.Import(snap.AccessConfigs, snap.AccessConfigIds)
	st.VotingConfigs.Import(snap.VotingConfigs, snap.VotingConfigIds)
	st.Votings.Import(normalizeVotings(snap.Votings), snap.VotingIds)
	st.Choices.Import(normalizeChoices(snap.Choices), snap.ChoiceIds)
	st.Executions.Import(snap.Executions, snap.ExecutionIds)
	if err := st.checkReferences(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return st, nil
}

// CBOR leaves empty maps nil
func normalizeVotings(items []*voting.Voting) []*voting.Voting {
	for _, v := range items {
		if v.TotalSupplies == nil {
			v.TotalSupplies = make(map[types.GroupOrProfile]types.Shares)
		}
		if v.ApprovalSupplies == nil {
			v.ApprovalSupplies = make(map[types.GroupOrProfile]types.Shares)
		}
	}
	return items
}

func normalizeChoices(items []*voting.Choice) []*voting.Choice {
	for _, c := range items {
		if c.VotedSharesSum == nil {
			c.VotedSharesSum = make(map[types.GroupOrProfile]types.Shares)
		}
		if c.SharesByVoter == nil {
			c.SharesByVoter = make(map[types.GroupOrProfile]map[types.Principal]types.Shares)
		}
	}
	return items
}

func (s *State) checkReferences() error {
	for v := range s.Votings.All() {
		if _, err := s.VotingConfigs.Get(v.VotingConfigId); err != nil {
			return fmt.Errorf("voting %d: %w", v.ID, err)
		}
		ids := append([]types.Id{v.RejectionChoice, v.ApprovalChoice}, v.CustomChoices...)
		for _, id := range ids {
			c, err := s.Choices.Get(id)
			if err != nil {
				return fmt.Errorf("voting %d: %w", v.ID, err)
			}
			if c.VotingId != v.ID {
				return fmt.Errorf("voting %d: choice %d belongs to voting %d", v.ID, id, c.VotingId)
			}
		}
	}
	return nil
}
