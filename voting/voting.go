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

// Package voting implements the voting state machine and its share-weighted
// tally.
package voting

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/votingconfig"
)

const (
	NameMinLen        = 1
	NameMaxLen        = 200
	DescriptionMinLen = 0
	DescriptionMaxLen = 2000
)

var ErrChoiceNotFound = errors.New("choice not found")

type Voting struct {
	repository.Model
	VotingConfigId  types.Id                              `cbor:"2,keyasint"`
	Status          Status                                `cbor:"3,keyasint"`
	CreatedAt       time.Time                             `cbor:"4,keyasint"`
	UpdatedAt       time.Time                             `cbor:"5,keyasint"`
	StatusUpdatedAt time.Time                             `cbor:"6,keyasint"`
	Proposer        types.Principal                       `cbor:"7,keyasint"`
	Name            string                                `cbor:"8,keyasint"`
	Description     string                                `cbor:"9,keyasint"`
	TotalSupplies   map[types.GroupOrProfile]types.Shares `cbor:"10,keyasint"`
	StartCondition  StartCondition                        `cbor:"11,keyasint"`
	WinnersNeed     uint32                                `cbor:"12,keyasint"`
	Winners         []types.Id                            `cbor:"13,keyasint,omitempty"`
	CustomChoices   []types.Id                            `cbor:"14,keyasint,omitempty"`
	RejectionChoice types.Id                              `cbor:"15,keyasint"`
	ApprovalChoice  types.Id                              `cbor:"16,keyasint"`

	// ApprovalSupplies are the supplies observed while the voting awaited
	// approval. TotalSupplies only covers the current round.
	ApprovalSupplies map[types.GroupOrProfile]types.Shares `cbor:"17,keyasint"`
}

// Params describes a new voting
type Params struct {
	VotingConfigId types.Id
	Proposer       types.Principal
	Name           string
	Description    string
	StartCondition StartCondition
	WinnersNeed    uint32
}

// New returns a transient voting in the Created status together with its
// transient rejection and approval choices. The caller saves the voting
// first and then attaches the choices with AttachChoices.
func New(params Params, now time.Time) (*Voting, error) {
	v := &Voting{
		VotingConfigId:  params.VotingConfigId,
		Status:          Created(),
		CreatedAt:       now,
		UpdatedAt:       now,
		StatusUpdatedAt: now,
		Proposer:        params.Proposer,
		TotalSupplies:   make(map[types.GroupOrProfile]types.Shares),
		WinnersNeed:     params.WinnersNeed,

		ApprovalSupplies: make(map[types.GroupOrProfile]types.Shares),
	}
	if err := v.setName(params.Name); err != nil {
		return nil, err
	}
	if err := v.setDescription(params.Description); err != nil {
		return nil, err
	}
	if err := params.StartCondition.Validate(now); err != nil {
		return nil, err
	}
	v.StartCondition = params.StartCondition
	if v.WinnersNeed == 0 {
		return nil, types.NewValidationError("winners_need", "must be at least 1")
	}
	if v.Proposer == "" {
		return nil, types.NewValidationError("proposer", "must not be empty")
	}
	return v, nil
}

// NewBuiltinChoices returns the rejection and approval choices of a saved
// voting
func (v *Voting) NewBuiltinChoices() (*Choice, *Choice) {
	if v.IsTransient() {
		panic(types.NewDataIntegrityFault("voting must be saved before creating its choices"))
	}
	return newRejectionChoice(v.ID), newApprovalChoice(v.ID)
}

// AttachChoices records the ids of the saved builtin choices
func (v *Voting) AttachChoices(rejection *Choice, approval *Choice) {
	if rejection.VotingId != v.ID || approval.VotingId != v.ID {
		panic(types.NewDataIntegrityFault("builtin choice belongs to another voting"))
	}
	v.RejectionChoice = rejection.ID
	v.ApprovalChoice = approval.ID
}

func (v *Voting) Clone() *Voting {
	ret := *v
	ret.TotalSupplies = maps.Clone(v.TotalSupplies)
	if ret.TotalSupplies == nil {
		ret.TotalSupplies = make(map[types.GroupOrProfile]types.Shares)
	}
	ret.ApprovalSupplies = maps.Clone(v.ApprovalSupplies)
	if ret.ApprovalSupplies == nil {
		ret.ApprovalSupplies = make(map[types.GroupOrProfile]types.Shares)
	}
	ret.Winners = slices.Clone(v.Winners)
	ret.CustomChoices = slices.Clone(v.CustomChoices)
	return &ret
}

func (v *Voting) setName(name string) error {
	trimmed, err := types.ValidateAndTrim("voting.name", name, NameMinLen, NameMaxLen)
	if err != nil {
		return err
	}
	v.Name = trimmed
	return nil
}

func (v *Voting) setDescription(description string) error {
	trimmed, err := types.ValidateAndTrim(
		"voting.description",
		description,
		DescriptionMinLen,
		DescriptionMaxLen,
	)
	if err != nil {
		return err
	}
	v.Description = trimmed
	return nil
}

func (v *Voting) invalid(op string) error {
	return &InvalidStateTransitionError{VotingId: v.ID, Op: op, Status: v.Status}
}

func (v *Voting) setStatus(s Status, now time.Time) {
	v.Status = s
	v.StatusUpdatedAt = now
	v.UpdatedAt = now
}

// Update carries the fields to change. Nil fields are left untouched.
type Update struct {
	Name           *string
	Description    *string
	StartCondition *StartCondition
	WinnersNeed    *uint32
}

// Update changes a voting that has not been approved yet
func (v *Voting) Update(upd Update, now time.Time) error {
	if !v.Status.Is(StatusCreated) {
		return v.invalid("update")
	}
	next := v.Clone()
	if upd.Name != nil {
		if err := next.setName(*upd.Name); err != nil {
			return err
		}
	}
	if upd.Description != nil {
		if err := next.setDescription(*upd.Description); err != nil {
			return err
		}
	}
	if upd.StartCondition != nil {
		if err := upd.StartCondition.Validate(now); err != nil {
			return err
		}
		next.StartCondition = *upd.StartCondition
	}
	if upd.WinnersNeed != nil {
		if *upd.WinnersNeed == 0 {
			return types.NewValidationError("winners_need", "must be at least 1")
		}
		next.WinnersNeed = *upd.WinnersNeed
	}
	next.UpdatedAt = now
	*v = *next
	return nil
}

func (v *Voting) Approve(now time.Time) error {
	if !v.Status.Is(StatusCreated) {
		return v.invalid("approve")
	}
	v.setStatus(PreRound(1), now)
	return nil
}

func (v *Voting) Reject(now time.Time) error {
	switch v.Status.Kind {
	case StatusCreated, StatusRound:
	default:
		return v.invalid("reject")
	}
	v.setStatus(Rejected(), now)
	return nil
}

// StartRound enters the round and drops the supplies recorded for the
// previous one. Supplies are recorded afresh for every round.
func (v *Voting) StartRound(now time.Time) error {
	if !v.Status.Is(StatusPreRound) {
		return v.invalid("start round")
	}
	v.TotalSupplies = make(map[types.GroupOrProfile]types.Shares)
	v.setStatus(Round(v.Status.Round), now)
	return nil
}

func (v *Voting) NextRound(now time.Time) error {
	if !v.Status.Is(StatusRound) {
		return v.invalid("start next round")
	}
	if v.Status.Round == ^RoundId(0) {
		panic(types.NewDataIntegrityFault("round counter overflow"))
	}
	v.setStatus(PreRound(v.Status.Round+1), now)
	return nil
}

func (v *Voting) FinishSuccess(winners []types.Id, now time.Time) error {
	if !v.Status.Is(StatusRound) {
		return v.invalid("finish with success")
	}
	v.Winners = slices.Clone(winners)
	v.setStatus(Success(), now)
	return nil
}

func (v *Voting) FinishFail(reason string, now time.Time) error {
	if !v.Status.Is(StatusRound) {
		return v.invalid("finish with fail")
	}
	v.setStatus(Fail(reason), now)
	return nil
}

// ChoicesEditable reports whether custom choices may still change
func (v *Voting) ChoicesEditable() bool {
	return v.Status.Is(StatusCreated) || v.Status.Is(StatusPreRound)
}

// Deletable reports whether the voting may be deleted
func (v *Voting) Deletable() bool {
	return v.Status.Is(StatusCreated) || v.Status.IsTerminal()
}

func (v *Voting) AddCustomChoice(id types.Id, now time.Time) error {
	if !v.ChoicesEditable() {
		return v.invalid("add choice")
	}
	if !slices.Contains(v.CustomChoices, id) {
		v.CustomChoices = append(v.CustomChoices, id)
		slices.Sort(v.CustomChoices)
	}
	v.UpdatedAt = now
	return nil
}

func (v *Voting) RemoveCustomChoice(id types.Id, now time.Time) error {
	if !v.ChoicesEditable() {
		return v.invalid("remove choice")
	}
	idx := slices.Index(v.CustomChoices, id)
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrChoiceNotFound, id)
	}
	v.CustomChoices = slices.Delete(v.CustomChoices, idx, idx+1)
	v.UpdatedAt = now
	return nil
}

func (v *Voting) HasCustomChoice(id types.Id) bool {
	_, found := slices.BinarySearch(v.CustomChoices, id)
	return found
}

// RecordSupply stores the total supply observed for a scope in the current
// round. A profile's supply is simply recorded. A group's supply must not
// change within a round.
func (v *Voting) RecordSupply(gop types.GroupOrProfile, supply types.Shares) {
	if gop.IsGroup() {
		if prev, ok := v.TotalSupplies[gop]; ok && prev != supply {
			panic(types.NewDataIntegrityFault(fmt.Sprintf(
				"voting %d: total supply of %s changed from %d to %d",
				v.ID,
				gop,
				prev,
				supply,
			)))
		}
	}
	v.TotalSupplies[gop] = supply
}

// RecordApprovalSupply stores the latest supply observed for a scope while
// the voting awaits approval
func (v *Voting) RecordApprovalSupply(gop types.GroupOrProfile, supply types.Shares) {
	if v.ApprovalSupplies == nil {
		v.ApprovalSupplies = make(map[types.GroupOrProfile]types.Shares)
	}
	v.ApprovalSupplies[gop] = supply
}

// CastVote applies a vote during a round. choices must hold the rejection
// choice and every custom choice of the voting; they are mutated in place.
// A new vote fully replaces the voter's previous one in the same scope.
func (v *Voting) CastVote(
	vote Vote,
	gopTotalSupply types.Shares,
	now time.Time,
	choices map[types.Id]*Choice,
) error {
	if !v.Status.Is(StatusRound) {
		return v.invalid("cast vote")
	}
	if err := vote.Validate(); err != nil {
		return err
	}
	rejection := v.choice(choices, v.RejectionChoice)
	if vote.Kind == VoteCustom {
		for id := range vote.Custom {
			if !v.HasCustomChoice(id) {
				return fmt.Errorf("%w: %d", ErrChoiceNotFound, id)
			}
		}
	}
	gop, voter := vote.Voter.Scope()
	if vote.TotalShares() > gopTotalSupply {
		return types.NewValidationError("vote", "shares exceed total supply")
	}
	v.RecordSupply(gop, gopTotalSupply)

	rejection.RemoveVote(gop, voter)
	for _, id := range v.CustomChoices {
		v.choice(choices, id).RemoveVote(gop, voter)
	}

	switch vote.Kind {
	case VoteRejection:
		rejection.AddVote(gop, voter, vote.Shares)
	case VoteCustom:
		for id, shares := range vote.Custom {
			choices[id].AddVote(gop, voter, shares)
		}
	}
	v.UpdatedAt = now
	return nil
}

// CastApproval records an editor's approval weight while the voting is
// still Created. A new approval replaces the previous one.
func (v *Voting) CastApproval(
	voter Voter,
	shares types.Shares,
	gopTotalSupply types.Shares,
	now time.Time,
	approval *Choice,
) error {
	if !v.Status.Is(StatusCreated) {
		return v.invalid("approve")
	}
	if err := voter.Validate(); err != nil {
		return err
	}
	if approval.ID != v.ApprovalChoice {
		panic(types.NewDataIntegrityFault(
			fmt.Sprintf("voting %d: choice %d is not its approval choice", v.ID, approval.ID),
		))
	}
	gop, identity := voter.Scope()
	v.RecordApprovalSupply(gop, gopTotalSupply)
	approval.RemoveVote(gop, identity)
	if shares > 0 {
		approval.AddVote(gop, identity, shares)
	}
	v.UpdatedAt = now
	return nil
}

func (v *Voting) choice(choices map[types.Id]*Choice, id types.Id) *Choice {
	c, ok := choices[id]
	if !ok || c.VotingId != v.ID {
		panic(types.NewDataIntegrityFault(
			fmt.Sprintf("voting %d: choice %d is missing", v.ID, id),
		))
	}
	return c
}

// RoundStartsAt returns when a PreRound voting should enter its round
func (v *Voting) RoundStartsAt(cfg *votingconfig.VotingConfig) (time.Time, bool) {
	if !v.Status.Is(StatusPreRound) {
		return time.Time{}, false
	}
	if v.Status.Round == 1 {
		switch v.StartCondition.Kind {
		case StartExactDate:
			return v.StartCondition.At, true
		case StartDelayAfterApproval:
			return v.StatusUpdatedAt.Add(v.StartCondition.Delay), true
		}
	}
	return v.StatusUpdatedAt.Add(cfg.Round.RoundDelay), true
}

// RoundEndsAt returns when the current round should be resolved
func (v *Voting) RoundEndsAt(cfg *votingconfig.VotingConfig) (time.Time, bool) {
	if !v.Status.Is(StatusRound) {
		return time.Time{}, false
	}
	return v.StatusUpdatedAt.Add(cfg.Round.RoundDuration), true
}
