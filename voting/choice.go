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

package voting

import (
	"maps"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

const (
	ChoiceNameMinLen        = 1
	ChoiceNameMaxLen        = 100
	ChoiceDescriptionMinLen = 0
	ChoiceDescriptionMaxLen = 500

	RejectionChoiceName        = "Reject"
	RejectionChoiceDescription = "I don't support this voting"
	ApprovalChoiceName         = "Approve"
	ApprovalChoiceDescription  = "This voting makes sense to me"
)

// Choice is one option of a voting together with its running tally. The
// per-scope sum always equals the sum of the per-voter amounts.
type Choice struct {
	repository.Model
	VotingId       types.Id                                                  `cbor:"2,keyasint"`
	Name           string                                                    `cbor:"3,keyasint"`
	Description    string                                                    `cbor:"4,keyasint"`
	Program        types.Program                                             `cbor:"5,keyasint"`
	VotedSharesSum map[types.GroupOrProfile]types.Shares                     `cbor:"6,keyasint"`
	SharesByVoter  map[types.GroupOrProfile]map[types.Principal]types.Shares `cbor:"7,keyasint"`
}

func NewChoice(
	votingId types.Id,
	name string,
	description string,
	program types.Program,
) (*Choice, error) {
	c := &Choice{
		VotingId:       votingId,
		VotedSharesSum: make(map[types.GroupOrProfile]types.Shares),
		SharesByVoter:  make(map[types.GroupOrProfile]map[types.Principal]types.Shares),
	}
	if err := c.SetName(name); err != nil {
		return nil, err
	}
	if err := c.SetDescription(description); err != nil {
		return nil, err
	}
	if err := c.SetProgram(program); err != nil {
		return nil, err
	}
	return c, nil
}

func newRejectionChoice(votingId types.Id) *Choice {
	c, err := NewChoice(
		votingId,
		RejectionChoiceName,
		RejectionChoiceDescription,
		types.EmptyProgram(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

func newApprovalChoice(votingId types.Id) *Choice {
	c, err := NewChoice(
		votingId,
		ApprovalChoiceName,
		ApprovalChoiceDescription,
		types.EmptyProgram(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Choice) SetName(name string) error {
	trimmed, err := types.ValidateAndTrim(
		"choice.name",
		name,
		ChoiceNameMinLen,
		ChoiceNameMaxLen,
	)
	if err != nil {
		return err
	}
	c.Name = trimmed
	return nil
}

func (c *Choice) SetDescription(description string) error {
	trimmed, err := types.ValidateAndTrim(
		"choice.description",
		description,
		ChoiceDescriptionMinLen,
		ChoiceDescriptionMaxLen,
	)
	if err != nil {
		return err
	}
	c.Description = trimmed
	return nil
}

func (c *Choice) SetProgram(program types.Program) error {
	if err := program.Validate(); err != nil {
		return err
	}
	c.Program = program.Clone()
	return nil
}

func (c *Choice) Clone() *Choice {
	ret := *c
	ret.Program = c.Program.Clone()
	ret.VotedSharesSum = maps.Clone(c.VotedSharesSum)
	if ret.VotedSharesSum == nil {
		ret.VotedSharesSum = make(map[types.GroupOrProfile]types.Shares)
	}
	ret.SharesByVoter = make(
		map[types.GroupOrProfile]map[types.Principal]types.Shares,
		len(c.SharesByVoter),
	)
	for gop, voters := range c.SharesByVoter {
		ret.SharesByVoter[gop] = maps.Clone(voters)
	}
	return &ret
}

// AddVote records shares for the voter in the scope
func (c *Choice) AddVote(gop types.GroupOrProfile, voter types.Principal, shares types.Shares) {
	voters, ok := c.SharesByVoter[gop]
	if !ok {
		voters = make(map[types.Principal]types.Shares)
		c.SharesByVoter[gop] = voters
	}
	voters[voter] = voters[voter].Add(shares)
	c.VotedSharesSum[gop] = c.VotedSharesSum[gop].Add(shares)
}

// RemoveVote drops the voter's shares in the scope and returns them
func (c *Choice) RemoveVote(gop types.GroupOrProfile, voter types.Principal) types.Shares {
	voters, ok := c.SharesByVoter[gop]
	if !ok {
		return 0
	}
	shares, ok := voters[voter]
	if !ok {
		return 0
	}
	delete(voters, voter)
	if len(voters) == 0 {
		delete(c.SharesByVoter, gop)
	}
	sum := c.VotedSharesSum[gop].Sub(shares)
	if sum == 0 {
		delete(c.VotedSharesSum, gop)
	} else {
		c.VotedSharesSum[gop] = sum
	}
	return shares
}

// VoterShares returns the shares the voter currently has on this choice
func (c *Choice) VoterShares(gop types.GroupOrProfile, voter types.Principal) types.Shares {
	return c.SharesByVoter[gop][voter]
}

// Tally returns a copy of the per-scope sums
func (c *Choice) Tally() map[types.GroupOrProfile]types.Shares {
	return maps.Clone(c.VotedSharesSum)
}

func (c *Choice) Total() types.Shares {
	var total types.Shares
	for _, s := range c.VotedSharesSum {
		total = total.Add(s)
	}
	return total
}

type ChoiceRepository struct {
	store    *repository.Store[*Choice]
	byVoting *repository.Index[types.Id, *Choice]
}

func NewChoiceRepository() *ChoiceRepository {
	byVoting := repository.NewIndex(func(c *Choice) []types.Id {
		return []types.Id{c.VotingId}
	})
	return &ChoiceRepository{
		store:    repository.NewStore[*Choice](byVoting),
		byVoting: byVoting,
	}
}

func (r *ChoiceRepository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *ChoiceRepository) Export() ([]*Choice, repository.IdGenerator) {
	return r.store.Export()
}

func (r *ChoiceRepository) Import(items []*Choice, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *ChoiceRepository) Save(c *Choice) types.Id {
	return r.store.Save(c)
}

func (r *ChoiceRepository) Get(id types.Id) (*Choice, error) {
	c, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("choice", id)
	}
	return c, nil
}

func (r *ChoiceRepository) Delete(id types.Id) (*Choice, error) {
	c, ok := r.store.Delete(id)
	if !ok {
		return nil, types.NewNotFoundError("choice", id)
	}
	return c, nil
}

// ByVoting returns every choice of a voting keyed by id
func (r *ChoiceRepository) ByVoting(votingId types.Id) map[types.Id]*Choice {
	ret := make(map[types.Id]*Choice)
	for c := range r.store.ByIds(r.byVoting.Lookup(votingId)) {
		ret[c.ID] = c
	}
	return ret
}

func (r *ChoiceRepository) IdsByVoting(votingId types.Id) []types.Id {
	return r.byVoting.Lookup(votingId)
}

// DeleteByVoting removes every choice of a voting
func (r *ChoiceRepository) DeleteByVoting(votingId types.Id) int {
	ids := r.byVoting.Lookup(votingId)
	for _, id := range ids {
		r.store.Delete(id)
	}
	return len(ids)
}

func (r *ChoiceRepository) Len() int {
	return r.store.Len()
}
