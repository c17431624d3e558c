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

// Package votingconfig holds the rules a voting is judged by: thresholds,
// round timing and choice/winner count bounds.
package votingconfig

import (
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

const (
	NameMinLen        = 1
	NameMaxLen        = 100
	DescriptionMinLen = 0
	DescriptionMaxLen = 300
)

var (
	ErrInvalidInterval = errors.New("invalid interval")
	ErrDuplicateName   = errors.New("voting config name already in use")
)

type VotingConfig struct {
	repository.Model
	Name         string         `cbor:"2,keyasint"`
	Description  string         `cbor:"3,keyasint"`
	ChoicesCount *LenInterval   `cbor:"4,keyasint,omitempty"`
	WinnersCount *LenInterval   `cbor:"5,keyasint,omitempty"`
	Round        RoundSettings  `cbor:"6,keyasint"`
	Permissions  []types.Id     `cbor:"7,keyasint"`
	Approval     ThresholdValue `cbor:"8,keyasint"`
	Rejection    ThresholdValue `cbor:"9,keyasint"`
	Quorum       ThresholdValue `cbor:"10,keyasint"`
	Win          ThresholdValue `cbor:"11,keyasint"`
	NextRound    ThresholdValue `cbor:"12,keyasint"`
}

// Params holds every field of a new voting config
type Params struct {
	Name         string
	Description  string
	ChoicesCount *LenInterval
	WinnersCount *LenInterval
	Round        RoundSettings
	Permissions  []types.Id
	Approval     ThresholdValue
	Rejection    ThresholdValue
	Quorum       ThresholdValue
	Win          ThresholdValue
	NextRound    ThresholdValue
}

// Update carries the fields to change. Nil fields are left untouched.
type Update struct {
	Name         *string
	Description  *string
	ChoicesCount **LenInterval
	WinnersCount **LenInterval
	Round        *RoundSettings
	Permissions  *[]types.Id
	Approval     *ThresholdValue
	Rejection    *ThresholdValue
	Quorum       *ThresholdValue
	Win          *ThresholdValue
	NextRound    *ThresholdValue
}

func New(params Params) (*VotingConfig, error) {
	vc := &VotingConfig{
		Name:         params.Name,
		Description:  params.Description,
		ChoicesCount: cloneInterval(params.ChoicesCount),
		WinnersCount: cloneInterval(params.WinnersCount),
		Round:        params.Round,
		Permissions:  types.SortedUnique(params.Permissions),
		Approval:     params.Approval.Clone(),
		Rejection:    params.Rejection.Clone(),
		Quorum:       params.Quorum.Clone(),
		Win:          params.Win.Clone(),
		NextRound:    params.NextRound.Clone(),
	}
	if err := vc.validate(); err != nil {
		return nil, err
	}
	return vc, nil
}

func (vc *VotingConfig) Clone() *VotingConfig {
	ret := *vc
	ret.ChoicesCount = cloneInterval(vc.ChoicesCount)
	ret.WinnersCount = cloneInterval(vc.WinnersCount)
	ret.Permissions = slices.Clone(vc.Permissions)
	ret.Approval = vc.Approval.Clone()
	ret.Rejection = vc.Rejection.Clone()
	ret.Quorum = vc.Quorum.Clone()
	ret.Win = vc.Win.Clone()
	ret.NextRound = vc.NextRound.Clone()
	return &ret
}

// Apply validates and applies an update in place
func (vc *VotingConfig) Apply(upd Update) error {
	next := vc.Clone()
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Description != nil {
		next.Description = *upd.Description
	}
	if upd.ChoicesCount != nil {
		next.ChoicesCount = cloneInterval(*upd.ChoicesCount)
	}
	if upd.WinnersCount != nil {
		next.WinnersCount = cloneInterval(*upd.WinnersCount)
	}
	if upd.Round != nil {
		next.Round = *upd.Round
	}
	if upd.Permissions != nil {
		next.Permissions = types.SortedUnique(*upd.Permissions)
	}
	for _, pair := range []struct {
		dst *ThresholdValue
		src *ThresholdValue
	}{
		{&next.Approval, upd.Approval},
		{&next.Rejection, upd.Rejection},
		{&next.Quorum, upd.Quorum},
		{&next.Win, upd.Win},
		{&next.NextRound, upd.NextRound},
	} {
		if pair.src != nil {
			*pair.dst = pair.src.Clone()
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	*vc = *next
	return nil
}

func (vc *VotingConfig) validate() error {
	var err error
	vc.Name, err = types.ValidateAndTrim(
		"voting_config.name",
		vc.Name,
		NameMinLen,
		NameMaxLen,
	)
	if err != nil {
		return err
	}
	vc.Description, err = types.ValidateAndTrim(
		"voting_config.description",
		vc.Description,
		DescriptionMinLen,
		DescriptionMaxLen,
	)
	if err != nil {
		return err
	}
	if vc.ChoicesCount != nil && !vc.ChoicesCount.IsValid() {
		return fmt.Errorf(
			"%w: %w",
			types.NewValidationError("voting_config.choices_count", vc.ChoicesCount.String()),
			ErrInvalidInterval,
		)
	}
	if vc.WinnersCount != nil {
		if !vc.WinnersCount.IsValid() {
			return fmt.Errorf(
				"%w: %w",
				types.NewValidationError("voting_config.winners_count", vc.WinnersCount.String()),
				ErrInvalidInterval,
			)
		}
		if vc.WinnersCount.Max == 0 {
			return types.NewValidationError(
				"voting_config.winners_count",
				"must allow at least one winner",
			)
		}
		if vc.ChoicesCount != nil && vc.WinnersCount.Min > vc.ChoicesCount.Max {
			return fmt.Errorf(
				"%w: %w",
				types.NewValidationError(
					"voting_config.winners_count",
					"requires more winners than choices allowed",
				),
				ErrInvalidInterval,
			)
		}
	}
	if err := vc.Round.Validate(); err != nil {
		return err
	}
	if len(vc.Permissions) == 0 {
		return types.NewValidationError("voting_config.permissions", "must not be empty")
	}
	for _, t := range []struct {
		field string
		value ThresholdValue
	}{
		{"voting_config.approval", vc.Approval},
		{"voting_config.rejection", vc.Rejection},
		{"voting_config.quorum", vc.Quorum},
		{"voting_config.win", vc.Win},
		{"voting_config.next_round", vc.NextRound},
	} {
		if err := t.value.Validate(t.field); err != nil {
			return err
		}
	}
	return nil
}

// AcceptsWinnersNeed checks a voting's requested winner count
func (vc *VotingConfig) AcceptsWinnersNeed(n uint32) bool {
	if n == 0 {
		return false
	}
	if vc.WinnersCount != nil {
		return vc.WinnersCount.Contains(n)
	}
	return true
}

// AcceptsChoicesCount reports whether n custom choices stay within the
// configured maximum
func (vc *VotingConfig) AcceptsChoicesCount(n uint32) bool {
	return vc.ChoicesCount == nil || n <= vc.ChoicesCount.Max
}

// HasEnoughChoices reports whether n custom choices reach the configured
// minimum
func (vc *VotingConfig) HasEnoughChoices(n uint32) bool {
	return vc.ChoicesCount == nil || n >= vc.ChoicesCount.Min
}

func cloneInterval(i *LenInterval) *LenInterval {
	if i == nil {
		return nil
	}
	ret := *i
	return &ret
}

type Filter struct {
	Permission *types.Id
}

type PageRequest = repository.PageRequest[Filter, struct{}]

type Repository struct {
	store        *repository.Store[*VotingConfig]
	byPermission *repository.Index[types.Id, *VotingConfig]
	byName       *repository.Index[string, *VotingConfig]
}

func NewRepository() *Repository {
	r := &Repository{
		byPermission: repository.NewIndex(func(vc *VotingConfig) []types.Id {
			return vc.Permissions
		}),
		byName: repository.NewIndex(func(vc *VotingConfig) []string {
			return []string{vc.Name}
		}),
	}
	r.store = repository.NewStore[*VotingConfig](r.byPermission, r.byName)
	return r
}

func (r *Repository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *Repository) Export() ([]*VotingConfig, repository.IdGenerator) {
	return r.store.Export()
}

func (r *Repository) Import(items []*VotingConfig, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *Repository) checkName(vc *VotingConfig) error {
	for _, id := range r.byName.Lookup(vc.Name) {
		if id != vc.ID {
			return fmt.Errorf("%w: %q", ErrDuplicateName, vc.Name)
		}
	}
	return nil
}

func (r *Repository) Create(params Params) (*VotingConfig, error) {
	vc, err := New(params)
	if err != nil {
		return nil, err
	}
	if err := r.checkName(vc); err != nil {
		return nil, err
	}
	r.store.Save(vc)
	return vc, nil
}

func (r *Repository) Update(id types.Id, upd Update) (*VotingConfig, error) {
	vc, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if err := vc.Apply(upd); err != nil {
		return nil, err
	}
	if err := r.checkName(vc); err != nil {
		return nil, err
	}
	r.store.Save(vc)
	return vc, nil
}

func (r *Repository) Delete(id types.Id) (*VotingConfig, error) {
	vc, ok := r.store.Delete(id)
	if !ok {
		return nil, types.NewNotFoundError("voting config", id)
	}
	return vc, nil
}

func (r *Repository) Get(id types.Id) (*VotingConfig, error) {
	vc, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("voting config", id)
	}
	return vc, nil
}

func (r *Repository) IdsByPermission(permission types.Id) []types.Id {
	return r.byPermission.Lookup(permission)
}

func (r *Repository) All() iter.Seq[*VotingConfig] {
	return r.store.All()
}

func (r *Repository) List(req PageRequest) repository.Page[*VotingConfig] {
	seq := r.store.All()
	if req.Filter.Permission != nil {
		seq = r.store.ByIds(r.byPermission.Lookup(*req.Filter.Permission))
	}
	return repository.Paginate(seq, req)
}
