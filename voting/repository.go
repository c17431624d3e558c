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
	"iter"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

type Filter struct {
	VotingConfig *types.Id
	Proposer     *types.Principal
	Status       *StatusKind
}

type PageRequest = repository.PageRequest[Filter, struct{}]

type Repository struct {
	store      *repository.Store[*Voting]
	byConfig   *repository.Index[types.Id, *Voting]
	byProposer *repository.Index[types.Principal, *Voting]
	byStatus   *repository.Index[StatusKind, *Voting]
}

func NewRepository() *Repository {
	r := &Repository{
		byConfig: repository.NewIndex(func(v *Voting) []types.Id {
			return []types.Id{v.VotingConfigId}
		}),
		byProposer: repository.NewIndex(func(v *Voting) []types.Principal {
			return []types.Principal{v.Proposer}
		}),
		byStatus: repository.NewIndex(func(v *Voting) []StatusKind {
			return []StatusKind{v.Status.Kind}
		}),
	}
	r.store = repository.NewStore[*Voting](r.byConfig, r.byProposer, r.byStatus)
	return r
}

func (r *Repository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *Repository) Export() ([]*Voting, repository.IdGenerator) {
	return r.store.Export()
}

func (r *Repository) Import(items []*Voting, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *Repository) Save(v *Voting) types.Id {
	return r.store.Save(v)
}

func (r *Repository) Get(id types.Id) (*Voting, error) {
	v, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("voting", id)
	}
	return v, nil
}

func (r *Repository) Delete(id types.Id) (*Voting, error) {
	v, ok := r.store.Delete(id)
	if !ok {
		return nil, types.NewNotFoundError("voting", id)
	}
	return v, nil
}

func (r *Repository) Len() int {
	return r.store.Len()
}

// IdsByConfig returns the votings bound to a voting config
func (r *Repository) IdsByConfig(configId types.Id) []types.Id {
	return r.byConfig.Lookup(configId)
}

// ByStatus yields the votings currently in a status
func (r *Repository) ByStatus(kind StatusKind) iter.Seq[*Voting] {
	return r.store.ByIds(r.byStatus.Lookup(kind))
}

func (r *Repository) All() iter.Seq[*Voting] {
	return r.store.All()
}

func (r *Repository) List(req PageRequest) repository.Page[*Voting] {
	seq := r.store.All()
	switch {
	case req.Filter.VotingConfig != nil:
		seq = r.store.ByIds(r.byConfig.Lookup(*req.Filter.VotingConfig))
	case req.Filter.Proposer != nil:
		seq = r.store.ByIds(r.byProposer.Lookup(*req.Filter.Proposer))
	case req.Filter.Status != nil:
		seq = r.store.ByIds(r.byStatus.Lookup(*req.Filter.Status))
	}
	if req.Filter.Status != nil && (req.Filter.VotingConfig != nil || req.Filter.Proposer != nil) {
		status := *req.Filter.Status
		seq = repository.Filter(seq, func(v *Voting) bool {
			return v.Status.Kind == status
		})
	}
	if req.Filter.Proposer != nil && req.Filter.VotingConfig != nil {
		proposer := *req.Filter.Proposer
		seq = repository.Filter(seq, func(v *Voting) bool {
			return v.Proposer == proposer
		})
	}
	return repository.Paginate(seq, req)
}
