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

package permission

import (
	"errors"
	"fmt"
	"iter"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

var (
	ErrNotPermissionTarget = errors.New("not a permission target")

	ErrThereShouldBeAtLeastOnePermission = errors.New(
		"there should be at least one permission",
	)
)

type Filter struct {
	// Target limits the listing to permissions containing the target
	Target *Target
}

type PageRequest = repository.PageRequest[Filter, struct{}]

// Update carries the fields to change. Nil fields are left untouched.
type Update struct {
	Name    *string
	Targets *[]Target
	Scope   *Scope
}

type Repository struct {
	store    *repository.Store[*Permission]
	byTarget *repository.Index[Target, *Permission]
}

func NewRepository() *Repository {
	byTarget := repository.NewIndex(func(p *Permission) []Target {
		return p.Targets
	})
	return &Repository{
		store:    repository.NewStore[*Permission](byTarget),
		byTarget: byTarget,
	}
}

func (r *Repository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *Repository) Export() ([]*Permission, repository.IdGenerator) {
	return r.store.Export()
}

func (r *Repository) Import(items []*Permission, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *Repository) Len() int {
	return r.store.Len()
}

func (r *Repository) Create(
	name string,
	targets []Target,
	scope Scope,
) (*Permission, error) {
	p, err := New(name, targets, scope)
	if err != nil {
		return nil, err
	}
	r.store.Save(p)
	return p, nil
}

func (r *Repository) Update(id types.Id, upd Update) (*Permission, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if err := p.setName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Targets != nil {
		if err := p.setTargets(*upd.Targets); err != nil {
			return nil, err
		}
	}
	if upd.Scope != nil {
		if err := upd.Scope.Validate(); err != nil {
			return nil, err
		}
		p.Scope = *upd.Scope
	}
	r.store.Save(p)
	return p, nil
}

// Remove deletes a permission. The last remaining permission can never be
// removed.
func (r *Repository) Remove(id types.Id) (*Permission, error) {
	if !r.store.Has(id) {
		return nil, types.NewNotFoundError("permission", id)
	}
	if r.store.Len() == 1 {
		return nil, ErrThereShouldBeAtLeastOnePermission
	}
	p, _ := r.store.Delete(id)
	return p, nil
}

func (r *Repository) Get(id types.Id) (*Permission, error) {
	p, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("permission", id)
	}
	return p, nil
}

func (r *Repository) Exists(id types.Id) bool {
	return r.store.Has(id)
}

// IdsByTarget returns the ids of permissions that list the target
func (r *Repository) IdsByTarget(t Target) []types.Id {
	return r.byTarget.Lookup(t)
}

// IndexedTargets returns every target present in the reverse index
func (r *Repository) IndexedTargets() []Target {
	return r.byTarget.Keys()
}

func (r *Repository) All() iter.Seq[*Permission] {
	return r.store.All()
}

func (r *Repository) List(req PageRequest) repository.Page[*Permission] {
	seq := r.store.All()
	if req.Filter.Target != nil {
		seq = r.store.ByIds(r.byTarget.Lookup(*req.Filter.Target))
	}
	return repository.Paginate(seq, req)
}

func (r *Repository) IsPermissionTarget(
	endpoint *types.Endpoint,
	id types.Id,
) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	if !p.IsTarget(endpoint) {
		return notTarget(p, endpoint)
	}
	return nil
}

func (r *Repository) IsProgramAllowed(
	program types.Program,
	id types.Id,
) error {
	p, err := r.Get(id)
	if err != nil {
		return err
	}
	if program.IsEmpty() {
		if !p.IsTarget(nil) {
			return notTarget(p, nil)
		}
		return nil
	}
	for i := range program.Calls {
		if !p.IsTarget(&program.Calls[i].Endpoint) {
			return notTarget(p, &program.Calls[i].Endpoint)
		}
	}
	return nil
}

// AllowsProgramAny reports whether any of the listed permissions allows the
// program. Missing permissions are skipped.
func (r *Repository) AllowsProgramAny(
	program types.Program,
	ids []types.Id,
) bool {
	for _, id := range ids {
		if r.IsProgramAllowed(program, id) == nil {
			return true
		}
	}
	return false
}

func notTarget(p *Permission, endpoint *types.Endpoint) error {
	what := "empty program"
	if endpoint != nil {
		what = endpoint.String()
	}
	return fmt.Errorf(
		"%w: %s for permission %d",
		ErrNotPermissionTarget,
		what,
		p.ID,
	)
}
