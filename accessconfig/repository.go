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

package accessconfig

import (
	"errors"
	"fmt"
	"iter"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

var ErrDuplicateName = errors.New("access config name already in use")

type Filter struct {
	Permission *types.Id
	Profile    *types.Principal
	Group      *types.Id
}

type PageRequest = repository.PageRequest[Filter, struct{}]

type Update struct {
	Name        *string
	Description *string
	Permissions *[]types.Id
	Allowees    *[]Allowee
}

type Repository struct {
	store        *repository.Store[*AccessConfig]
	byPermission *repository.Index[types.Id, *AccessConfig]
	byProfile    *repository.Index[types.Principal, *AccessConfig]
	byGroup      *repository.Index[types.Id, *AccessConfig]
	byName       *repository.Index[string, *AccessConfig]
}

func NewRepository() *Repository {
	r := &Repository{
		byPermission: repository.NewIndex(func(ac *AccessConfig) []types.Id {
			return ac.Permissions
		}),
		byProfile: repository.NewIndex(func(ac *AccessConfig) []types.Principal {
			var ret []types.Principal
			for _, a := range ac.Allowees {
				if a.Kind == AlloweeKindProfile {
					ret = append(ret, a.Profile)
				}
			}
			return ret
		}),
		byGroup: repository.NewIndex(func(ac *AccessConfig) []types.Id {
			var ret []types.Id
			for _, a := range ac.Allowees {
				if a.Kind == AlloweeKindGroup {
					ret = append(ret, a.Group)
				}
			}
			return ret
		}),
		byName: repository.NewIndex(func(ac *AccessConfig) []string {
			return []string{ac.Name}
		}),
	}
	r.store = repository.NewStore[*AccessConfig](
		r.byPermission,
		r.byProfile,
		r.byGroup,
		r.byName,
	)
	return r
}

func (r *Repository) Attach(j *repository.Journal) {
	r.store.Attach(j)
}

func (r *Repository) Export() ([]*AccessConfig, repository.IdGenerator) {
	return r.store.Export()
}

func (r *Repository) Import(items []*AccessConfig, idGen repository.IdGenerator) {
	r.store.Import(items, idGen)
}

func (r *Repository) Len() int {
	return r.store.Len()
}

func (r *Repository) checkName(ac *AccessConfig) error {
	for _, id := range r.byName.Lookup(ac.Name) {
		if id != ac.ID {
			return fmt.Errorf("%w: %q", ErrDuplicateName, ac.Name)
		}
	}
	return nil
}

func (r *Repository) Create(
	name string,
	description string,
	permissions []types.Id,
	allowees []Allowee,
) (*AccessConfig, error) {
	ac, err := New(name, description, permissions, allowees)
	if err != nil {
		return nil, err
	}
	if err := r.checkName(ac); err != nil {
		return nil, err
	}
	r.store.Save(ac)
	return ac, nil
}

func (r *Repository) Update(id types.Id, upd Update) (*AccessConfig, error) {
	ac, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if err := ac.setName(*upd.Name); err != nil {
			return nil, err
		}
	}
	if upd.Description != nil {
		if err := ac.setDescription(*upd.Description); err != nil {
			return nil, err
		}
	}
	if upd.Permissions != nil {
		ac.setPermissions(*upd.Permissions)
	}
	if upd.Allowees != nil {
		if err := ac.setAllowees(*upd.Allowees); err != nil {
			return nil, err
		}
	}
	if err := r.checkName(ac); err != nil {
		return nil, err
	}
	r.store.Save(ac)
	return ac, nil
}

func (r *Repository) Delete(id types.Id) (*AccessConfig, error) {
	ac, ok := r.store.Delete(id)
	if !ok {
		return nil, types.NewNotFoundError("access config", id)
	}
	return ac, nil
}

func (r *Repository) Get(id types.Id) (*AccessConfig, error) {
	ac, ok := r.store.Get(id)
	if !ok {
		return nil, types.NewNotFoundError("access config", id)
	}
	return ac, nil
}

// ByPermissions yields the configs bound to any of the permissions, each
// once, in ascending id order
func (r *Repository) ByPermissions(permissions []types.Id) iter.Seq[*AccessConfig] {
	var ids []types.Id
	for _, p := range permissions {
		ids = append(ids, r.byPermission.Lookup(p)...)
	}
	return r.store.ByIds(types.SortedUnique(ids))
}

// IdsByPermission returns the configs that still reference a permission
func (r *Repository) IdsByPermission(permission types.Id) []types.Id {
	return r.byPermission.Lookup(permission)
}

func (r *Repository) All() iter.Seq[*AccessConfig] {
	return r.store.All()
}

func (r *Repository) List(req PageRequest) repository.Page[*AccessConfig] {
	seq := r.store.All()
	switch {
	case req.Filter.Permission != nil:
		seq = r.store.ByIds(r.byPermission.Lookup(*req.Filter.Permission))
	case req.Filter.Profile != nil:
		seq = r.store.ByIds(r.byProfile.Lookup(*req.Filter.Profile))
	case req.Filter.Group != nil:
		seq = r.store.ByIds(r.byGroup.Lookup(*req.Filter.Group))
	}
	return repository.Paginate(seq, req)
}
