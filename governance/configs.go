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
	"context"
	"fmt"

	"github.com/blinklabs-io/guild/accessconfig"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
	"github.com/blinklabs-io/guild/votingconfig"
)

// Wallet endpoints guarding administrative operations
const (
	MethodCreatePermission   = "create_permission"
	MethodUpdatePermission   = "update_permission"
	MethodRemovePermission   = "remove_permission"
	MethodCreateAccessConfig = "create_access_config"
	MethodUpdateAccessConfig = "update_access_config"
	MethodDeleteAccessConfig = "delete_access_config"
	MethodCreateVotingConfig = "create_voting_config"
	MethodUpdateVotingConfig = "update_voting_config"
	MethodDeleteVotingConfig = "delete_voting_config"
)

func (s *Service) CreatePermission(
	ctx context.Context,
	caller types.Principal,
	name string,
	targets []permission.Target,
	scope permission.Scope,
) (types.Id, error) {
	var id types.Id
	err := s.mutate(
		ctx,
		MethodCreatePermission,
		caller,
		s.adminAuthz(MethodCreatePermission),
		func(tx *txn) error {
			p, err := tx.Permissions.Create(name, targets, scope)
			if err != nil {
				return err
			}
			id = p.ID
			tx.emit(
				event.PermissionCreatedEventType,
				event.EntityEvent{Id: p.ID, Name: p.Name, Caller: caller},
			)
			return nil
		},
	)
	return id, err
}

func (s *Service) UpdatePermission(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
	upd permission.Update,
) error {
	return s.mutate(
		ctx,
		MethodUpdatePermission,
		caller,
		s.adminAuthz(MethodUpdatePermission),
		func(tx *txn) error {
			p, err := tx.Permissions.Update(id, upd)
			if err != nil {
				return err
			}
			tx.emit(
				event.PermissionUpdatedEventType,
				event.EntityEvent{Id: p.ID, Name: p.Name, Caller: caller},
			)
			return nil
		},
	)
}

// RemovePermission deletes a permission no access config or voting config
// refers to
func (s *Service) RemovePermission(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	return s.mutate(
		ctx,
		MethodRemovePermission,
		caller,
		s.adminAuthz(MethodRemovePermission),
		func(tx *txn) error {
			if !tx.Permissions.Exists(id) {
				return types.NewNotFoundError("permission", id)
			}
			if n := len(tx.AccessConfigs.IdsByPermission(id)); n > 0 {
				return fmt.Errorf("%w: %d access configs", ErrPermissionInUse, n)
			}
			if n := len(tx.VotingConfigs.IdsByPermission(id)); n > 0 {
				return fmt.Errorf("%w: %d voting configs", ErrPermissionInUse, n)
			}
			p, err := tx.Permissions.Remove(id)
			if err != nil {
				return err
			}
			tx.emit(
				event.PermissionRemovedEventType,
				event.EntityEvent{Id: p.ID, Name: p.Name, Caller: caller},
			)
			return nil
		},
	)
}

func (s *Service) GetPermission(ctx context.Context, id types.Id) (*permission.Permission, error) {
	var ret *permission.Permission
	err := s.run(ctx, "get_permission", "", func(context.Context) error {
		return s.view(func(st *State) error {
			var err error
			ret, err = st.Permissions.Get(id)
			return err
		})
	})
	return ret, err
}

func (s *Service) ListPermissions(
	ctx context.Context,
	req permission.PageRequest,
) (repository.Page[*permission.Permission], error) {
	var ret repository.Page[*permission.Permission]
	err := s.run(ctx, "list_permissions", "", func(context.Context) error {
		return s.view(func(st *State) error {
			ret = st.Permissions.List(req)
			return nil
		})
	})
	return ret, err
}

func (s *Service) CreateAccessConfig(
	ctx context.Context,
	caller types.Principal,
	name string,
	description string,
	permissions []types.Id,
	allowees []accessconfig.Allowee,
) (types.Id, error) {
	var id types.Id
	err := s.mutate(
		ctx,
		MethodCreateAccessConfig,
		caller,
		s.adminAuthz(MethodCreateAccessConfig),
		func(tx *txn) error {
			if err := requirePermissions(tx.State, permissions); err != nil {
				return err
			}
			ac, err := tx.AccessConfigs.Create(name, description, permissions, allowees)
			if err != nil {
				return err
			}
			id = ac.ID
			tx.emit(
				event.AccessConfigCreatedEventType,
				event.EntityEvent{Id: ac.ID, Name: ac.Name, Caller: caller},
			)
			return nil
		},
	)
	return id, err
}

func (s *Service) UpdateAccessConfig(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
	upd accessconfig.Update,
) error {
	return s.mutate(
		ctx,
		MethodUpdateAccessConfig,
		caller,
		s.adminAuthz(MethodUpdateAccessConfig),
		func(tx *txn) error {
			if upd.Permissions != nil {
				if err := requirePermissions(tx.State, *upd.Permissions); err != nil {
					return err
				}
			}
			ac, err := tx.AccessConfigs.Update(id, upd)
			if err != nil {
				return err
			}
			tx.emit(
				event.AccessConfigUpdatedEventType,
				event.EntityEvent{Id: ac.ID, Name: ac.Name, Caller: caller},
			)
			return nil
		},
	)
}

func (s *Service) DeleteAccessConfig(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	return s.mutate(
		ctx,
		MethodDeleteAccessConfig,
		caller,
		s.adminAuthz(MethodDeleteAccessConfig),
		func(tx *txn) error {
			if _, err := tx.AccessConfigs.Get(id); err != nil {
				return err
			}
			if tx.AccessConfigs.Len() == 1 {
				return ErrLastAccessConfig
			}
			ac, err := tx.AccessConfigs.Delete(id)
			if err != nil {
				return err
			}
			tx.emit(
				event.AccessConfigDeletedEventType,
				event.EntityEvent{Id: ac.ID, Name: ac.Name, Caller: caller},
			)
			return nil
		},
	)
}

func (s *Service) GetAccessConfig(ctx context.Context, id types.Id) (*accessconfig.AccessConfig, error) {
	var ret *accessconfig.AccessConfig
	err := s.run(ctx, "get_access_config", "", func(context.Context) error {
		return s.view(func(st *State) error {
			var err error
			ret, err = st.AccessConfigs.Get(id)
			return err
		})
	})
	return ret, err
}

func (s *Service) ListAccessConfigs(
	ctx context.Context,
	req accessconfig.PageRequest,
) (repository.Page[*accessconfig.AccessConfig], error) {
	var ret repository.Page[*accessconfig.AccessConfig]
	err := s.run(ctx, "list_access_configs", "", func(context.Context) error {
		return s.view(func(st *State) error {
			ret = st.AccessConfigs.List(req)
			return nil
		})
	})
	return ret, err
}

func (s *Service) CreateVotingConfig(
	ctx context.Context,
	caller types.Principal,
	params votingconfig.Params,
) (types.Id, error) {
	var id types.Id
	err := s.mutate(
		ctx,
		MethodCreateVotingConfig,
		caller,
		s.adminAuthz(MethodCreateVotingConfig),
		func(tx *txn) error {
			if err := requirePermissions(tx.State, params.Permissions); err != nil {
				return err
			}
			vc, err := tx.VotingConfigs.Create(params)
			if err != nil {
				return err
			}
			id = vc.ID
			tx.emit(
				event.VotingConfigCreatedEventType,
				event.EntityEvent{Id: vc.ID, Name: vc.Name, Caller: caller},
			)
			return nil
		},
	)
	return id, err
}

// UpdateVotingConfig changes a voting config. Votings already bound to it
// are judged by the new rules from their next resolution on.
func (s *Service) UpdateVotingConfig(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
	upd votingconfig.Update,
) error {
	return s.mutate(
		ctx,
		MethodUpdateVotingConfig,
		caller,
		s.adminAuthz(MethodUpdateVotingConfig),
		func(tx *txn) error {
			if upd.Permissions != nil {
				if err := requirePermissions(tx.State, *upd.Permissions); err != nil {
					return err
				}
			}
			vc, err := tx.VotingConfigs.Update(id, upd)
			if err != nil {
				return err
			}
			tx.emit(
				event.VotingConfigUpdatedEventType,
				event.EntityEvent{Id: vc.ID, Name: vc.Name, Caller: caller},
			)
			return nil
		},
	)
}

func (s *Service) DeleteVotingConfig(
	ctx context.Context,
	caller types.Principal,
	id types.Id,
) error {
	return s.mutate(
		ctx,
		MethodDeleteVotingConfig,
		caller,
		s.adminAuthz(MethodDeleteVotingConfig),
		func(tx *txn) error {
			if _, err := tx.VotingConfigs.Get(id); err != nil {
				return err
			}
			if n := len(tx.Votings.IdsByConfig(id)); n > 0 {
				return fmt.Errorf("%w: %d votings", ErrVotingConfigInUse, n)
			}
			vc, err := tx.VotingConfigs.Delete(id)
			if err != nil {
				return err
			}
			tx.emit(
				event.VotingConfigDeletedEventType,
				event.EntityEvent{Id: vc.ID, Name: vc.Name, Caller: caller},
			)
			return nil
		},
	)
}

func (s *Service) GetVotingConfig(ctx context.Context, id types.Id) (*votingconfig.VotingConfig, error) {
	var ret *votingconfig.VotingConfig
	err := s.run(ctx, "get_voting_config", "", func(context.Context) error {
		return s.view(func(st *State) error {
			var err error
			ret, err = st.VotingConfigs.Get(id)
			return err
		})
	})
	return ret, err
}

func (s *Service) ListVotingConfigs(
	ctx context.Context,
	req votingconfig.PageRequest,
) (repository.Page[*votingconfig.VotingConfig], error) {
	var ret repository.Page[*votingconfig.VotingConfig]
	err := s.run(ctx, "list_voting_configs", "", func(context.Context) error {
		return s.view(func(st *State) error {
			ret = st.VotingConfigs.List(req)
			return nil
		})
	})
	return ret, err
}
