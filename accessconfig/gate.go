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
	"cmp"
	"slices"

	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/types"
)

// GroupRequirement is an allowee constraint that can only be judged against
// the caller's share balance in a group
type GroupRequirement struct {
	AccessConfig types.Id
	Group        types.Id
	MinShares    types.Shares
}

// Decision is the result of the lock-held part of an authorization check.
// When Allowed is false the caller may still be admitted through one of the
// group requirements, which need ledger balances to resolve.
type Decision struct {
	Allowed bool
	Groups  []GroupRequirement
}

// GroupIds returns the distinct groups whose balances are needed
func (d Decision) GroupIds() []types.Id {
	ids := make([]types.Id, 0, len(d.Groups))
	for _, g := range d.Groups {
		ids = append(ids, g.Group)
	}
	return types.SortedUnique(ids)
}

// SatisfiedBy resolves the group requirements using the caller's balances
func (d Decision) SatisfiedBy(balances map[types.Id]types.Shares) bool {
	if d.Allowed {
		return true
	}
	for _, g := range d.Groups {
		bal, ok := balances[g.Group]
		if ok && bal >= g.MinShares {
			return true
		}
	}
	return false
}

// Gate answers whether a caller may perform an action
type Gate struct {
	permissions *permission.Repository
	configs     *Repository
}

func NewGate(permissions *permission.Repository, configs *Repository) *Gate {
	return &Gate{
		permissions: permissions,
		configs:     configs,
	}
}

// CheckProgram admits the caller when an access config bound to a
// permission allowing the program lists the caller
func (g *Gate) CheckProgram(caller types.Principal, program types.Program) Decision {
	var allowing []types.Id
	for p := range g.permissions.All() {
		if p.AllowsProgram(program) {
			allowing = append(allowing, p.ID)
		}
	}
	return g.CheckPermissions(caller, allowing)
}

// CheckEndpoint is CheckProgram for a single call
func (g *Gate) CheckEndpoint(caller types.Principal, endpoint types.Endpoint) Decision {
	return g.CheckProgram(
		caller,
		types.CallSequence(types.RemoteCall{Endpoint: endpoint}),
	)
}

// CheckPermissions admits the caller when an access config bound to any of
// the permissions lists the caller
func (g *Gate) CheckPermissions(caller types.Principal, permissions []types.Id) Decision {
	var ret Decision
	for ac := range g.configs.ByPermissions(permissions) {
		for _, a := range ac.Allowees {
			switch a.Kind {
			case AlloweeKindEveryone:
				return Decision{Allowed: true}
			case AlloweeKindProfile:
				if a.Profile == caller {
					return Decision{Allowed: true}
				}
			case AlloweeKindGroup:
				ret.Groups = append(ret.Groups, GroupRequirement{
					AccessConfig: ac.ID,
					Group:        a.Group,
					MinShares:    a.MinShares,
				})
			}
		}
	}
	return ret
}

// Electorate returns the scopes named by the allowees of the configs bound
// to any of the permissions. Everyone allowees name no scope.
func (g *Gate) Electorate(permissions []types.Id) []types.GroupOrProfile {
	var ret []types.GroupOrProfile
	for ac := range g.configs.ByPermissions(permissions) {
		for _, a := range ac.Allowees {
			var gop types.GroupOrProfile
			switch a.Kind {
			case AlloweeKindProfile:
				gop = types.Profile(a.Profile)
			case AlloweeKindGroup:
				gop = types.Group(a.Group)
			default:
				continue
			}
			if !slices.Contains(ret, gop) {
				ret = append(ret, gop)
			}
		}
	}
	slices.SortFunc(ret, func(a, b types.GroupOrProfile) int {
		return cmp.Compare(a.String(), b.String())
	})
	return ret
}
