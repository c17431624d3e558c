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

// Package accessconfig binds sets of permissions to the callers allowed to
// exercise them.
package accessconfig

import (
	"cmp"
	"fmt"
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

type AlloweeKind uint8

const (
	AlloweeKindEveryone AlloweeKind = iota
	AlloweeKindProfile
	AlloweeKindGroup
)

// Allowee describes which callers an access config admits
type Allowee struct {
	Kind      AlloweeKind     `cbor:"1,keyasint"`
	Profile   types.Principal `cbor:"2,keyasint,omitempty"`
	Group     types.Id        `cbor:"3,keyasint,omitempty"`
	MinShares types.Shares    `cbor:"4,keyasint,omitempty"`
}

func Everyone() Allowee {
	return Allowee{Kind: AlloweeKindEveryone}
}

func ProfileAllowee(p types.Principal) Allowee {
	return Allowee{Kind: AlloweeKindProfile, Profile: p}
}

// GroupAllowee admits members of the group holding at least minShares
func GroupAllowee(group types.Id, minShares types.Shares) Allowee {
	return Allowee{Kind: AlloweeKindGroup, Group: group, MinShares: minShares}
}

func (a Allowee) String() string {
	switch a.Kind {
	case AlloweeKindEveryone:
		return "everyone"
	case AlloweeKindProfile:
		return "profile:" + string(a.Profile)
	case AlloweeKindGroup:
		return fmt.Sprintf("group:%d(min %d)", a.Group, a.MinShares)
	default:
		return fmt.Sprintf("unknown(%d)", a.Kind)
	}
}

func (a Allowee) Validate() error {
	switch a.Kind {
	case AlloweeKindEveryone:
		if a.Profile != "" || a.Group != 0 || a.MinShares != 0 {
			return types.NewValidationError("allowee", "everyone takes no arguments")
		}
	case AlloweeKindProfile:
		if a.Profile == "" || a.Group != 0 || a.MinShares != 0 {
			return types.NewValidationError("allowee", "profile allowee requires only a principal")
		}
	case AlloweeKindGroup:
		if a.Group == 0 || a.Profile != "" {
			return types.NewValidationError("allowee", "group allowee requires a group id")
		}
	default:
		return types.NewValidationError("allowee", a.String())
	}
	return nil
}

func compareAllowees(a, b Allowee) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Profile, b.Profile),
		cmp.Compare(a.Group, b.Group),
		cmp.Compare(a.MinShares, b.MinShares),
	)
}

type AccessConfig struct {
	repository.Model
	Name        string     `cbor:"2,keyasint"`
	Description string     `cbor:"3,keyasint"`
	Permissions []types.Id `cbor:"4,keyasint"`
	Allowees    []Allowee  `cbor:"5,keyasint"`
}

func New(
	name string,
	description string,
	permissions []types.Id,
	allowees []Allowee,
) (*AccessConfig, error) {
	ac := &AccessConfig{}
	if err := ac.setName(name); err != nil {
		return nil, err
	}
	if err := ac.setDescription(description); err != nil {
		return nil, err
	}
	ac.setPermissions(permissions)
	if err := ac.setAllowees(allowees); err != nil {
		return nil, err
	}
	return ac, nil
}

func (ac *AccessConfig) Clone() *AccessConfig {
	ret := *ac
	ret.Permissions = slices.Clone(ac.Permissions)
	ret.Allowees = slices.Clone(ac.Allowees)
	return &ret
}

func (ac *AccessConfig) setName(name string) error {
	trimmed, err := types.ValidateAndTrim(
		"access_config.name",
		name,
		NameMinLen,
		NameMaxLen,
	)
	if err != nil {
		return err
	}
	ac.Name = trimmed
	return nil
}

func (ac *AccessConfig) setDescription(description string) error {
	trimmed, err := types.ValidateAndTrim(
		"access_config.description",
		description,
		DescriptionMinLen,
		DescriptionMaxLen,
	)
	if err != nil {
		return err
	}
	ac.Description = trimmed
	return nil
}

func (ac *AccessConfig) setPermissions(permissions []types.Id) {
	ac.Permissions = types.SortedUnique(permissions)
}

func (ac *AccessConfig) setAllowees(allowees []Allowee) error {
	if len(allowees) == 0 {
		return types.NewValidationError("access_config.allowees", "must not be empty")
	}
	for _, a := range allowees {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	ret := slices.Clone(allowees)
	slices.SortFunc(ret, compareAllowees)
	ac.Allowees = slices.Compact(ret)
	return nil
}

func (ac *AccessConfig) HasPermission(id types.Id) bool {
	_, found := slices.BinarySearch(ac.Permissions, id)
	return found
}
