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
	"cmp"
	"fmt"
	"slices"

	"github.com/blinklabs-io/guild/repository"
	"github.com/blinklabs-io/guild/types"
)

const (
	NameMinLen = 1
	NameMaxLen = 100
)

type Scope uint8

const (
	ScopeWhitelist Scope = iota
	ScopeBlacklist
)

func (s Scope) String() string {
	switch s {
	case ScopeWhitelist:
		return "whitelist"
	case ScopeBlacklist:
		return "blacklist"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

func (s Scope) Validate() error {
	switch s {
	case ScopeWhitelist, ScopeBlacklist:
		return nil
	default:
		return types.NewValidationError("scope", "unknown scope "+s.String())
	}
}

type TargetKind uint8

const (
	TargetKindSelfEmptyProgram TargetKind = iota
	TargetKindRemoteActor
	TargetKindEndpoint
)

// Target is the unit a permission matches against. It is comparable and is
// used directly as a key in the reverse index.
type Target struct {
	Kind   TargetKind      `cbor:"1,keyasint"`
	Actor  types.Principal `cbor:"2,keyasint,omitempty"`
	Method string          `cbor:"3,keyasint,omitempty"`
}

func SelfEmptyProgram() Target {
	return Target{Kind: TargetKindSelfEmptyProgram}
}

func RemoteActor(actor types.Principal) Target {
	return Target{Kind: TargetKindRemoteActor, Actor: actor}
}

func EndpointTarget(e types.Endpoint) Target {
	return Target{
		Kind:   TargetKindEndpoint,
		Actor:  e.Actor,
		Method: e.Method,
	}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetKindSelfEmptyProgram:
		return "self-empty-program"
	case TargetKindRemoteActor:
		return "actor:" + string(t.Actor)
	case TargetKindEndpoint:
		return fmt.Sprintf("endpoint:%s.%s", t.Actor, t.Method)
	default:
		return fmt.Sprintf("unknown(%d)", t.Kind)
	}
}

func (t Target) Validate() error {
	switch t.Kind {
	case TargetKindSelfEmptyProgram:
		if t.Actor != "" || t.Method != "" {
			return types.NewValidationError(
				"target",
				"self empty program target must not name an actor",
			)
		}
	case TargetKindRemoteActor:
		if t.Actor == "" || t.Method != "" {
			return types.NewValidationError(
				"target",
				"remote actor target requires only an actor",
			)
		}
	case TargetKindEndpoint:
		if t.Actor == "" || t.Method == "" {
			return types.NewValidationError(
				"target",
				"endpoint target requires an actor and a method",
			)
		}
	default:
		return types.NewValidationError("target", t.String())
	}
	return nil
}

func compareTargets(a, b Target) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Actor, b.Actor),
		cmp.Compare(a.Method, b.Method),
	)
}

// normalizeTargets sorts and de-duplicates targets so the slice behaves as a
// set
func normalizeTargets(targets []Target) []Target {
	ret := slices.Clone(targets)
	slices.SortFunc(ret, compareTargets)
	return slices.Compact(ret)
}

type Permission struct {
	repository.Model
	Name    string   `cbor:"2,keyasint"`
	Targets []Target `cbor:"3,keyasint"`
	Scope   Scope    `cbor:"4,keyasint"`
}

// New validates its inputs and returns a transient permission
func New(name string, targets []Target, scope Scope) (*Permission, error) {
	p := &Permission{}
	if err := p.setName(name); err != nil {
		return nil, err
	}
	if err := p.setTargets(targets); err != nil {
		return nil, err
	}
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	p.Scope = scope
	return p, nil
}

func (p *Permission) Clone() *Permission {
	ret := *p
	ret.Targets = slices.Clone(p.Targets)
	return &ret
}

func (p *Permission) setName(name string) error {
	trimmed, err := types.ValidateAndTrim(
		"permission.name",
		name,
		NameMinLen,
		NameMaxLen,
	)
	if err != nil {
		return err
	}
	p.Name = trimmed
	return nil
}

func (p *Permission) setTargets(targets []Target) error {
	for _, t := range targets {
		if err := t.Validate(); err != nil {
			return err
		}
	}
	p.Targets = normalizeTargets(targets)
	return nil
}

func (p *Permission) HasTarget(t Target) bool {
	_, found := slices.BinarySearchFunc(p.Targets, t, compareTargets)
	return found
}

// IsTarget reports whether the endpoint is covered by the permission. A nil
// endpoint stands for the empty program. The raw match is inverted for
// blacklist permissions.
func (p *Permission) IsTarget(endpoint *types.Endpoint) bool {
	var matched bool
	if endpoint == nil {
		matched = p.HasTarget(SelfEmptyProgram())
	} else {
		matched = p.HasTarget(EndpointTarget(*endpoint)) ||
			p.HasTarget(RemoteActor(endpoint.Actor))
	}
	if p.Scope == ScopeBlacklist {
		return !matched
	}
	return matched
}

// AllowsProgram requires every call of the program to be a target
func (p *Permission) AllowsProgram(program types.Program) bool {
	if program.IsEmpty() {
		return p.IsTarget(nil)
	}
	for i := range program.Calls {
		if !p.IsTarget(&program.Calls[i].Endpoint) {
			return false
		}
	}
	return true
}
