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

// Package types holds the identifiers and value types shared by every
// governance package.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Id identifies an entity within its repository. The zero value marks an
// entity that has not been persisted yet.
type Id uint64

// Principal is an opaque caller identity
type Principal string

// Shares is a non-negative quantity of voting power
type Shares uint64

// Add returns s+o and aborts on overflow
func (s Shares) Add(o Shares) Shares {
	r := s + o
	if r < s {
		panic(NewDataIntegrityFault(
			fmt.Sprintf("shares overflow: %d + %d", s, o),
		))
	}
	return r
}

// Sub returns s-o and aborts on underflow
func (s Shares) Sub(o Shares) Shares {
	if o > s {
		panic(NewDataIntegrityFault(
			fmt.Sprintf("shares underflow: %d - %d", s, o),
		))
	}
	return s - o
}

type GroupOrProfileKind uint8

const (
	GroupOrProfileKindGroup GroupOrProfileKind = iota + 1
	GroupOrProfileKindProfile
)

// GroupOrProfile identifies the scope a share balance is measured in: either
// a token group or an individual profile
type GroupOrProfile struct {
	Kind    GroupOrProfileKind
	Group   Id
	Profile Principal
}

func Group(id Id) GroupOrProfile {
	return GroupOrProfile{Kind: GroupOrProfileKindGroup, Group: id}
}

func Profile(p Principal) GroupOrProfile {
	return GroupOrProfile{Kind: GroupOrProfileKindProfile, Profile: p}
}

func (g GroupOrProfile) IsGroup() bool {
	return g.Kind == GroupOrProfileKindGroup
}

func (g GroupOrProfile) IsProfile() bool {
	return g.Kind == GroupOrProfileKindProfile
}

func (g GroupOrProfile) String() string {
	switch g.Kind {
	case GroupOrProfileKindGroup:
		return "group:" + strconv.FormatUint(uint64(g.Group), 10)
	case GroupOrProfileKindProfile:
		return "profile:" + string(g.Profile)
	default:
		return "invalid"
	}
}

// MarshalText allows GroupOrProfile to be used as a map key in encoded
// snapshots
func (g GroupOrProfile) MarshalText() ([]byte, error) {
	switch g.Kind {
	case GroupOrProfileKindGroup, GroupOrProfileKindProfile:
		return []byte(g.String()), nil
	default:
		return nil, fmt.Errorf("invalid group or profile kind: %d", g.Kind)
	}
}

func (g *GroupOrProfile) UnmarshalText(data []byte) error {
	kind, value, ok := strings.Cut(string(data), ":")
	if !ok {
		return fmt.Errorf("invalid group or profile: %q", string(data))
	}
	switch kind {
	case "group":
		id, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid group id: %w", err)
		}
		*g = Group(Id(id))
	case "profile":
		if value == "" {
			return errors.New("empty profile principal")
		}
		*g = Profile(Principal(value))
	default:
		return fmt.Errorf("invalid group or profile kind: %q", kind)
	}
	return nil
}
