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

// Package repository provides the in-memory entity stores backing the
// governance state.
package repository

import (
	"fmt"

	"github.com/blinklabs-io/guild/types"
)

// Entity is implemented by every stored model
type Entity[T any] interface {
	GetID() types.Id
	SetID(types.Id)
	Clone() T
}

// Model is embedded into stored entities to carry their id
type Model struct {
	ID types.Id `cbor:"1,keyasint"`
}

func (m *Model) GetID() types.Id {
	return m.ID
}

// SetID assigns the id of a transient entity. Assigning an id to an already
// persisted entity is an invariant violation.
func (m *Model) SetID(id types.Id) {
	if m.ID != 0 {
		panic(types.NewDataIntegrityFault(
			fmt.Sprintf("entity id already set: %d", m.ID),
		))
	}
	if id == 0 {
		panic(types.NewDataIntegrityFault("cannot assign zero entity id"))
	}
	m.ID = id
}

func (m *Model) IsTransient() bool {
	return m.ID == 0
}

// IdGenerator hands out monotonically increasing ids starting at 1
type IdGenerator struct {
	Last types.Id `cbor:"1,keyasint"`
}

func (g *IdGenerator) Generate() types.Id {
	g.Last++
	return g.Last
}
