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

package repository

import (
	"fmt"
	"iter"
	"slices"

	"github.com/blinklabs-io/guild/types"
)

// Store is an ordered in-memory table of entities. Values are cloned on the
// way in and on the way out so callers never share memory with the store.
type Store[T Entity[T]] struct {
	items   map[types.Id]T
	ids     []types.Id
	idGen   IdGenerator
	indexes []Indexer[T]
	journal *Journal
}

func NewStore[T Entity[T]](indexes ...Indexer[T]) *Store[T] {
	return &Store[T]{
		items:   make(map[types.Id]T),
		indexes: indexes,
	}
}

// Attach makes the store record undo steps for its changes in j. A nil j
// stops recording.
func (s *Store[T]) Attach(j *Journal) {
	s.journal = j
}

func (s *Store[T]) Len() int {
	return len(s.items)
}

// Save inserts a transient entity, assigning it a fresh id, or replaces an
// existing one. Secondary indexes are updated with the difference between
// the stored and the new value.
func (s *Store[T]) Save(item T) types.Id {
	lastId := s.idGen.Last
	id := item.GetID()
	if id == 0 {
		id = s.idGen.Generate()
		item.SetID(id)
	}
	stored := item.Clone()
	prev, exists := s.items[id]
	if exists {
		s.journal.record(func() { s.put(id, prev) })
	} else {
		if id > s.idGen.Last {
			panic(types.NewDataIntegrityFault(
				fmt.Sprintf("entity id %d was never generated", id),
			))
		}
		s.journal.record(func() {
			s.remove(id)
			s.idGen.Last = lastId
		})
	}
	s.put(id, stored)
	return id
}

// put stores item under id and keeps the indexes in step
func (s *Store[T]) put(id types.Id, item T) {
	prev, exists := s.items[id]
	if exists {
		for _, ix := range s.indexes {
			ix.update(id, prev, item)
		}
	} else {
		pos, _ := slices.BinarySearch(s.ids, id)
		s.ids = slices.Insert(s.ids, pos, id)
		for _, ix := range s.indexes {
			ix.add(id, item)
		}
	}
	s.items[id] = item
}

func (s *Store[T]) remove(id types.Id) (T, bool) {
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	for _, ix := range s.indexes {
		ix.remove(id, item)
	}
	delete(s.items, id)
	if pos, found := slices.BinarySearch(s.ids, id); found {
		s.ids = slices.Delete(s.ids, pos, pos+1)
	}
	return item, true
}

// Get returns a copy of the entity with the given id
func (s *Store[T]) Get(id types.Id) (T, bool) {
	item, ok := s.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return item.Clone(), true
}

func (s *Store[T]) Has(id types.Id) bool {
	_, ok := s.items[id]
	return ok
}

// Delete removes the entity and returns its last stored value
func (s *Store[T]) Delete(id types.Id) (T, bool) {
	item, ok := s.remove(id)
	if ok && s.journal != nil {
		kept := item.Clone()
		s.journal.record(func() { s.put(id, kept) })
	}
	return item, ok
}

// All yields copies of every entity in ascending id order
func (s *Store[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, id := range s.ids {
			if !yield(s.items[id].Clone()) {
				return
			}
		}
	}
}

// ByIds yields copies of the entities with the given ids, skipping any that
// are missing
func (s *Store[T]) ByIds(ids []types.Id) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, id := range ids {
			item, ok := s.items[id]
			if !ok {
				continue
			}
			if !yield(item.Clone()) {
				return
			}
		}
	}
}

// Export returns the full contents of the store for snapshotting
func (s *Store[T]) Export() ([]T, IdGenerator) {
	return slices.Collect(s.All()), s.idGen
}

// Import replaces the store contents and rebuilds every secondary index
func (s *Store[T]) Import(items []T, idGen IdGenerator) {
	s.items = make(map[types.Id]T, len(items))
	s.ids = make([]types.Id, 0, len(items))
	s.idGen = idGen
	for _, ix := range s.indexes {
		ix.reset()
	}
	for _, item := range items {
		id := item.GetID()
		if id == 0 || id > idGen.Last {
			panic(types.NewDataIntegrityFault(
				fmt.Sprintf("imported entity has invalid id %d", id),
			))
		}
		if _, ok := s.items[id]; ok {
			panic(types.NewDataIntegrityFault(
				fmt.Sprintf("imported entity id %d is duplicated", id),
			))
		}
		stored := item.Clone()
		s.items[id] = stored
		s.ids = append(s.ids, id)
		for _, ix := range s.indexes {
			ix.add(id, stored)
		}
	}
	slices.Sort(s.ids)
}
