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
	"slices"

	"github.com/blinklabs-io/guild/types"
)

// Indexer keeps a secondary index in sync with a Store
type Indexer[T any] interface {
	add(id types.Id, item T)
	remove(id types.Id, item T)
	update(id types.Id, prev T, cur T)
	reset()
}

// Index maps keys extracted from an entity to the ids of entities carrying
// them
type Index[K comparable, T any] struct {
	keysFunc func(T) []K
	entries  map[K]map[types.Id]struct{}
}

func NewIndex[K comparable, T any](keysFunc func(T) []K) *Index[K, T] {
	return &Index[K, T]{
		keysFunc: keysFunc,
		entries:  make(map[K]map[types.Id]struct{}),
	}
}

// Lookup returns the ids indexed under key in ascending order
func (ix *Index[K, T]) Lookup(key K) []types.Id {
	set := ix.entries[key]
	if len(set) == 0 {
		return nil
	}
	ret := make([]types.Id, 0, len(set))
	for id := range set {
		ret = append(ret, id)
	}
	slices.Sort(ret)
	return ret
}

func (ix *Index[K, T]) Contains(key K, id types.Id) bool {
	_, ok := ix.entries[key][id]
	return ok
}

func (ix *Index[K, T]) Count(key K) int {
	return len(ix.entries[key])
}

// Keys returns every key that currently has at least one entry
func (ix *Index[K, T]) Keys() []K {
	ret := make([]K, 0, len(ix.entries))
	for k := range ix.entries {
		ret = append(ret, k)
	}
	return ret
}

func (ix *Index[K, T]) addKeys(id types.Id, keys []K) {
	for _, k := range keys {
		set, ok := ix.entries[k]
		if !ok {
			set = make(map[types.Id]struct{})
			ix.entries[k] = set
		}
		set[id] = struct{}{}
	}
}

func (ix *Index[K, T]) removeKeys(id types.Id, keys []K) {
	for _, k := range keys {
		set, ok := ix.entries[k]
		if !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(ix.entries, k)
		}
	}
}

func (ix *Index[K, T]) add(id types.Id, item T) {
	ix.addKeys(id, ix.keysFunc(item))
}

func (ix *Index[K, T]) remove(id types.Id, item T) {
	ix.removeKeys(id, ix.keysFunc(item))
}

// update applies only the difference between the previous and current keys
func (ix *Index[K, T]) update(id types.Id, prev T, cur T) {
	prevKeys := ix.keysFunc(prev)
	curKeys := ix.keysFunc(cur)
	prevSet := make(map[K]struct{}, len(prevKeys))
	for _, k := range prevKeys {
		prevSet[k] = struct{}{}
	}
	curSet := make(map[K]struct{}, len(curKeys))
	for _, k := range curKeys {
		curSet[k] = struct{}{}
	}
	var removed, added []K
	for k := range prevSet {
		if _, ok := curSet[k]; !ok {
			removed = append(removed, k)
		}
	}
	for k := range curSet {
		if _, ok := prevSet[k]; !ok {
			added = append(added, k)
		}
	}
	ix.removeKeys(id, removed)
	ix.addKeys(id, added)
}

func (ix *Index[K, T]) reset() {
	ix.entries = make(map[K]map[types.Id]struct{})
}
