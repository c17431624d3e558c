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
	"testing"

	"github.com/blinklabs-io/guild/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Model
	Name string
	Tags []string
}

func (i *testItem) Clone() *testItem {
	ret := *i
	ret.Tags = slices.Clone(i.Tags)
	return &ret
}

func newTestStore() (*Store[*testItem], *Index[string, *testItem]) {
	byTag := NewIndex(func(i *testItem) []string { return i.Tags })
	return NewStore[*testItem](byTag), byTag
}

func TestStoreSaveAssignsIds(t *testing.T) {
	store, _ := newTestStore()
	a := &testItem{Name: "a"}
	b := &testItem{Name: "b"}
	assert.Equal(t, types.Id(1), store.Save(a))
	assert.Equal(t, types.Id(2), store.Save(b))
	assert.Equal(t, types.Id(1), a.GetID())
	assert.Equal(t, 2, store.Len())

	// stored values are copies
	a.Name = "changed"
	got, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", got.Name)
	got.Name = "also changed"
	got2, _ := store.Get(1)
	assert.Equal(t, "a", got2.Name)
}

func TestModelSetIDTwicePanics(t *testing.T) {
	item := &testItem{}
	item.SetID(3)
	assert.Panics(t, func() { item.SetID(4) })
	assert.Panics(t, func() { (&testItem{}).SetID(0) })
}

func TestStoreDeletedIdsAreNotReused(t *testing.T) {
	store, _ := newTestStore()
	store.Save(&testItem{Name: "a"})
	store.Save(&testItem{Name: "b"})
	_, ok := store.Delete(2)
	require.True(t, ok)
	assert.Equal(t, types.Id(3), store.Save(&testItem{Name: "c"}))
	_, ok = store.Delete(2)
	assert.False(t, ok)
}

func TestIndexConsistency(t *testing.T) {
	store, byTag := newTestStore()
	id := store.Save(&testItem{Tags: []string{"x", "y"}})
	store.Save(&testItem{Tags: []string{"y"}})
	assert.Equal(t, []types.Id{1, 2}, byTag.Lookup("y"))

	item, _ := store.Get(id)
	item.Tags = []string{"y", "z"}
	store.Save(item)
	assert.Empty(t, byTag.Lookup("x"))
	assert.Equal(t, []types.Id{1}, byTag.Lookup("z"))
	assert.Equal(t, []types.Id{1, 2}, byTag.Lookup("y"))

	store.Delete(id)
	assert.Equal(t, []types.Id{2}, byTag.Lookup("y"))
	assert.Empty(t, byTag.Lookup("z"))
	assert.ElementsMatch(t, []string{"y"}, byTag.Keys())
}

func TestStoreExportImport(t *testing.T) {
	store, _ := newTestStore()
	store.Save(&testItem{Name: "a", Tags: []string{"t"}})
	store.Save(&testItem{Name: "b", Tags: []string{"t"}})
	store.Save(&testItem{Name: "c"})
	store.Delete(2)
	items, gen := store.Export()

	restored, byTag := newTestStore()
	restored.Import(items, gen)
	assert.Equal(t, 2, restored.Len())
	assert.Equal(t, []types.Id{1}, byTag.Lookup("t"))
	assert.Equal(t, types.Id(4), restored.Save(&testItem{Name: "d"}))

	assert.Panics(t, func() {
		restored.Import([]*testItem{{Model: Model{ID: 9}}}, IdGenerator{Last: 2})
	})
}

func TestPaginate(t *testing.T) {
	store, _ := newTestStore()
	for range 5 {
		store.Save(&testItem{})
	}
	tests := []struct {
		name    string
		index   int
		size    int
		ids     []types.Id
		hasNext bool
	}{
		{name: "first page", index: 0, size: 2, ids: []types.Id{1, 2}, hasNext: true},
		{name: "middle page", index: 1, size: 2, ids: []types.Id{3, 4}, hasNext: true},
		{name: "last page", index: 2, size: 2, ids: []types.Id{5}, hasNext: false},
		{name: "exact fit", index: 0, size: 5, ids: []types.Id{1, 2, 3, 4, 5}, hasNext: false},
		{name: "past the end", index: 10, size: 2, ids: nil, hasNext: false},
		{name: "zero page size", index: 0, size: 0, ids: nil, hasNext: false},
		{name: "negative page size", index: 1, size: -3, ids: nil, hasNext: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			page := Paginate(
				store.All(),
				PageRequest[struct{}, struct{}]{
					PageIndex: test.index,
					PageSize:  test.size,
				},
			)
			var ids []types.Id
			for _, item := range page.Data {
				ids = append(ids, item.GetID())
			}
			assert.Equal(t, test.ids, ids)
			assert.Equal(t, test.hasNext, page.HasNext)
		})
	}
}

func TestJournalRollback(t *testing.T) {
	store, byTag := newTestStore()
	store.Save(&testItem{Name: "a", Tags: []string{"x"}})
	store.Save(&testItem{Name: "b", Tags: []string{"y"}})
	var journal Journal
	store.Attach(&journal)

	a, _ := store.Get(1)
	a.Name = "a2"
	a.Tags = []string{"z"}
	store.Save(a)
	store.Delete(2)
	assert.Equal(t, types.Id(3), store.Save(&testItem{Name: "c", Tags: []string{"x"}}))
	// the same entity changed twice in one operation
	c, _ := store.Get(3)
	c.Tags = nil
	store.Save(c)
	assert.Equal(t, 4, journal.Len())

	journal.Rollback()
	assert.Equal(t, 0, journal.Len())
	assert.Equal(t, 2, store.Len())
	a, ok := store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "a", a.Name)
	b, ok := store.Get(2)
	require.True(t, ok)
	assert.Equal(t, "b", b.Name)
	assert.False(t, store.Has(3))
	assert.Equal(t, []types.Id{1}, byTag.Lookup("x"))
	assert.Equal(t, []types.Id{2}, byTag.Lookup("y"))
	assert.Empty(t, byTag.Lookup("z"))
	var ids []types.Id
	for item := range store.All() {
		ids = append(ids, item.GetID())
	}
	assert.Equal(t, []types.Id{1, 2}, ids)
	// the id handed out by the rolled back save is handed out again
	assert.Equal(t, types.Id(3), store.Save(&testItem{Name: "d"}))
}

func TestJournalCommit(t *testing.T) {
	store, byTag := newTestStore()
	var journal Journal
	store.Attach(&journal)
	store.Save(&testItem{Name: "a", Tags: []string{"x"}})
	journal.Commit()
	assert.Equal(t, 0, journal.Len())

	store.Delete(1)
	journal.Rollback()
	assert.True(t, store.Has(1))
	assert.Equal(t, []types.Id{1}, byTag.Lookup("x"))

	// a detached store records nothing
	store.Attach(nil)
	store.Delete(1)
	assert.Equal(t, 0, journal.Len())
	journal.Rollback()
	assert.False(t, store.Has(1))
}
