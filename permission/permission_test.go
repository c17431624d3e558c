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
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/blinklabs-io/guild/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionTargetScenario(t *testing.T) {
	repo := NewRepository()
	epA := types.Endpoint{Actor: "A", Method: "m"}
	p1, err := repo.Create(
		"P1",
		[]Target{EndpointTarget(epA), RemoteActor("B")},
		ScopeWhitelist,
	)
	require.NoError(t, err)
	assert.NoError(t, repo.IsPermissionTarget(&epA, p1.ID))

	targets := []Target{RemoteActor("B")}
	_, err = repo.Update(p1.ID, Update{Targets: &targets})
	require.NoError(t, err)
	assert.ErrorIs(t, repo.IsPermissionTarget(&epA, p1.ID), ErrNotPermissionTarget)
	assert.NoError(
		t,
		repo.IsPermissionTarget(&types.Endpoint{Actor: "B", Method: "x"}, p1.ID),
	)
	assert.Empty(t, repo.IdsByTarget(EndpointTarget(epA)))
	assert.Equal(t, []types.Id{p1.ID}, repo.IdsByTarget(RemoteActor("B")))
}

func TestIsTarget(t *testing.T) {
	ep := types.Endpoint{Actor: "A", Method: "m"}
	other := types.Endpoint{Actor: "C", Method: "m"}
	tests := []struct {
		name     string
		targets  []Target
		scope    Scope
		endpoint *types.Endpoint
		expected bool
	}{
		{name: "exact endpoint", targets: []Target{EndpointTarget(ep)}, endpoint: &ep, expected: true},
		{name: "actor fallback", targets: []Target{RemoteActor("A")}, endpoint: &ep, expected: true},
		{name: "other actor", targets: []Target{RemoteActor("A")}, endpoint: &other, expected: false},
		{name: "empty program", targets: []Target{SelfEmptyProgram()}, expected: true},
		{name: "empty program not listed", targets: []Target{RemoteActor("A")}, expected: false},
		{name: "blacklist listed", targets: []Target{RemoteActor("A")}, scope: ScopeBlacklist, endpoint: &ep, expected: false},
		{name: "blacklist unlisted", targets: []Target{RemoteActor("A")}, scope: ScopeBlacklist, endpoint: &other, expected: true},
		{name: "blacklist empty program", targets: []Target{SelfEmptyProgram()}, scope: ScopeBlacklist, expected: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p, err := New("p", test.targets, test.scope)
			require.NoError(t, err)
			assert.Equal(t, test.expected, p.IsTarget(test.endpoint))
		})
	}
}

func TestIsProgramAllowed(t *testing.T) {
	repo := NewRepository()
	p, err := repo.Create("p", []Target{RemoteActor("A")}, ScopeWhitelist)
	require.NoError(t, err)
	call := func(actor types.Principal) types.RemoteCall {
		return types.RemoteCall{Endpoint: types.Endpoint{Actor: actor, Method: "m"}}
	}
	assert.NoError(t, repo.IsProgramAllowed(types.CallSequence(call("A"), call("A")), p.ID))
	assert.ErrorIs(
		t,
		repo.IsProgramAllowed(types.CallSequence(call("A"), call("B")), p.ID),
		ErrNotPermissionTarget,
	)
	assert.ErrorIs(t, repo.IsProgramAllowed(types.EmptyProgram(), p.ID), ErrNotPermissionTarget)
	assert.ErrorIs(t, repo.IsProgramAllowed(types.EmptyProgram(), 99), types.ErrNotFound)
	assert.True(t, repo.AllowsProgramAny(types.CallSequence(call("A")), []types.Id{99, p.ID}))
}

func TestRemoveLastPermission(t *testing.T) {
	repo := NewRepository()
	p1, err := repo.Create("p1", []Target{SelfEmptyProgram()}, ScopeWhitelist)
	require.NoError(t, err)
	p2, err := repo.Create("p2", []Target{SelfEmptyProgram()}, ScopeWhitelist)
	require.NoError(t, err)

	_, err = repo.Remove(p1.ID)
	require.NoError(t, err)
	_, err = repo.Remove(p2.ID)
	assert.ErrorIs(t, err, ErrThereShouldBeAtLeastOnePermission)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, []types.Id{p2.ID}, repo.IdsByTarget(SelfEmptyProgram()))

	_, err = repo.Remove(p1.ID)
	var notFound *types.NotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestCreateValidation(t *testing.T) {
	repo := NewRepository()
	_, err := repo.Create("   ", nil, ScopeWhitelist)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = repo.Create("p", []Target{{Kind: TargetKindEndpoint, Actor: "A"}}, ScopeWhitelist)
	assert.ErrorIs(t, err, types.ErrValidation)
	_, err = repo.Create("p", nil, Scope(7))
	assert.ErrorIs(t, err, types.ErrValidation)
	p, err := repo.Create(" p ", []Target{RemoteActor("A"), RemoteActor("A")}, ScopeWhitelist)
	require.NoError(t, err)
	assert.Equal(t, "p", p.Name)
	assert.Len(t, p.Targets, 1)
}

// The reverse index must always match the forward target sets
func TestReverseIndexConsistency(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	pool := []Target{
		SelfEmptyProgram(),
		RemoteActor("A"),
		RemoteActor("B"),
		EndpointTarget(types.Endpoint{Actor: "A", Method: "m"}),
		EndpointTarget(types.Endpoint{Actor: "B", Method: "n"}),
	}
	randomTargets := func() []Target {
		var ret []Target
		for _, target := range pool {
			if rng.IntN(2) == 0 {
				ret = append(ret, target)
			}
		}
		return ret
	}
	repo := NewRepository()
	var ids []types.Id
	for range 500 {
		switch rng.IntN(3) {
		case 0:
			p, err := repo.Create("p", randomTargets(), ScopeWhitelist)
			require.NoError(t, err)
			ids = append(ids, p.ID)
		case 1:
			if len(ids) == 0 {
				continue
			}
			targets := randomTargets()
			_, err := repo.Update(ids[rng.IntN(len(ids))], Update{Targets: &targets})
			require.NoError(t, err)
		case 2:
			if len(ids) == 0 {
				continue
			}
			idx := rng.IntN(len(ids))
			if _, err := repo.Remove(ids[idx]); err == nil {
				ids = slices.Delete(ids, idx, idx+1)
			}
		}
		for _, target := range pool {
			var expected []types.Id
			for p := range repo.All() {
				if p.HasTarget(target) {
					expected = append(expected, p.ID)
				}
			}
			require.Equal(t, expected, repo.IdsByTarget(target), target.String())
		}
		for _, target := range repo.IndexedTargets() {
			require.NotEmpty(t, repo.IdsByTarget(target))
		}
	}
}

func TestListByTarget(t *testing.T) {
	repo := NewRepository()
	for i := range 5 {
		targets := []Target{RemoteActor("A")}
		if i%2 == 0 {
			targets = append(targets, RemoteActor("B"))
		}
		_, err := repo.Create("p", targets, ScopeWhitelist)
		require.NoError(t, err)
	}
	b := RemoteActor("B")
	page := repo.List(PageRequest{PageSize: 2, Filter: Filter{Target: &b}})
	require.Len(t, page.Data, 2)
	assert.True(t, page.HasNext)
	assert.Equal(t, types.Id(1), page.Data[0].ID)
	assert.Equal(t, types.Id(3), page.Data[1].ID)
	page = repo.List(PageRequest{PageIndex: 1, PageSize: 2, Filter: Filter{Target: &b}})
	require.Len(t, page.Data, 1)
	assert.False(t, page.HasNext)
}
