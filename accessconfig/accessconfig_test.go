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
	"testing"

	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndUpdate(t *testing.T) {
	repo := NewRepository()
	ac, err := repo.Create(
		" admins ",
		"",
		[]types.Id{2, 1, 2},
		[]Allowee{ProfileAllowee("alice"), ProfileAllowee("alice")},
	)
	require.NoError(t, err)
	assert.Equal(t, "admins", ac.Name)
	assert.Equal(t, []types.Id{1, 2}, ac.Permissions)
	assert.Len(t, ac.Allowees, 1)

	_, err = repo.Create("admins", "", nil, []Allowee{Everyone()})
	assert.ErrorIs(t, err, ErrDuplicateName)

	other, err := repo.Create("others", "", []types.Id{3}, []Allowee{GroupAllowee(7, 10)})
	require.NoError(t, err)
	name := "admins"
	_, err = repo.Update(other.ID, Update{Name: &name})
	assert.ErrorIs(t, err, ErrDuplicateName)

	perms := []types.Id{1}
	updated, err := repo.Update(other.ID, Update{Permissions: &perms})
	require.NoError(t, err)
	assert.Equal(t, []types.Id{1}, updated.Permissions)

	one := types.Id(1)
	page := repo.List(PageRequest{PageSize: 10, Filter: Filter{Permission: &one}})
	assert.Len(t, page.Data, 2)
	three := types.Id(3)
	page = repo.List(PageRequest{PageSize: 10, Filter: Filter{Permission: &three}})
	assert.Empty(t, page.Data)
	group := types.Id(7)
	page = repo.List(PageRequest{PageSize: 10, Filter: Filter{Group: &group}})
	assert.Len(t, page.Data, 1)
	alice := types.Principal("alice")
	page = repo.List(PageRequest{PageSize: 10, Filter: Filter{Profile: &alice}})
	require.Len(t, page.Data, 1)
	assert.Equal(t, ac.ID, page.Data[0].ID)
}

func TestAlloweeValidation(t *testing.T) {
	tests := []struct {
		name    string
		allowee Allowee
		valid   bool
	}{
		{name: "everyone", allowee: Everyone(), valid: true},
		{name: "profile", allowee: ProfileAllowee("bob"), valid: true},
		{name: "group", allowee: GroupAllowee(1, 0), valid: true},
		{name: "empty profile", allowee: ProfileAllowee(""), valid: false},
		{name: "zero group", allowee: GroupAllowee(0, 5), valid: false},
		{name: "everyone with args", allowee: Allowee{Kind: AlloweeKindEveryone, Group: 1}, valid: false},
		{name: "unknown kind", allowee: Allowee{Kind: 9}, valid: false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := test.allowee.Validate()
			if test.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, types.ErrValidation)
			}
		})
	}
	_, err := New("x", "", nil, nil)
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestGate(t *testing.T) {
	perms := permission.NewRepository()
	pa, err := perms.Create("actor A", []permission.Target{permission.RemoteActor("A")}, permission.ScopeWhitelist)
	require.NoError(t, err)
	pb, err := perms.Create("actor B", []permission.Target{permission.RemoteActor("B")}, permission.ScopeWhitelist)
	require.NoError(t, err)
	configs := NewRepository()
	_, err = configs.Create("a", "", []types.Id{pa.ID}, []Allowee{ProfileAllowee("alice"), GroupAllowee(5, 100)})
	require.NoError(t, err)
	_, err = configs.Create("b", "", []types.Id{pb.ID}, []Allowee{Everyone()})
	require.NoError(t, err)
	gate := NewGate(perms, configs)

	epA := types.Endpoint{Actor: "A", Method: "m"}
	epB := types.Endpoint{Actor: "B", Method: "m"}
	epC := types.Endpoint{Actor: "C", Method: "m"}

	assert.True(t, gate.CheckEndpoint("alice", epA).Allowed)
	assert.True(t, gate.CheckEndpoint("anyone", epB).Allowed)
	assert.False(t, gate.CheckEndpoint("alice", epC).Allowed)
	assert.Empty(t, gate.CheckEndpoint("alice", epC).Groups)

	d := gate.CheckEndpoint("bob", epA)
	assert.False(t, d.Allowed)
	assert.Equal(t, []types.Id{5}, d.GroupIds())
	assert.False(t, d.SatisfiedBy(map[types.Id]types.Shares{5: 99}))
	assert.True(t, d.SatisfiedBy(map[types.Id]types.Shares{5: 100}))
	assert.False(t, d.SatisfiedBy(nil))

	// a program mixing both actors is only allowed when one permission
	// covers every call
	mixed := types.CallSequence(
		types.RemoteCall{Endpoint: epA},
		types.RemoteCall{Endpoint: epB},
	)
	assert.False(t, gate.CheckProgram("alice", mixed).Allowed)
}

func TestElectorate(t *testing.T) {
	perms := permission.NewRepository()
	pa, err := perms.Create("actor A", []permission.Target{permission.RemoteActor("A")}, permission.ScopeWhitelist)
	require.NoError(t, err)
	pb, err := perms.Create("actor B", []permission.Target{permission.RemoteActor("B")}, permission.ScopeWhitelist)
	require.NoError(t, err)
	configs := NewRepository()
	_, err = configs.Create("a", "", []types.Id{pa.ID}, []Allowee{ProfileAllowee("alice"), GroupAllowee(5, 100)})
	require.NoError(t, err)
	_, err = configs.Create("b", "", []types.Id{pa.ID, pb.ID}, []Allowee{Everyone(), GroupAllowee(5, 1), GroupAllowee(2, 1)})
	require.NoError(t, err)
	gate := NewGate(perms, configs)

	assert.Equal(
		t,
		[]types.GroupOrProfile{types.Group(2), types.Group(5), types.Profile("alice")},
		gate.Electorate([]types.Id{pa.ID}),
	)
	assert.Equal(
		t,
		[]types.GroupOrProfile{types.Group(2), types.Group(5)},
		gate.Electorate([]types.Id{pb.ID}),
	)
	assert.Empty(t, gate.Electorate([]types.Id{99}))
}
