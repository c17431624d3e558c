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

package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		min      int
		max      int
		expected string
		wantErr  bool
	}{
		{name: "trims", value: "  hello ", min: 1, max: 10, expected: "hello"},
		{name: "empty allowed", value: "   ", min: 0, max: 10, expected: ""},
		{name: "too short", value: "  ", min: 1, max: 10, wantErr: true},
		{name: "too long", value: "abcdef", min: 1, max: 5, wantErr: true},
		{name: "counts characters", value: "ééééé", min: 1, max: 5, expected: "ééééé"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ValidateAndTrim("name", test.value, test.min, test.max)
			if test.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestValidateAndTrimBadBounds(t *testing.T) {
	assert.Panics(t, func() {
		_, _ = ValidateAndTrim("name", "x", 5, 1)
	})
}

func TestSharesArithmetic(t *testing.T) {
	assert.Equal(t, Shares(30), Shares(10).Add(20))
	assert.Equal(t, Shares(5), Shares(20).Sub(15))
	assert.PanicsWithValue(
		t,
		NewDataIntegrityFault("shares underflow: 1 - 2"),
		func() { Shares(1).Sub(2) },
	)
	assert.Panics(t, func() { Shares(^uint64(0)).Add(1) })
}

func TestGroupOrProfileText(t *testing.T) {
	for _, gop := range []GroupOrProfile{Group(42), Profile("alice")} {
		data, err := gop.MarshalText()
		require.NoError(t, err)
		var decoded GroupOrProfile
		require.NoError(t, decoded.UnmarshalText(data))
		assert.Equal(t, gop, decoded)
	}
	var g GroupOrProfile
	assert.Error(t, g.UnmarshalText([]byte("team:1")))
	assert.Error(t, g.UnmarshalText([]byte("profile:")))
	_, err := GroupOrProfile{}.MarshalText()
	assert.Error(t, err)
}

func TestProgramValidate(t *testing.T) {
	assert.NoError(t, EmptyProgram().Validate())
	assert.ErrorIs(t, CallSequence().Validate(), ErrValidation)
	assert.ErrorIs(
		t,
		CallSequence(RemoteCall{Endpoint: Endpoint{Actor: "a"}}).Validate(),
		ErrValidation,
	)
	assert.NoError(
		t,
		CallSequence(
			RemoteCall{Endpoint: Endpoint{Actor: "a", Method: "m"}},
		).Validate(),
	)
}

func TestSortedUnique(t *testing.T) {
	assert.Equal(t, []Id{1, 2, 5}, SortedUnique([]Id{5, 1, 2, 5, 1}))
	assert.Nil(t, SortedUnique(nil))
}
