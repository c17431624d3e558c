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

package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/guild/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLedger()
	g := types.Group(1)
	l.SetBalance(g, "alice", 60)
	l.SetBalance(g, "bob", 40)

	total, err := l.TotalSupply(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, types.Shares(100), total)
	bal, err := l.BalanceOf(ctx, "alice", g)
	require.NoError(t, err)
	assert.Equal(t, types.Shares(60), bal)

	l.SetBalance(g, "alice", 0)
	total, err = l.TotalSupply(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, types.Shares(40), total)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = l.BalanceOf(cancelled, "bob", g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.yaml")
	content := "groups:\n  7:\n    alice: 100\n    bob: 50\nprofiles:\n  carol: 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	l, err := LoadFile(path)
	require.NoError(t, err)
	total, err := l.TotalSupply(context.Background(), types.Group(7))
	require.NoError(t, err)
	assert.Equal(t, types.Shares(150), total)
	bal, err := l.BalanceOf(context.Background(), "carol", types.Profile("carol"))
	require.NoError(t, err)
	assert.Equal(t, types.Shares(3), bal)

	require.NoError(t, os.WriteFile(path, []byte("groups:\n  nope:\n    a: 1\n"), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
