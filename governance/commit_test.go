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

package governance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/ledger"
	"github.com/blinklabs-io/guild/permission"
	"github.com/blinklabs-io/guild/types"
)

func TestCommitRollsBackFailedOperations(t *testing.T) {
	svc, err := NewService("wallet", ledger.NewMemoryLedger())
	require.NoError(t, err)
	require.NoError(t, svc.Bootstrap(context.Background(), "alice"))
	before, err := svc.Snapshot()
	require.NoError(t, err)

	createExtra := func(tx *txn) {
		_, err := tx.Permissions.Create(
			"Extra",
			[]permission.Target{permission.RemoteActor("dex")},
			permission.ScopeWhitelist,
		)
		require.NoError(t, err)
		ac, err := tx.AccessConfigs.Get(1)
		require.NoError(t, err)
		_, err = tx.AccessConfigs.Delete(ac.ID)
		require.NoError(t, err)
	}

	err = svc.commit("fault", func(tx *txn) error {
		createExtra(tx)
		panic(types.NewDataIntegrityFault("broken invariant"))
	})
	require.ErrorIs(t, err, ErrOperationAborted)
	after, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	err = svc.commit("error", func(tx *txn) error {
		createExtra(tx)
		return errors.New("later step failed")
	})
	require.EqualError(t, err, "later step failed")
	after, err = svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 0, svc.journal.Len())

	err = svc.commit("ok", func(tx *txn) error {
		createExtra(tx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, svc.journal.Len())
	assert.Equal(t, 2, svc.state.Permissions.Len())
	assert.Equal(t, 0, svc.state.AccessConfigs.Len())
	// ids of rolled back entities are handed out again
	p, err := svc.state.Permissions.Get(2)
	require.NoError(t, err)
	assert.Equal(t, "Extra", p.Name)
}
