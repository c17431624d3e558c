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

package badger_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/database/plugin/blob/badger"
	"github.com/blinklabs-io/guild/database/types"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	store, err := badger.New(badger.WithPromRegistry(reg))
	require.NoError(t, err)
	require.NoError(t, store.Start())

	_, err = store.Get(ctx, "missing")
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	require.NoError(t, store.Put(ctx, types.SnapshotBlobKey(2), []byte("two")))
	require.NoError(t, store.Put(ctx, types.SnapshotBlobKey(1), []byte("one")))
	require.NoError(t, store.Put(ctx, "other", []byte("x")))

	got, err := store.Get(ctx, types.SnapshotBlobKey(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)

	keys, err := store.List(ctx, types.SnapshotBlobKeyPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{types.SnapshotBlobKey(1), types.SnapshotBlobKey(2)}, keys)

	require.NoError(t, store.Delete(ctx, types.SnapshotBlobKey(1)))
	_, err = store.Get(ctx, types.SnapshotBlobKey(1))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	count, err := testutil.GatherAndCount(reg, "guild_blob_ops_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, store.Stop())
	_, err = store.Get(ctx, "other")
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
}

func TestOnDiskStorePersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	require.NoError(t, store.Start())
	require.NoError(t, store.Put(ctx, "k", []byte("v")))
	require.NoError(t, store.Close())

	reopened, err := badger.New(badger.WithDataDir(dir), badger.WithGc(false))
	require.NoError(t, err)
	require.NoError(t, reopened.Start())
	defer reopened.Close()
	got, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
