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

package aws

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/database/plugin"
	"github.com/blinklabs-io/guild/database/types"
)

func TestNewParsesURL(t *testing.T) {
	tests := []struct {
		url     string
		bucket  string
		prefix  string
		wantErr bool
	}{
		{url: "s3://snapshots", bucket: "snapshots"},
		{url: "s3://snapshots/guild", bucket: "snapshots", prefix: "guild/"},
		{url: "s3://snapshots/guild/", bucket: "snapshots", prefix: "guild/"},
		{url: "gcs://snapshots", wantErr: true},
		{url: "s3://", wantErr: true},
	}
	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			store, err := New(test.url, nil, nil)
			if test.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.bucket, store.Bucket())
			assert.Equal(t, test.prefix, store.prefix)
			assert.Equal(t, test.prefix+"snapshot/1", store.fullKey("snapshot/1"))
		})
	}
}

func TestNotStarted(t *testing.T) {
	store, err := NewWithOptions(WithBucket("b"))
	require.NoError(t, err)
	_, err = store.Get(context.Background(), "k")
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	require.ErrorIs(t, store.Put(context.Background(), "k", nil), types.ErrBlobStoreUnavailable)
}

func TestStartRequiresBucket(t *testing.T) {
	store, err := NewWithOptions()
	require.NoError(t, err)
	require.Error(t, store.Start())
}

func TestNewFromCmdlineOptions(t *testing.T) {
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "s3", "bucket", "test-bucket"))
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeBlob, "s3", "prefix", "p"))
	t.Cleanup(func() {
		_ = plugin.SetPluginOption(plugin.PluginTypeBlob, "s3", "bucket", "")
		_ = plugin.SetPluginOption(plugin.PluginTypeBlob, "s3", "prefix", "")
	})
	p := NewFromCmdlineOptions()
	store, ok := p.(*BlobStoreS3)
	require.True(t, ok)
	assert.Equal(t, "test-bucket", store.Bucket())
	assert.Equal(t, "p/", store.prefix)
	assert.Equal(t, defaultTimeout, store.timeout)
}
