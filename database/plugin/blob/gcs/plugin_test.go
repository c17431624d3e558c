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

package gcs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/guild/database/plugin/blob/gcs"
	"github.com/blinklabs-io/guild/database/types"
)

func TestCredentialValidation(t *testing.T) {
	tempDir := t.TempDir()
	existing := filepath.Join(tempDir, "credentials.json")
	require.NoError(t, os.WriteFile(existing, []byte("{}"), 0o600))

	tests := []struct {
		name         string
		path         string
		errorMessage string
	}{
		{name: "valid credentials file", path: existing},
		{
			name:         "nonexistent credentials file",
			path:         filepath.Join(tempDir, "missing.json"),
			errorMessage: "GCS credentials file does not exist",
		},
		{name: "empty credentials file path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gcs.ValidateCredentials(tt.path)
			if tt.errorMessage == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.errorMessage)
		})
	}
}

func TestNewRequiresBucketURL(t *testing.T) {
	_, err := gcs.New("s3://bucket", nil, nil)
	require.Error(t, err)
	_, err = gcs.New("gcs://", nil, nil)
	require.Error(t, err)
	store, err := gcs.New("gcs://snapshots", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, store.Bucket())
}

func TestNotStarted(t *testing.T) {
	store, err := gcs.NewWithOptions(gcs.WithBucket("snapshots"))
	require.NoError(t, err)
	_, err = store.List(context.Background(), types.SnapshotBlobKeyPrefix)
	require.ErrorIs(t, err, types.ErrBlobStoreUnavailable)
	require.NoError(t, store.Close())
}

func TestStartRejectsMissingCredentials(t *testing.T) {
	store, err := gcs.NewWithOptions(
		gcs.WithBucket("snapshots"),
		gcs.WithCredentialsFile(filepath.Join(t.TempDir(), "nope.json")),
	)
	require.NoError(t, err)
	require.ErrorContains(t, store.Start(), "does not exist")
}
