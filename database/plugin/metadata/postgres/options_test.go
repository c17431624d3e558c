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

package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		opts []PostgresOptionFunc
		want string
	}{
		{
			name: "defaults",
			want: "host=localhost user=postgres password= dbname=guild port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name: "custom",
			opts: []PostgresOptionFunc{
				WithHost("db"),
				WithPort(6432),
				WithUser("guild"),
				WithPassword("secret"),
				WithSSLMode("require"),
			},
			want: "host=db user=guild password=secret dbname=guild port=6432 sslmode=require TimeZone=UTC",
		},
		{
			name: "explicit dsn wins",
			opts: []PostgresOptionFunc{WithHost("db"), WithDSN("  postgres://u@h/d  ")},
			want: "postgres://u@h/d",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			store, err := NewWithOptions(test.opts...)
			require.NoError(t, err)
			assert.Equal(t, test.want, store.DSN())
			assert.Equal(t, uint(defaultMaxOpenConns), store.maxOpenConns)
		})
	}
}

func TestCloseBeforeStart(t *testing.T) {
	store, err := NewWithOptions()
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
