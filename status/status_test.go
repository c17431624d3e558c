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


package status

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startStatus(t *testing.T) (*Status, string) {
	t.Helper()
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{
		Name: "guild_test_total",
		Help: "test counter",
	}).Add(3)
	s := NewStatus(StatusConfig{
		Gatherer: reg,
		Host:     "127.0.0.1",
	})
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	})
	return s, "http://" + s.Addr().String()
}

func healthStatus(t *testing.T, baseUrl string, service string) string {
	t.Helper()
	resp, err := http.Post(
		baseUrl+"/grpc.health.v1.Health/Check",
		"application/json",
		strings.NewReader(`{"service":"`+service+`"}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsEndpoint(t *testing.T) {
	_, baseUrl := startStatus(t)
	resp, err := http.Get(baseUrl + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "guild_test_total 3")
}

func TestHealthFollowsServing(t *testing.T) {
	s, baseUrl := startStatus(t)
	assert.Contains(t, healthStatus(t, baseUrl, ServiceName), "NOT_SERVING")
	s.SetServing(true)
	assert.Contains(t, healthStatus(t, baseUrl, ServiceName), `"SERVING"`)
	assert.Contains(t, healthStatus(t, baseUrl, ""), `"SERVING"`)
}

func TestStartTwice(t *testing.T) {
	s, _ := startStatus(t)
	assert.ErrorIs(t, s.Start(), ErrAlreadyStarted)
}

func TestStopBeforeStart(t *testing.T) {
	s := NewStatus(StatusConfig{})
	assert.Nil(t, s.Addr())
	assert.NoError(t, s.Stop(context.Background()))
}
