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

package database

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type databaseMetrics struct {
	snapshotsSaved   prometheus.Counter
	snapshotFailures prometheus.Counter
	snapshotsPruned  prometheus.Counter
	snapshotBytes    prometheus.Gauge
	snapshotSeconds  prometheus.Histogram
	historyEntries   *prometheus.CounterVec
}

func (m *databaseMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.snapshotsSaved = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "guild_database_snapshots_saved_total",
		Help: "state snapshots written",
	})
	m.snapshotFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "guild_database_snapshot_failures_total",
		Help: "state snapshots that could not be written",
	})
	m.snapshotsPruned = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "guild_database_snapshots_pruned_total",
		Help: "old state snapshots removed by retention",
	})
	m.snapshotBytes = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "guild_database_snapshot_bytes",
		Help: "size of the latest stored snapshot",
	})
	m.snapshotSeconds = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "guild_database_snapshot_save_seconds",
		Help:    "time taken to store a snapshot",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
	m.historyEntries = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guild_database_history_entries_total",
			Help: "history entries recorded by event type",
		},
		[]string{"event_type"},
	)
}
