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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serviceMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	abortedTotal      prometheus.Counter
	votesCastTotal    prometheus.Counter
	transitionsTotal  *prometheus.CounterVec
	executionsTotal   *prometheus.CounterVec
	ledgerLatency     prometheus.Histogram
}

func (m *serviceMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operationsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guild_governance_operations_total",
			Help: "governance operations by name and result",
		},
		[]string{"operation", "result"},
	)
	m.operationDuration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "guild_governance_operation_duration_seconds",
			Help:    "time spent holding the governance state lock, by operation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		},
		[]string{"operation"},
	)
	m.abortedTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "guild_governance_aborted_total",
		Help: "operations aborted by a data integrity fault",
	})
	m.votesCastTotal = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "guild_governance_votes_cast_total",
		Help: "votes accepted",
	})
	m.transitionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guild_governance_voting_transitions_total",
			Help: "voting status transitions by target status",
		},
		[]string{"status"},
	)
	m.executionsTotal = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guild_governance_executions_total",
			Help: "winning choice program runs by result",
		},
		[]string{"result"},
	)
	m.ledgerLatency = promautoFactory.NewHistogram(prometheus.HistogramOpts{
		Name:    "guild_governance_ledger_call_seconds",
		Help:    "latency of share ledger calls",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	})
}
