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

// Package blobmetrics holds the counters shared by the blob store plugins
package blobmetrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricNamePrefix = "guild_blob_"

// Metrics is safe to use as a nil pointer, which records nothing
type Metrics struct {
	opsTotal    *prometheus.CounterVec
	bytesTotal  *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
}

// New registers the counters for one store. A store restarted against the
// same registry reuses the counters registered by its predecessor.
func New(promRegistry prometheus.Registerer, store string) *Metrics {
	if promRegistry == nil {
		return nil
	}
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"store": store}, promRegistry)
	return &Metrics{
		opsTotal: counterVec(reg, "ops_total", "blob store operations by type"),
		bytesTotal: counterVec(
			reg,
			"bytes_total",
			"bytes read and written by blob store operations",
		),
		errorsTotal: counterVec(reg, "errors_total", "failed blob store operations by type"),
	}
}

func counterVec(reg prometheus.Registerer, name string, help string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricNamePrefix + name,
			Help: help,
		},
		[]string{"op"},
	)
	if err := reg.Register(cv); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return cv
}

func (m *Metrics) Observe(op string, n int, err error) {
	if m == nil {
		return
	}
	m.opsTotal.WithLabelValues(op).Inc()
	if err != nil {
		m.errorsTotal.WithLabelValues(op).Inc()
		return
	}
	if n > 0 {
		m.bytesTotal.WithLabelValues(op).Add(float64(n))
	}
}
