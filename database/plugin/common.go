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

package plugin

import (
	"io"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	commonLogger       *slog.Logger
	commonPromRegistry prometheus.Registerer
	commonMutex        sync.RWMutex
)

// SetCommon sets the logger and metrics registry handed to plugins that are
// instantiated afterwards
func SetCommon(logger *slog.Logger, promRegistry prometheus.Registerer) {
	commonMutex.Lock()
	defer commonMutex.Unlock()
	commonLogger = logger
	commonPromRegistry = promRegistry
}

// Logger returns the logger for plugins, never nil
func Logger() *slog.Logger {
	commonMutex.RLock()
	defer commonMutex.RUnlock()
	if commonLogger == nil {
		return slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return commonLogger
}

func PromRegistry() prometheus.Registerer {
	commonMutex.RLock()
	defer commonMutex.RUnlock()
	return commonPromRegistry
}
