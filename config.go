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


package guild

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/guild/database/plugin/metadata"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/blinklabs-io/guild/governance"
	"github.com/blinklabs-io/guild/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	runModeServe = "serve"
	runModeDev   = "dev"
)

const (
	DefaultShutdownTimeout  = 30 * time.Second
	DefaultSnapshotInterval = 5 * time.Minute
)

type Config struct {
	promRegistry      prometheus.Registerer
	promGatherer      prometheus.Gatherer
	logger            *slog.Logger
	shareLedger       ledger.ShareLedger
	executor          governance.Executor
	blobStore         types.BlobStore
	metadataStore     metadata.MetadataStore
	self              string
	admin             string
	dataDir           string
	blobPlugin        string
	metadataPlugin    string
	statusHost        string
	tlsCertFilePath   string
	tlsKeyFilePath    string
	statusPort        uint
	keepSnapshots     int
	compressSnapshots bool
	encryptSnapshots  bool
	tracing           bool
	tracingStdout     bool
	runMode           string
	snapshotInterval  time.Duration
	shutdownTimeout   time.Duration
}

// isDevMode returns true if running in development mode
func (c *Config) isDevMode() bool {
	return c.runMode == runModeDev
}

func (c *Config) validate() error {
	if c.self == "" {
		return errors.New("wallet principal must not be empty")
	}
	switch c.runMode {
	case "", runModeServe, runModeDev:
	default:
		return errors.New("unknown run mode: " + c.runMode)
	}
	if c.shareLedger == nil && !c.isDevMode() {
		return errors.New("a share ledger is required outside of dev mode")
	}
	if c.snapshotInterval < 0 {
		return errors.New("snapshot interval must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new guild config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		snapshotInterval: DefaultSnapshotInterval,
		shutdownTimeout:  DefaultShutdownTimeout,
		runMode:          runModeServe,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithSelf specifies the principal the wallet's own endpoints live under
func WithSelf(self string) ConfigOptionFunc {
	return func(c *Config) {
		c.self = self
	}
}

// WithAdmin specifies the principal that receives the default permission
// when the wallet starts without any saved state
func WithAdmin(admin string) ConfigOptionFunc {
	return func(c *Config) {
		c.admin = admin
	}
}

// WithShareLedger specifies the share ledger consulted for balances and
// total supply. Dev mode falls back to an empty in-memory ledger.
func WithShareLedger(shareLedger ledger.ShareLedger) ConfigOptionFunc {
	return func(c *Config) {
		c.shareLedger = shareLedger
	}
}

// WithExecutor specifies how winning programs are run
func WithExecutor(executor governance.Executor) ConfigOptionFunc {
	return func(c *Config) {
		c.executor = executor
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithStores uses already opened stores instead of the configured plugins
func WithStores(
	blobStore types.BlobStore,
	metadataStore metadata.MetadataStore,
) ConfigOptionFunc {
	return func(c *Config) {
		c.blobStore = blobStore
		c.metadataStore = metadataStore
	}
}

// WithKeepSnapshots specifies how many complete snapshots are retained
func WithKeepSnapshots(keep int) ConfigOptionFunc {
	return func(c *Config) {
		c.keepSnapshots = keep
	}
}

// WithCompressSnapshots enables zstd compression of snapshot blobs
func WithCompressSnapshots(compress bool) ConfigOptionFunc {
	return func(c *Config) {
		c.compressSnapshots = compress
	}
}

// WithEncryptSnapshots enables sops encryption of snapshot blobs
func WithEncryptSnapshots(encrypt bool) ConfigOptionFunc {
	return func(c *Config) {
		c.encryptSnapshots = encrypt
	}
}

// WithSnapshotInterval specifies how often the state is saved while
// running. Zero only saves on shutdown.
func WithSnapshotInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.snapshotInterval = interval
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
		if gatherer, ok := registry.(prometheus.Gatherer); ok {
			c.promGatherer = gatherer
		}
	}
}

// WithStatusListener specifies the address of the metrics and health
// listener. A zero port disables it.
func WithStatusListener(host string, port uint) ConfigOptionFunc {
	return func(c *Config) {
		c.statusHost = host
		c.statusPort = port
	}
}

// WithStatusTls specifies the TLS certificate and key for the status
// listener. Without them the listener speaks h2c.
func WithStatusTls(certFilePath string, keyFilePath string) ConfigOptionFunc {
	return func(c *Config) {
		c.tlsCertFilePath = certFilePath
		c.tlsKeyFilePath = keyFilePath
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

// WithRunMode sets the operational mode ("serve" or "dev")
func WithRunMode(mode string) ConfigOptionFunc {
	return func(c *Config) {
		c.runMode = mode
	}
}
