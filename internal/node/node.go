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


package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/guild"
	"github.com/blinklabs-io/guild/internal/config"
	"github.com/blinklabs-io/guild/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

// NewNode builds a guild node from the loaded configuration
func NewNode(cfg *config.Config, logger *slog.Logger, promRegistry prometheus.Registerer) (*guild.Node, error) {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	snapshotInterval, err := cfg.SnapshotIntervalDuration()
	if err != nil {
		return nil, err
	}
	opts := []guild.ConfigOptionFunc{
		guild.WithLogger(logger),
		guild.WithSelf(cfg.Self),
		guild.WithAdmin(cfg.Admin),
		guild.WithBlobPlugin(cfg.BlobPlugin),
		guild.WithMetadataPlugin(cfg.MetadataPlugin),
		guild.WithKeepSnapshots(cfg.KeepSnapshots),
		guild.WithCompressSnapshots(cfg.CompressSnapshots),
		guild.WithEncryptSnapshots(cfg.EncryptSnapshots),
		guild.WithSnapshotInterval(snapshotInterval),
		guild.WithStatusListener(cfg.BindAddr, cfg.MetricsPort),
		guild.WithStatusTls(cfg.TlsCertFilePath, cfg.TlsKeyFilePath),
		guild.WithTracing(cfg.Tracing),
		guild.WithTracingStdout(cfg.TracingStdout),
		guild.WithRunMode(string(cfg.RunMode)),
		guild.WithShutdownTimeout(shutdownTimeout),
		guild.WithPrometheusRegistry(promRegistry),
	}
	// Dev mode keeps everything in memory unless a path was given explicitly
	if !cfg.RunMode.IsDevMode() || cfg.DatabasePath != config.DefaultDatabasePath {
		opts = append(opts, guild.WithDatabasePath(cfg.DatabasePath))
	}
	switch {
	case cfg.LedgerFile != "":
		shares, err := ledger.LoadFile(cfg.LedgerFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, guild.WithShareLedger(shares))
	case !cfg.RunMode.IsDevMode():
		return nil, errors.New("ledgerFile is required outside of dev mode")
	}
	return guild.New(guild.NewConfig(opts...))
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	n, err := NewNode(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	if err := n.Run(signalCtx); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
