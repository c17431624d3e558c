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
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/guild/database"
	"github.com/blinklabs-io/guild/database/models"
	"github.com/blinklabs-io/guild/event"
	"github.com/blinklabs-io/guild/governance"
	"github.com/blinklabs-io/guild/ledger"
	"github.com/blinklabs-io/guild/scheduler"
	"github.com/blinklabs-io/guild/status"
	"github.com/blinklabs-io/guild/types"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// idleTick drives the scheduler when periodic snapshots are disabled
const idleTick = time.Minute

var ErrAlreadyStarted = errors.New("node already started")

type Node struct {
	config         Config
	db             *database.Database
	eventBus       *event.EventBus
	scheduler      *scheduler.Scheduler
	service        *governance.Service
	status         *status.Status
	tracerProvider *sdktrace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	lastSaved      []byte
	saveMu         sync.Mutex
	started        bool
	startMu        sync.Mutex
	done           chan struct{}
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.shareLedger == nil {
		cfg.shareLedger = ledger.NewMemoryLedger()
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	return n, nil
}

// Run starts the node and blocks until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Start(ctx); err != nil {
		return errors.Join(err, n.Stop())
	}
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

// Start opens the database, restores the latest snapshot and brings up
// the governance service
func (n *Node) Start(ctx context.Context) error {
	n.startMu.Lock()
	defer n.startMu.Unlock()
	if n.started {
		return ErrAlreadyStarted
	}
	n.started = true
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(database.Config{
		Logger:            n.config.logger,
		PromRegistry:      n.config.promRegistry,
		BlobStore:         n.config.blobStore,
		MetadataStore:     n.config.metadataStore,
		BlobPlugin:        n.config.blobPlugin,
		MetadataPlugin:    n.config.metadataPlugin,
		DataDir:           n.config.dataDir,
		InMemory:          n.config.isDevMode() && n.config.dataDir == "",
		KeepSnapshots:     n.config.keepSnapshots,
		CompressSnapshots: n.config.compressSnapshots,
		EncryptSnapshots:  n.config.encryptSnapshots,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load state
	state, fresh, err := n.loadState(ctx)
	if err != nil {
		return err
	}
	// History trail
	recorder := &historyRecorder{db: n.db, logger: n.config.logger}
	recorder.subscribe(n.eventBus)
	// Timers and periodic snapshots
	tick := n.config.snapshotInterval
	if tick == 0 {
		tick = idleTick
	}
	n.scheduler = scheduler.NewScheduler(
		tick,
		scheduler.WithLogger(n.config.logger),
	)
	if n.config.snapshotInterval > 0 {
		n.scheduler.Register(1, n.autosave, n.autosaveSkipped)
	}
	n.scheduler.Start()
	// Governance service
	opts := []governance.ServiceOptionFunc{
		governance.WithLogger(n.config.logger),
		governance.WithPromRegistry(n.config.promRegistry),
		governance.WithEventBus(n.eventBus),
		governance.WithTimers(n.scheduler),
		governance.WithTracerProvider(n.tracer()),
		governance.WithState(state),
	}
	if n.config.executor != nil {
		opts = append(opts, governance.WithExecutor(n.config.executor))
	}
	svc, err := governance.NewService(
		types.Principal(n.config.self),
		n.config.shareLedger,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to create governance service: %w", err)
	}
	n.service = svc
	if fresh && n.config.admin != "" {
		if err := svc.Bootstrap(ctx, types.Principal(n.config.admin)); err != nil {
			return fmt.Errorf("failed to bootstrap governance state: %w", err)
		}
	}
	if err := svc.Resume(ctx); err != nil {
		return fmt.Errorf("failed to resume governance state: %w", err)
	}
	// Status listener
	if n.config.statusPort > 0 {
		n.status = status.NewStatus(status.StatusConfig{
			Logger:          n.config.logger,
			Gatherer:        n.config.promGatherer,
			Host:            n.config.statusHost,
			Port:            n.config.statusPort,
			TlsCertFilePath: n.config.tlsCertFilePath,
			TlsKeyFilePath:  n.config.tlsKeyFilePath,
		})
		if err := n.status.Start(); err != nil {
			return err
		}
		n.status.SetServing(true)
	}
	n.config.logger.Info(
		"governance service started",
		"component", "guild",
		"self", n.config.self,
		"restored", !fresh,
		"dev_mode", n.config.isDevMode(),
	)
	return nil
}

// loadState restores the latest snapshot. It reports whether the wallet
// starts without any saved state.
func (n *Node) loadState(ctx context.Context) (*governance.State, bool, error) {
	data, rec, err := n.db.LoadLatestSnapshot(ctx)
	if errors.Is(err, database.ErrNoSnapshot) {
		return governance.NewState(), true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	state, err := governance.RestoreState(data)
	if err != nil {
		return nil, false, fmt.Errorf(
			"failed to restore snapshot %d: %w",
			rec.Seq,
			err,
		)
	}
	n.lastSaved = data
	n.config.logger.Info(
		fmt.Sprintf("restored governance state from snapshot %d", rec.Seq),
		"component", "guild",
	)
	return state, false, nil
}

// Service returns the running governance service, or nil before Start
func (n *Node) Service() *governance.Service {
	return n.service
}

// Database returns the opened database, or nil before Start
func (n *Node) Database() *database.Database {
	return n.db
}

// Status returns the status listener, or nil when it is disabled
func (n *Node) Status() *status.Status {
	return n.status
}

// SaveSnapshot persists the current state when it changed since the last
// save. It returns nil when nothing was written.
func (n *Node) SaveSnapshot(ctx context.Context) (*models.SnapshotRecord, error) {
	if n.service == nil || n.db == nil {
		return nil, errors.New("node is not started")
	}
	n.saveMu.Lock()
	defer n.saveMu.Unlock()
	data, err := n.service.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize state: %w", err)
	}
	if n.lastSaved != nil && bytes.Equal(data, n.lastSaved) {
		return nil, nil
	}
	rec, err := n.db.SaveSnapshot(ctx, data)
	if err != nil {
		return nil, err
	}
	n.lastSaved = data
	return rec, nil
}

func (n *Node) autosave() {
	rec, err := n.SaveSnapshot(context.Background())
	if err != nil {
		n.config.logger.Error(
			"periodic snapshot failed",
			"component", "guild",
			"error", err,
		)
		return
	}
	if rec != nil {
		n.config.logger.Debug(
			fmt.Sprintf("saved snapshot %d", rec.Seq),
			"component", "guild",
		)
	}
}

func (n *Node) autosaveSkipped() {
	n.config.logger.Warn(
		"previous snapshot still running, skipping",
		"component", "guild",
	)
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := DefaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown", "component", "guild")

	// Phase 1: Stop accepting new work
	if n.status != nil {
		if stopErr := n.status.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("status shutdown: %w", stopErr))
		}
	}
	if n.scheduler != nil {
		n.scheduler.Stop()
	}

	// Phase 2: Persist state
	if n.service != nil && n.db != nil {
		if _, saveErr := n.SaveSnapshot(ctx); saveErr != nil {
			err = errors.Join(err, fmt.Errorf("final snapshot: %w", saveErr))
		}
	}

	// Phase 3: Drain pending history and close the database
	if n.eventBus != nil {
		n.eventBus.Stop()
	}
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 4: Cleanup resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete", "component", "guild")
	close(n.done)
	return err
}
