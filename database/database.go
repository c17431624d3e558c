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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/guild/database/plugin"
	"github.com/blinklabs-io/guild/database/plugin/blob"
	"github.com/blinklabs-io/guild/database/plugin/metadata"
	"github.com/blinklabs-io/guild/database/sops"
	"github.com/blinklabs-io/guild/database/types"
	"github.com/prometheus/client_golang/prometheus"

	// Register plugins
	_ "github.com/blinklabs-io/guild/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/guild/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/guild/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/guild/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/guild/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/guild/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
	DefaultKeepSnapshots  = 10
)

var (
	ErrNoSnapshot       = errors.New("no snapshot available")
	ErrSnapshotCorrupt  = errors.New("snapshot checksum mismatch")
	ErrDataDirLocked    = errors.New("data directory is in use by another process")
	ErrEncryptionNotSet = errors.New("snapshot encryption requested but no master key configured")
)

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	// BlobStore and MetadataStore replace the named plugins when set
	BlobStore      types.BlobStore
	MetadataStore  metadata.MetadataStore
	BlobPlugin     string
	MetadataPlugin string
	// DataDir, when set, is passed to both plugins as their data-dir option
	// and locked against concurrent use
	DataDir string
	// InMemory clears the data-dir option of both plugins so the local
	// stores keep nothing on disk. It is ignored when DataDir is set.
	InMemory          bool
	KeepSnapshots     int
	CompressSnapshots bool
	EncryptSnapshots  bool
}

// Database persists governance snapshots in a blob store and keeps their
// bookkeeping, along with the history trail, in a metadata store
type Database struct {
	config     Config
	logger     *slog.Logger
	blob       types.BlobStore
	metadata   metadata.MetadataStore
	metrics    databaseMetrics
	unlock     func() error
	snapshotMu sync.Mutex
}

func New(cfg Config) (*Database, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.BlobPlugin == "" {
		cfg.BlobPlugin = DefaultBlobPlugin
	}
	if cfg.MetadataPlugin == "" {
		cfg.MetadataPlugin = DefaultMetadataPlugin
	}
	if cfg.KeepSnapshots <= 0 {
		cfg.KeepSnapshots = DefaultKeepSnapshots
	}
	d := &Database{
		config: cfg,
		logger: cfg.Logger,
	}
	if err := d.init(); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

func (d *Database) init() error {
	d.metrics.init(d.config.PromRegistry)
	if d.config.EncryptSnapshots && !sops.Configured() {
		return ErrEncryptionNotSet
	}
	if d.config.DataDir != "" {
		unlock, err := lockDataDir(d.config.DataDir)
		if err != nil {
			return err
		}
		d.unlock = unlock
	}
	plugin.SetCommon(d.logger, d.config.PromRegistry)
	if d.config.MetadataStore != nil {
		d.metadata = d.config.MetadataStore
	} else {
		if err := d.setDataDir(plugin.PluginTypeMetadata, d.config.MetadataPlugin); err != nil {
			return err
		}
		store, err := metadata.New(d.config.MetadataPlugin)
		if err != nil {
			return err
		}
		d.metadata = store
	}
	if d.config.BlobStore != nil {
		d.blob = d.config.BlobStore
	} else {
		if err := d.setDataDir(plugin.PluginTypeBlob, d.config.BlobPlugin); err != nil {
			return err
		}
		store, err := blob.New(d.config.BlobPlugin)
		if err != nil {
			return err
		}
		d.blob = store
	}
	d.logger.Debug(
		fmt.Sprintf(
			"opened database with %s blob store and %s metadata store",
			d.config.BlobPlugin,
			d.config.MetadataPlugin,
		),
		"component", "database",
	)
	return nil
}

func (d *Database) setDataDir(pluginType plugin.PluginType, name string) error {
	if d.config.DataDir == "" && !d.config.InMemory {
		return nil
	}
	return plugin.SetPluginOption(pluginType, name, "data-dir", d.config.DataDir)
}

// Blob returns the underlying blob store instance
func (d *Database) Blob() types.BlobStore {
	return d.blob
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

func (d *Database) DataDir() string {
	return d.config.DataDir
}

func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Close cleans up the database connections and releases the data dir lock
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
		d.metadata = nil
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
		d.blob = nil
	}
	if d.unlock != nil {
		err = errors.Join(err, d.unlock())
		d.unlock = nil
	}
	return err
}
