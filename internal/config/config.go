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


package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/guild/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "guild.config"

const (
	DefaultDatabasePath     = ".guild"
	DefaultShutdownTimeout  = "30s"
	DefaultSnapshotInterval = "5m"
	DefaultBlobPlugin       = "badger"
	DefaultMetadataPlugin   = "sqlite"
	DefaultKeepSnapshots    = 10
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// ErrPluginListRequested is returned when the user asked to list the
// available plugins instead of running
var ErrPluginListRequested = errors.New("plugin list requested")

// RunMode selects how the wallet is started
type RunMode string

const (
	RunModeServe RunMode = "serve" // Persistent state, external share ledger file required
	RunModeDev   RunMode = "dev"   // In-memory state unless databasePath is changed, empty share ledger by default
)

func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	Self              string  `yaml:"self"`
	Admin             string  `yaml:"admin"`
	LedgerFile        string  `yaml:"ledgerFile"         split_words:"true"`
	DatabasePath      string  `yaml:"databasePath"       split_words:"true"`
	BlobPlugin        string  `yaml:"blobPlugin"         envconfig:"GUILD_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin    string  `yaml:"metadataPlugin"     envconfig:"GUILD_DATABASE_METADATA_PLUGIN"`
	CompressSnapshots bool    `yaml:"compressSnapshots"  split_words:"true"`
	EncryptSnapshots  bool    `yaml:"encryptSnapshots"   split_words:"true"`
	KeepSnapshots     int     `yaml:"keepSnapshots"      split_words:"true"`
	SnapshotInterval  string  `yaml:"snapshotInterval"   split_words:"true"`
	BindAddr          string  `yaml:"bindAddr"           split_words:"true"`
	MetricsPort       uint    `yaml:"metricsPort"        split_words:"true"`
	TlsCertFilePath   string  `yaml:"tlsCertFilePath"    envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath    string  `yaml:"tlsKeyFilePath"     envconfig:"TLS_KEY_FILE_PATH"`
	ShutdownTimeout   string  `yaml:"shutdownTimeout"    split_words:"true"`
	Tracing           bool    `yaml:"tracing"`
	TracingStdout     bool    `yaml:"tracingStdout"      split_words:"true"`
	RunMode           RunMode `yaml:"runMode"            envconfig:"GUILD_RUN_MODE"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout, falling back to the
// default when unset
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout, DefaultShutdownTimeout)
}

// SnapshotIntervalDuration parses SnapshotInterval. A zero interval
// disables periodic snapshots.
func (c *Config) SnapshotIntervalDuration() (time.Duration, error) {
	return parseDuration("snapshotInterval", c.SnapshotInterval, DefaultSnapshotInterval)
}

func parseDuration(field string, val string, def string) (time.Duration, error) {
	if val == "" {
		val = def
	}
	ret, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	if ret < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", field)
	}
	return ret, nil
}

func defaultConfig() *Config {
	return &Config{
		Self:              "wallet",
		DatabasePath:      DefaultDatabasePath,
		BlobPlugin:        DefaultBlobPlugin,
		MetadataPlugin:    DefaultMetadataPlugin,
		KeepSnapshots:     DefaultKeepSnapshots,
		CompressSnapshots: true,
		SnapshotInterval:  DefaultSnapshotInterval,
		BindAddr:          "0.0.0.0",
		MetricsPort:       12799,
		ShutdownTimeout:   DefaultShutdownTimeout,
		RunMode:           RunModeServe,
	}
}

var globalConfig = defaultConfig()

// findConfigFile looks for ~/.guild/guild.yaml and then /etc/guild/guild.yaml
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".guild", "guild.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/guild/guild.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func LoadConfig(configFile string) (*Config, error) {
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("guild", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	if globalConfig.RunMode == "" {
		globalConfig.RunMode = RunModeServe
	}
	return globalConfig, nil
}

// Validate checks the values that cannot be caught by the YAML or env
// parsers
func (c *Config) Validate() error {
	if !c.RunMode.Valid() {
		return fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			c.RunMode,
		)
	}
	if c.Self == "" {
		return errors.New("self principal must not be empty")
	}
	if c.KeepSnapshots < 0 {
		return fmt.Errorf("invalid keepSnapshots: %d", c.KeepSnapshots)
	}
	if c.EncryptSnapshots && c.BlobPlugin == "" {
		return errors.New("encryptSnapshots requires a blob plugin")
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.SnapshotIntervalDuration(); err != nil {
		return err
	}
	return nil
}

func loadFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay the config section onto the defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			if name := extractPluginName(tempCfg.Database.Blob); name != "" {
				globalConfig.BlobPlugin = name
			}
			mergePluginSection(pluginConfig, "blob", tempCfg.Database.Blob)
		}
		if tempCfg.Database.Metadata != nil {
			if name := extractPluginName(tempCfg.Database.Metadata); name != "" {
				globalConfig.MetadataPlugin = name
			}
			mergePluginSection(pluginConfig, "metadata", tempCfg.Database.Metadata)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// extractPluginName removes and returns the "plugin" key of a database
// section
func extractPluginName(section map[string]any) string {
	val, ok := section["plugin"]
	if !ok {
		return ""
	}
	name, ok := val.(string)
	if !ok {
		return ""
	}
	delete(section, "plugin")
	return name
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]any,
) {
	tmp := make(map[string]map[string]any)
	for k, v := range section {
		switch val := v.(type) {
		case map[string]any:
			tmp[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			tmp[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType, k, v,
			)
		}
	}
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = tmp
	} else {
		maps.Copy(pluginConfig[pluginType], tmp)
	}
}

func GetConfig() *Config {
	return globalConfig
}
