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
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
)

type PluginType int

const (
	PluginTypeBlob PluginType = iota + 1
	PluginTypeMetadata
)

func PluginTypeName(pluginType PluginType) string {
	switch pluginType {
	case PluginTypeBlob:
		return "blob"
	case PluginTypeMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

type PluginOptionType int

const (
	PluginOptionTypeString PluginOptionType = iota + 1
	PluginOptionTypeBool
	PluginOptionTypeInt
	PluginOptionTypeUint
)

// PluginOption describes a setting of a plugin. Dest points at the variable
// the plugin reads when it is instantiated. CustomEnvVar is consulted in
// addition to the generated GUILD_* variable.
type PluginOption struct {
	DefaultValue any
	Dest         any
	Name         string
	Description  string
	CustomEnvVar string
	Type         PluginOptionType
}

type PluginEntry struct {
	NewFromOptionsFunc func() Plugin
	Name               string
	Description        string
	Options            []PluginOption
	Type               PluginType
}

var (
	pluginEntries []PluginEntry
	pluginMutex   sync.RWMutex
)

// Register adds a plugin to the registry. Plugins call it from init().
func Register(pluginEntry PluginEntry) {
	pluginMutex.Lock()
	defer pluginMutex.Unlock()
	pluginEntries = append(pluginEntries, pluginEntry)
}

// GetPlugins returns the registered plugins of a type
func GetPlugins(pluginType PluginType) []PluginEntry {
	pluginMutex.RLock()
	defer pluginMutex.RUnlock()
	var ret []PluginEntry
	for _, p := range pluginEntries {
		if p.Type == pluginType {
			ret = append(ret, p)
		}
	}
	return ret
}

// GetPlugin instantiates a registered plugin from its current options. It
// returns nil when no such plugin exists.
func GetPlugin(pluginType PluginType, pluginName string) Plugin {
	pluginMutex.RLock()
	var newFunc func() Plugin
	for _, p := range pluginEntries {
		if p.Type == pluginType && p.Name == pluginName {
			newFunc = p.NewFromOptionsFunc
			break
		}
	}
	pluginMutex.RUnlock()
	if newFunc == nil {
		return nil
	}
	return newFunc()
}

func flagName(pluginType PluginType, pluginName string, optionName string) string {
	return fmt.Sprintf("%s-%s-%s", PluginTypeName(pluginType), pluginName, optionName)
}

// envVarName maps an option to GUILD_<TYPE>_<PLUGIN>_<OPTION>
func envVarName(pluginType PluginType, pluginName string, optionName string) string {
	return strings.ToUpper(strings.ReplaceAll(
		"guild_"+flagName(pluginType, pluginName, optionName),
		"-",
		"_",
	))
}

// PopulateCmdlineOptions adds a flag for every plugin option, for example
// --blob-badger-data-dir
func PopulateCmdlineOptions(fs *pflag.FlagSet) error {
	pluginMutex.RLock()
	defer pluginMutex.RUnlock()
	for _, p := range pluginEntries {
		for _, opt := range p.Options {
			name := flagName(p.Type, p.Name, opt.Name)
			switch opt.Type {
			case PluginOptionTypeString:
				dest, ok := opt.Dest.(*string)
				if !ok {
					return fmt.Errorf("option %s: expected *string destination", name)
				}
				def, _ := opt.DefaultValue.(string)
				fs.StringVar(dest, name, def, opt.Description)
			case PluginOptionTypeBool:
				dest, ok := opt.Dest.(*bool)
				if !ok {
					return fmt.Errorf("option %s: expected *bool destination", name)
				}
				def, _ := opt.DefaultValue.(bool)
				fs.BoolVar(dest, name, def, opt.Description)
			case PluginOptionTypeInt:
				dest, ok := opt.Dest.(*int)
				if !ok {
					return fmt.Errorf("option %s: expected *int destination", name)
				}
				def, _ := opt.DefaultValue.(int)
				fs.IntVar(dest, name, def, opt.Description)
			case PluginOptionTypeUint:
				dest, ok := opt.Dest.(*uint64)
				if !ok {
					return fmt.Errorf("option %s: expected *uint64 destination", name)
				}
				def, _ := opt.DefaultValue.(uint64)
				fs.Uint64Var(dest, name, def, opt.Description)
			default:
				return fmt.Errorf("option %s: unknown option type %d", name, opt.Type)
			}
		}
	}
	return nil
}

// ProcessConfig applies option values from a config file, keyed by plugin
// type name, plugin name and option name
func ProcessConfig(pluginConfig map[string]map[string]map[string]any) error {
	for _, pluginType := range []PluginType{PluginTypeBlob, PluginTypeMetadata} {
		byName, ok := pluginConfig[PluginTypeName(pluginType)]
		if !ok {
			continue
		}
		for pluginName, options := range byName {
			for optionName, value := range options {
				if err := SetPluginOption(pluginType, pluginName, optionName, normalizeValue(value)); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// YAML decodes integers as int and may produce uint64 for large values
func normalizeValue(value any) any {
	switch v := value.(type) {
	case int64:
		return int(v)
	case uint:
		return uint64(v)
	default:
		return value
	}
}

// ProcessEnvVars applies option values from GUILD_<TYPE>_<PLUGIN>_<OPTION>
// environment variables
func ProcessEnvVars() error {
	pluginMutex.RLock()
	entries := make([]PluginEntry, len(pluginEntries))
	copy(entries, pluginEntries)
	pluginMutex.RUnlock()
	for _, p := range entries {
		for _, opt := range p.Options {
			name := envVarName(p.Type, p.Name, opt.Name)
			raw, ok := os.LookupEnv(name)
			if !ok && opt.CustomEnvVar != "" {
				name = opt.CustomEnvVar
				raw, ok = os.LookupEnv(name)
			}
			if !ok {
				continue
			}
			var value any
			switch opt.Type {
			case PluginOptionTypeString:
				value = raw
			case PluginOptionTypeBool:
				b, err := strconv.ParseBool(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				value = b
			case PluginOptionTypeInt:
				i, err := strconv.Atoi(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				value = i
			case PluginOptionTypeUint:
				u, err := strconv.ParseUint(raw, 10, 64)
				if err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
				value = u
			}
			if err := SetPluginOption(p.Type, p.Name, opt.Name, value); err != nil {
				return err
			}
		}
	}
	return nil
}
