// Package config loads the engine's own startup configuration — plugin
// directories, debug defaults, and logging options — as distinct from a
// workflow graph itself (spec.md §6's JSON graph format is unaffected;
// this is engine-options only). Grounded on the teacher's config.WorkflowConfig
// (config/config.go) and its file loader (config/source_file.go), narrowed
// from the teacher's multi-source/hot-reload config pipeline to what a
// single-process RPA engine actually needs at startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EngineConfig configures an Engine instance (package engine) independent
// of any one workflow graph.
type EngineConfig struct {
	// PluginDirs lists directories scanned for plugin scripts at startup
	// (spec.md §4.5).
	PluginDirs []string `json:"pluginDirs" yaml:"pluginDirs"`

	// WatchPlugins enables fsnotify-based hot reload of PluginDirs.
	WatchPlugins bool `json:"watchPlugins" yaml:"watchPlugins"`

	// DebugByDefault starts every Run under RunDebug(DebugBreakpoint)
	// instead of Run, so breakpoints set before the first step take
	// effect immediately.
	DebugByDefault bool `json:"debugByDefault" yaml:"debugByDefault"`

	// LogLevel names a minimum log level ("debug", "info", "warn",
	// "error"). It is loaded and defaulted here but no other package reads
	// it; the Runtime's own log buffer records every level (spec.md §4.6).
	LogLevel string `json:"logLevel" yaml:"logLevel"`
}

// DefaultEngineConfig returns the engine's zero-configuration defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LogLevel: "info",
	}
}

// Load reads an EngineConfig from a JSON or YAML file, detected by
// extension the same way the teacher's FileSource distinguishes formats.
func Load(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultEngineConfig()
	if isJSON(path) {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
