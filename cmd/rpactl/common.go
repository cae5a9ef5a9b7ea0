package main

import (
	"fmt"
	"os"

	"github.com/rpaflow/engine/config"
	"github.com/rpaflow/engine/engine"
	"github.com/rpaflow/engine/graph"
)

func loadGraph(path string) (*graph.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return graph.Parse(data)
}

func buildEngine(pluginDir string, watch bool) (*engine.Engine, error) {
	cfg := config.DefaultEngineConfig()
	if pluginDir != "" {
		cfg.PluginDirs = []string{pluginDir}
		cfg.WatchPlugins = watch
	}
	return engine.New(cfg)
}
