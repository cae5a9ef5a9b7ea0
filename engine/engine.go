// Package engine is the top-level facade that wires the Graph Model,
// Node Dispatcher, Plugin Registry, and Executor into one running
// workflow, mirroring the teacher's Engine/BuildFromConfig composition
// (module/engine.go, cmd/server/main.go) generalized from the teacher's
// service-module wiring to the RPA domain's graph/plugin/driver wiring.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rpaflow/engine/automation"
	"github.com/rpaflow/engine/config"
	"github.com/rpaflow/engine/executor"
	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/node"
	"github.com/rpaflow/engine/plugin"
	"github.com/rpaflow/engine/runtime"
)

// Engine holds everything that stays alive across multiple workflow runs:
// the node dispatcher (built-ins + plugin fallback), the plugin registry
// and its optional file watcher, and the capability drivers every run's
// Executor is handed.
type Engine struct {
	cfg        config.EngineConfig
	dispatcher *node.Dispatcher
	registry   *plugin.Registry
	drivers    node.Drivers
	watcher    *plugin.Watcher
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithDrivers overrides the default capability drivers (useful in tests, or
// to plug in a real desktop/browser backend once one exists).
func WithDrivers(d node.Drivers) Option {
	return func(e *Engine) { e.drivers = d }
}

// New builds an Engine from an EngineConfig: it constructs the node
// dispatcher with built-in handlers, creates a plugin Registry wired as the
// dispatcher's fallback, loads every configured plugin directory, and
// starts a hot-reload watcher if requested. A plugin directory that does
// not exist is an error; a malformed plugin inside one is logged and
// skipped.
func New(cfg config.EngineConfig, opts ...Option) (*Engine, error) {
	e := &Engine{
		cfg:        cfg,
		dispatcher: node.NewDispatcher(),
		registry:   plugin.NewRegistry(plugin.NewInterpreterPool("")),
		drivers: node.Drivers{
			Desktop: automation.NewMemoryDesktop(),
			Files:   automation.OSFileSystem{},
			Shell:   automation.OSShell{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.dispatcher.SetPluginDispatcher(e.registry)

	for _, dir := range cfg.PluginDirs {
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("engine: loading plugins from %s: %w", dir, err)
		}
		_, errs := e.registry.LoadFromDirectory(dir)
		for _, loadErr := range errs {
			log.Printf("engine: skipping plugin in %s: %v", dir, loadErr)
		}
	}

	if cfg.WatchPlugins && len(cfg.PluginDirs) > 0 {
		w := plugin.NewWatcher(e.registry, cfg.PluginDirs)
		if err := w.Start(); err != nil {
			return nil, fmt.Errorf("engine: starting plugin watcher: %w", err)
		}
		e.watcher = w
	}

	return e, nil
}

// Close stops the plugin watcher, if one is running.
func (e *Engine) Close() error {
	if e.watcher == nil {
		return nil
	}
	return e.watcher.Stop()
}

// Registry exposes the plugin registry for callers that need to load a
// single plugin outside the configured directories (e.g. cmd/rpactl
// "plugins load").
func (e *Engine) Registry() *plugin.Registry { return e.registry }

// NewExecutor builds an Executor for a single run of g, sharing this
// Engine's dispatcher and drivers. Each call gets its own Runtime
// Coordinator and Variable Store (spec.md §2: one execution is isolated
// from the next).
func (e *Engine) NewExecutor(g *graph.Graph) *executor.Executor {
	return executor.New(g, e.dispatcher, e.drivers)
}

// Run validates g and runs it to completion (or first fatal failure),
// honoring the engine's DebugByDefault config.
func (e *Engine) Run(ctx context.Context, g *graph.Graph) (*executor.Executor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	ex := e.NewExecutor(g)
	if e.cfg.DebugByDefault {
		return ex, ex.RunDebug(ctx, runtime.DebugBreakpoint)
	}
	return ex, ex.Run(ctx)
}
