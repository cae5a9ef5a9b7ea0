package engine

import (
	"context"
	"testing"

	"github.com/rpaflow/engine/config"
	"github.com/rpaflow/engine/graph"
	"github.com/rpaflow/engine/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linearGraph() *graph.Graph {
	nodes := []graph.Node{
		{ID: "start", Type: "start"},
		{ID: "set", Type: "setVariable", Data: map[string]any{"name": "greeting", "value": "hi"}},
		{ID: "end", Type: "end"},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "start", Target: "set"},
		{ID: "e2", Source: "set", Target: "end"},
	}
	return graph.New("g1", "linear", nodes, edges)
}

func TestEngineRunCompletesLinearGraph(t *testing.T) {
	e, err := New(config.DefaultEngineConfig())
	require.NoError(t, err)
	defer e.Close()

	ex, err := e.Run(context.Background(), linearGraph())
	require.NoError(t, err)
	assert.Equal(t, runtime.StatusCompleted, ex.Runtime.Status())
}

func TestEngineRunRejectsInvalidGraph(t *testing.T) {
	e, err := New(config.DefaultEngineConfig())
	require.NoError(t, err)
	defer e.Close()

	g := graph.New("g2", "no-start", []graph.Node{{ID: "a", Type: "log"}}, nil)
	_, err = e.Run(context.Background(), g)
	assert.Error(t, err)
}

func TestEngineUnknownPluginDirReturnsError(t *testing.T) {
	cfg := config.DefaultEngineConfig()
	cfg.PluginDirs = []string{"/nonexistent/plugins/dir/for/test"}
	_, err := New(cfg)
	assert.Error(t, err)
}
