package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	content := "pluginDirs:\n  - ./plugins\nwatchPlugins: true\nlogLevel: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"./plugins"}, cfg.PluginDirs)
	assert.True(t, cfg.WatchPlugins)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.json")
	content := `{"pluginDirs": ["./p"], "debugByDefault": true}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DebugByDefault)
}

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, "info", cfg.LogLevel)
}
