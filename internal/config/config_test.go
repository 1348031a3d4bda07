package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// An empty working directory, so no stray config.yaml leaks into
	// discovery and every value comes from the defaults.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5055", cfg.Address())
	assert.Equal(t, "http://localhost:5056/api", cfg.Backend.BaseURL)
	assert.Equal(t, "/settings/models", cfg.Chat.SettingsURL)
	assert.Equal(t, "./data/inkwell.db", cfg.Archive.Path)
	assert.Equal(t, "./logs/inkwell.log", cfg.Log.Path)
	assert.False(t, cfg.Log.Prod)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  host: 0.0.0.0
  port: 9090
backend:
  base_url: http://notebook.internal/api
  token: secret
chat:
  default_model: gpt-4o-mini
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.Equal(t, "http://notebook.internal/api", cfg.Backend.BaseURL)
	assert.Equal(t, "secret", cfg.Backend.Token)
	assert.Equal(t, "gpt-4o-mini", cfg.Chat.DefaultModel)
	// Unset keys keep their defaults.
	assert.Equal(t, "/settings/models", cfg.Chat.SettingsURL)
}
