package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neointegratech/portal-client/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/api", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 10*time.Second, cfg.Poll.Interval)
	assert.Equal(t, ":8000", cfg.Stub.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.NotEmpty(t, cfg.Token.Path)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	content := []byte(`api:
  base_url: https://portal.example.com/api
  timeout: 5s
token:
  path: ""
poll:
  interval: 2s
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://portal.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 2*time.Second, cfg.Poll.Interval)
	assert.Equal(t, "debug", cfg.Log.Level)
	// An empty configured path still resolves to a usable location.
	assert.NotEmpty(t, cfg.Token.Path)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("PORTAL_API_BASE_URL", "https://env.example.com/api")
	t.Setenv("PORTAL_LOG_LEVEL", "warn")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	_, err := config.LoadConfig()
	require.Error(t, err)
}
