package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
backend:
  mode: mock
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "mock", cfg.Backend.Mode)
	require.Equal(t, "sqlite", cfg.Storage.Type)
	require.Equal(t, "quotedeck.db", cfg.Storage.FilePath)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8640, cfg.Server.Port)
	require.False(t, cfg.Scheduler.Enabled)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, 10*time.Second, cfg.Backend.GetTimeout())
	require.Equal(t, 15*time.Second, cfg.Server.GetReadTimeout())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
backend:
  mode: remote
  base_url: https://example.test
  timeout: 3s
storage:
  type: mysql
  host: db.local
  database: quotes
server:
  port: 9000
scheduler:
  enabled: true
  interval: "@every 30s"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "https://example.test", cfg.Backend.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Backend.GetTimeout())
	require.Equal(t, "mysql", cfg.Storage.Type)
	require.Equal(t, 9000, cfg.Server.Port)
	require.True(t, cfg.Scheduler.Enabled)
}

func TestValidation(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "backend:\n  mode: carrier-pigeon\n"))
	require.Error(t, err)

	// Remote mode demands a base URL.
	_, err = LoadConfig(writeConfig(t, "backend:\n  mode: remote\n"))
	require.Error(t, err)

	// MySQL storage demands connection details.
	_, err = LoadConfig(writeConfig(t, `
backend:
  mode: mock
storage:
  type: mysql
`))
	require.Error(t, err)
}

func TestBadTimeoutFallsBack(t *testing.T) {
	cfg := BackendConfig{Timeout: "not-a-duration"}
	require.Equal(t, 10*time.Second, cfg.GetTimeout())

	srv := ServerConfig{ReadTimeout: "not-a-duration", WriteTimeout: "-3s"}
	require.Equal(t, 15*time.Second, srv.GetReadTimeout())
	require.Equal(t, 15*time.Second, srv.GetWriteTimeout())
}
