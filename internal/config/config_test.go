package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "data/taskgenie.db", cfg.Database.Path)
	assert.Equal(t, "gemini-1.5-pro", cfg.Gemini.PrimaryModel)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.FallbackModel)
	assert.Equal(t, 5*time.Second, cfg.Gemini.GetRetryDelay())
	assert.Equal(t, 10*time.Second, cfg.Server.GetShutdownTimeout())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
server:
  addr: ":9090"
database:
  path: /tmp/tasks.db
gemini:
  api_key: file-key
  primary_model: gemini-2.0-pro
  retry_delay: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "/tmp/tasks.db", cfg.Database.Path)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-pro", cfg.Gemini.PrimaryModel)
	// Unset fields keep their defaults.
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.FallbackModel)
	assert.Equal(t, 2*time.Second, cfg.Gemini.GetRetryDelay())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("TASKGENIE_ADDR", ":7070")
	t.Setenv("TASKGENIE_DB", "/var/lib/taskgenie.db")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/taskgenie.db", cfg.Database.Path)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.Error(t, cfg.Validate()) // no API key

	cfg.Gemini.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Database.Path = ""
	require.Error(t, cfg.Validate())
}

func TestDurationFallbacks(t *testing.T) {
	g := GeminiConfig{RetryDelay: "not-a-duration"}
	assert.Equal(t, 5*time.Second, g.GetRetryDelay())

	s := ServerConfig{ShutdownTimeout: "-3s"}
	assert.Equal(t, 10*time.Second, s.GetShutdownTimeout())
}
