package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Oracle.Provider)
	assert.Equal(t, 10, cfg.Session.TranscriptWindow)
	assert.Equal(t, 16, cfg.Session.CredentialMinLength)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oracle:
  provider: openai
  model: gpt-4o-mini
  timeout: 30s
session:
  transcript_window: 4
  credential_min_length: 8
logging:
  debug_mode: true
  level: debug
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Oracle.Provider)
	assert.Equal(t, 4, cfg.Session.TranscriptWindow)
	assert.True(t, cfg.Logging.DebugMode)

	d, err := cfg.OracleTimeout()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, d)
}

func TestLoadBrokenFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oracle: ["), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIRAGE_PROVIDER", "gemini")
	t.Setenv("MIRAGE_API_KEY", "from-env")
	t.Setenv("MIRAGE_DEBUG", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Oracle.Provider)
	assert.Equal(t, "from-env", cfg.Oracle.APIKey)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.TranscriptWindow = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Session.CredentialMinLength = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Oracle.Timeout = "not-a-duration"
	assert.Error(t, cfg.Validate())
}
