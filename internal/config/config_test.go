package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.Equal(t, 15*time.Second, cfg.Recorder.AutonDwell)
	assert.Equal(t, 250*time.Millisecond, cfg.Recorder.FlashInterval)
	assert.Equal(t, 2*time.Second, cfg.Recorder.NavigateDelay)
	assert.Equal(t, "sqlite", cfg.Drafts.Driver)
	assert.NotEmpty(t, cfg.Drafts.DSN)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.True(t, cfg.Field.RedOnLeft)
	assert.Equal(t, "info", cfg.Logging.Level)

	timing := cfg.Recorder.Timing()
	assert.Equal(t, cfg.Recorder.AutonDwell, timing.AutonDwell)
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "quickscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  base_url: https://scout.example.org
  max_retries: 5
recorder:
  auton_dwell: 10s
drafts:
  driver: memory
logging:
  format: json
`), 0o600))
	t.Setenv("QUICKSCOUT_LOGGING_LEVEL", "debug")
	t.Setenv("QUICKSCOUT_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("QUICKSCOUT_FIELD_RED_ON_LEFT", "false")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://scout.example.org", cfg.Backend.BaseURL)
	assert.Equal(t, 5, cfg.Backend.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Recorder.AutonDwell)
	assert.Equal(t, 250*time.Millisecond, cfg.Recorder.FlashInterval)
	assert.Equal(t, "memory", cfg.Drafts.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
	assert.False(t, cfg.Field.RedOnLeft)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)
	cases := map[string]string{
		"QUICKSCOUT_BACKEND_BASE_URL":    "localhost:5000",
		"QUICKSCOUT_BACKEND_MAX_RETRIES": "-1",
		"QUICKSCOUT_DRAFTS_DRIVER":       "mongo",
		"QUICKSCOUT_LOGGING_LEVEL":       "trace",
		"QUICKSCOUT_LOGGING_FORMAT":      "xml",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
