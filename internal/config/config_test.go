package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezoic/finml/internal/config"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, uint64(42), cfg.Pipeline.Seed)
	assert.InDelta(t, 0.3, cfg.Pipeline.TestSize, 1e-12)
	assert.InDelta(t, 0.5, cfg.Pipeline.OutlierThreshold, 1e-12)
	assert.Equal(t, "yahoo", cfg.Market.Provider)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
log:
  level: debug
  format: json
market:
  provider: alpaca
  timeout: 5s
pipeline:
  seed: 7
  test_size: 0.2
charts:
  width: 10
`)
	t.Setenv("FINML_PIPELINE_TEST_SIZE", "0.25")
	t.Setenv("FINML_MARKET_API_KEY", "key")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "alpaca", cfg.Market.Provider)
	assert.Equal(t, 5*time.Second, cfg.Market.Timeout)
	assert.Equal(t, "key", cfg.Market.APIKey)
	assert.Equal(t, uint64(7), cfg.Pipeline.Seed)
	assert.InDelta(t, 0.25, cfg.Pipeline.TestSize, 1e-12)
	assert.InDelta(t, 10.0, cfg.Charts.Width, 1e-12)
	// Untouched sections keep their defaults.
	assert.InDelta(t, 5.0, cfg.Charts.Height, 1e-12)
	assert.Equal(t, 30, cfg.Pipeline.LongWindow)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "test size too large", yaml: "pipeline:\n  test_size: 0.9\n"},
		{name: "unknown provider", yaml: "market:\n  provider: bloomberg\n"},
		{name: "bad log level", env: map[string]string{"FINML_LOG_LEVEL": "verbose"}},
		{name: "non numeric env", env: map[string]string{"FINML_PIPELINE_SEED": "abc"}},
		{name: "windows inverted", yaml: "pipeline:\n  short_window: 40\n  long_window: 30\n"},
		{name: "malformed yaml", yaml: "pipeline: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, tt.yaml)
			}
			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
