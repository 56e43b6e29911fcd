package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "a missing config file must not be an error")

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Server.Password)
	assert.Equal(t, "output", cfg.Data.EventsDir)
	assert.Equal(t, "data/ohlc_5m.csv", cfg.Data.OHLCPath)
	assert.Equal(t, 60, cfg.Chart.PaddingMinutes)
	assert.False(t, cfg.Chart.ExtendBackward)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 50, cfg.Log.MaxSizeMB)
	assert.Equal(t, time.Hour, cfg.Padding())
}

func Test_Load_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":9000"
  password: "hunter2"
data:
  events_dir: "records"
  ohlc_path: "series.csv"
chart:
  padding_minutes: 30
  extend_backward: true
log:
  level: debug
  file: "viewer.log"
  max_size_mb: 10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "hunter2", cfg.Server.Password)
	assert.Equal(t, "records", cfg.Data.EventsDir)
	assert.Equal(t, "series.csv", cfg.Data.OHLCPath)
	assert.Equal(t, 30, cfg.Chart.PaddingMinutes)
	assert.True(t, cfg.Chart.ExtendBackward)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "viewer.log", cfg.Log.File)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
	assert.Equal(t, 30*time.Minute, cfg.Padding())
}

func Test_Load_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9000\"\n"), 0o644))

	t.Setenv("VIEWER_ADDR", ":7777")
	t.Setenv("VIEWER_PASSWORD", "secret")
	t.Setenv("VIEWER_EVENTS_DIR", "env-records")
	t.Setenv("VIEWER_OHLC_PATH", "env.csv")
	t.Setenv("VIEWER_PADDING_MINUTES", "15")
	t.Setenv("VIEWER_EXTEND_BACKWARD", "true")
	t.Setenv("VIEWER_LOG_LEVEL", "warn")
	t.Setenv("VIEWER_LOG_FILE", "env.log")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7777", cfg.Server.Addr, "environment wins over the file")
	assert.Equal(t, "secret", cfg.Server.Password)
	assert.Equal(t, "env-records", cfg.Data.EventsDir)
	assert.Equal(t, "env.csv", cfg.Data.OHLCPath)
	assert.Equal(t, 15, cfg.Chart.PaddingMinutes)
	assert.True(t, cfg.Chart.ExtendBackward)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "env.log", cfg.Log.File)
}

func Test_Load_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unknown log level",
			content: "log:\n  level: loud\n",
		},
		{
			name:    "negative padding",
			content: "chart:\n  padding_minutes: -5\n",
		},
		{
			name:    "malformed yaml",
			content: "server: [not a mapping\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
