// Loader and default configuration tests.
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- defaults ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "lifeos.db", cfg.Database.Name)

	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SummaryTTL)

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.LLM.Model)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "lifeos-aiq", cfg.Telemetry.ServiceName)

	assert.Equal(t, "development", cfg.Tracking.Environment)
	assert.Equal(t, 2*time.Second, cfg.Tracking.EmitTimeout)

	assert.Equal(t, "0 9 * * 1", cfg.Analysis.Schedule)
	assert.Equal(t, 7, cfg.Analysis.WindowDays)
	assert.Equal(t, 30, cfg.Analysis.SummaryWindowDays)
}

// --- loader ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
server:
  http_port: 8888
llm:
  provider: anthropic
  model: claude-3-5-haiku
analysis:
  window_days: 14
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku", cfg.LLM.Model)
	assert.Equal(t, 14, cfg.Analysis.WindowDays)
	// Untouched sections keep their defaults.
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
}

func TestLoader_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath("/nonexistent/config.yaml").Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  http_port: 8888\n"), 0o644))

	t.Setenv("LIFEOS_SERVER_HTTP_PORT", "9999")
	t.Setenv("LIFEOS_LLM_API_KEY", "env-secret")
	t.Setenv("LIFEOS_REDIS_ENABLED", "true")
	t.Setenv("LIFEOS_TRACKING_EMIT_TIMEOUT", "5s")

	cfg, err := NewLoader().WithConfigPath(configPath).Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.HTTPPort)
	assert.Equal(t, "env-secret", cfg.LLM.APIKey)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Tracking.EmitTimeout)
}

func TestLoader_CustomEnvPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER_HTTP_PORT", "7777")

	cfg, err := NewLoader().WithEnvPrefix("MYAPP").Load()
	require.NoError(t, err)
	assert.Equal(t, 7777, cfg.Server.HTTPPort)
}

func TestLoader_StringSliceFromEnv(t *testing.T) {
	t.Setenv("LIFEOS_LOG_OUTPUT_PATHS", "stdout, /var/log/lifeos.log")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"stdout", "/var/log/lifeos.log"}, cfg.Log.OutputPaths)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("LIFEOS_SERVER_HTTP_PORT", "not-a-number")

	_, err := NewLoader().Load()
	require.Error(t, err)
}

func TestLoader_CustomValidator(t *testing.T) {
	_, err := NewLoader().WithValidator(func(c *Config) error {
		if c.LLM.APIKey == "" {
			return assert.AnError
		}
		return nil
	}).Load()
	require.Error(t, err)
}

// --- validation ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults pass", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "unsupported database driver"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "openai" }, "unsupported llm provider"},
		{"bad window", func(c *Config) { c.Analysis.WindowDays = 0 }, "window_days must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	sqlite := DatabaseConfig{Driver: "sqlite", Name: "test.db"}
	assert.Equal(t, "test.db", sqlite.DSN())

	pg := DatabaseConfig{
		Driver: "postgres", Host: "db", Port: 5432,
		User: "lifeos", Password: "secret", Name: "metrics", SSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=lifeos password=secret dbname=metrics sslmode=disable", pg.DSN())
}
