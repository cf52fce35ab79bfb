package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// emptyDir guarantees no config.toml is picked up from the package directory.
func emptyDir(t *testing.T) string {
	t.Helper()
	return t.TempDir()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "procurement-service", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, "po:prefs:", cfg.Redis.KeyPrefix)
	assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, "procurement-service", cfg.Telemetry.ServiceName)
	assert.Equal(t, "America/Sao_Paulo", cfg.Procurement.Location)
	assert.Equal(t, 0, cfg.Procurement.DefaultPaymentWindowDays)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PO_APP_PORT", "9000")
	t.Setenv("PO_LOG_LEVEL", "debug")
	t.Setenv("PO_REDIS_ENABLED", "true")
	t.Setenv("PO_REDIS_HOST", "cache.local")
	t.Setenv("PO_REDIS_DB", "2")
	t.Setenv("PO_TELEMETRY_SAMPLING_RATIO", "0")
	t.Setenv("PO_PROCUREMENT_LOCATION", "UTC")
	t.Setenv("PO_PROCUREMENT_DEFAULT_PAYMENT_WINDOW_DAYS", "10")

	cfg, err := LoadFrom(emptyDir(t))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.App.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache.local:6379", cfg.Redis.Addr())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, 0.0, cfg.Telemetry.SamplingRatio)
	assert.Equal(t, 10, cfg.Procurement.DefaultPaymentWindowDays)

	loc, err := cfg.Procurement.LoadLocation()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[app]
name = "po-api"

[http]
read_timeout = "5s"
cors_allow_origins = ["http://localhost:3000"]

[procurement]
location = "UTC"
default_payment_window_days = 7
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "po-api", cfg.App.Name)
	assert.Equal(t, "po-api", cfg.Telemetry.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.CORSAllowOrigins)
	assert.Equal(t, 7, cfg.Procurement.DefaultPaymentWindowDays)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[app\nname="), 0o600))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		msg  string
	}{
		{"bad log level", map[string]string{"PO_LOG_LEVEL": "trace"}, "log.level"},
		{"bad log format", map[string]string{"PO_LOG_FORMAT": "xml"}, "log.format"},
		{"sampling above one", map[string]string{"PO_TELEMETRY_SAMPLING_RATIO": "1.5"}, "sampling_ratio"},
		{"negative window days", map[string]string{"PO_PROCUREMENT_DEFAULT_PAYMENT_WINDOW_DAYS": "-1"}, "default_payment_window_days"},
		{"unknown location", map[string]string{"PO_PROCUREMENT_LOCATION": "Mars/Olympus"}, "procurement.location"},
		{"negative redis db", map[string]string{"PO_REDIS_DB": "-1"}, "redis.db"},
		{"wildcard cors in production", map[string]string{
			"PO_APP_ENV":                 "production",
			"PO_HTTP_CORS_ALLOW_ORIGINS": "*",
		}, "cors_allow_origins"},
		{"redis without password in production", map[string]string{
			"PO_APP_ENV":       "production",
			"PO_REDIS_ENABLED": "true",
		}, "redis.password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFrom(emptyDir(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
