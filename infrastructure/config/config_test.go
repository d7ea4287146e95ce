package config

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func memoryEnv(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreMemory)
	t.Setenv("CONFIG_FILE", "")
}

func TestLoadConfig_Defaults(t *testing.T) {
	memoryEnv(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "discussion-images", cfg.ImageBucket)
	assert.Equal(t, EventBusLog, cfg.EventBus)
	assert.Equal(t, 10*time.Second, cfg.RemoteTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfig_Environment(t *testing.T) {
	memoryEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.test, ,https://b.test")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("REMOTE_TIMEOUT", "2s")
	t.Setenv("ENABLE_TRACING", "yes")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 30, cfg.RateLimitPerMinute)
	assert.Equal(t, 2*time.Second, cfg.RemoteTimeout)
	assert.True(t, cfg.EnableTracing)
}

func TestLoadConfig_FileOverlaysEnvironment(t *testing.T) {
	memoryEnv(t)
	t.Setenv("LOG_LEVEL", "info")
	path := filepath.Join(t.TempDir(), "cytosight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nremote_timeout: 3s\norganization_name: North Lab\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.Equal(t, "North Lab", cfg.OrganizationName)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoadConfig_BadFile(t *testing.T) {
	memoryEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"memory store", func(c *Config) {}, false},
		{"supabase without url", func(c *Config) { c.StoreBackend = StoreSupabase }, true},
		{"supabase with credentials", func(c *Config) {
			c.StoreBackend = StoreSupabase
			c.SupabaseURL = "https://x.supabase.co"
			c.SupabaseAnonKey = "anon"
		}, false},
		{"unknown store", func(c *Config) { c.StoreBackend = "sqlite" }, true},
		{"unknown bus", func(c *Config) { c.EventBus = "kafka" }, true},
		{"eventbridge without name", func(c *Config) { c.EventBus = EventBusEventBridge; c.EventBusName = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, true},
		{"memory in production", func(c *Config) { c.Environment = "production" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			memoryEnv(t)
			cfg := fromEnv()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLogger_LevelIsAdjustable(t *testing.T) {
	memoryEnv(t)
	cfg := fromEnv()
	cfg.LogLevel = "warn"

	logger, level, err := NewLogger(cfg)
	require.NoError(t, err)
	defer logger.Sync() //nolint:errcheck

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	ApplyLogLevel(level)(Runtime{LogLevel: zapcore.DebugLevel})
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestWatcher_ReloadsRuntimeSettings(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "cytosight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\nrate_limit_per_minute: 60\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	w, err := newWatcher(cfg, zap.NewNop(), 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	var rate atomic.Int64
	w.OnChange(func(r Runtime) { rate.Store(int64(r.RateLimitPerMinute)) })

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nrate_limit_per_minute: 5\n"), 0o600))

	require.Eventually(t, func() bool { return rate.Load() == 5 }, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, zapcore.DebugLevel, w.Current().LogLevel)
}

func TestWatcher_IgnoresInvalidFile(t *testing.T) {
	memoryEnv(t)
	path := filepath.Join(t.TempDir(), "cytosight.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	w, err := newWatcher(cfg, zap.NewNop(), time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log_level: shouting\n"), 0o600))
	w.reload()

	assert.Equal(t, zapcore.InfoLevel, w.Current().LogLevel)
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(&Config{}, zap.NewNop())
	assert.Error(t, err)
}
