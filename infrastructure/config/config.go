// Package config loads the service configuration from the environment and an
// optional YAML file, and reloads the runtime-adjustable part of it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	StoreSupabase = "supabase"
	StoreMemory   = "memory"
)

// Event bus backends
const (
	EventBusLog         = "log"
	EventBusRedis       = "redis"
	EventBusEventBridge = "eventbridge"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Environment string `yaml:"environment"`
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"log_level"`

	// Remote store
	StoreBackend      string        `yaml:"store_backend"`
	SupabaseURL       string        `yaml:"supabase_url"`
	SupabaseAnonKey   string        `yaml:"supabase_anon_key"`
	SupabaseJWTSecret string        `yaml:"supabase_jwt_secret"`
	ImageBucket       string        `yaml:"image_bucket"`
	RemoteTimeout     time.Duration `yaml:"remote_timeout"`

	// Domain events
	EventBus     string `yaml:"event_bus"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisChannel string `yaml:"redis_channel"`
	EventBusName string `yaml:"event_bus_name"`
	AWSRegion    string `yaml:"aws_region"`

	// Observability
	EnableMetrics     bool    `yaml:"enable_metrics"`
	EnableTracing     bool    `yaml:"enable_tracing"`
	OTLPEndpoint      string  `yaml:"otlp_endpoint"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate"`

	// HTTP surface
	CORSAllowedOrigins    []string `yaml:"cors_allowed_origins"`
	RateLimitPerMinute    int      `yaml:"rate_limit_per_minute"`
	CircuitBreakerEnabled bool     `yaml:"circuit_breaker_enabled"`

	// Reports
	OrganizationName string `yaml:"organization_name"`

	// ConfigFile is the YAML overlay the values were read from, if any
	ConfigFile string `yaml:"-"`
}

// LoadConfig reads the environment and overlays CONFIG_FILE when it is set
func LoadConfig() (*Config, error) {
	cfg := fromEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv() *Config {
	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StoreBackend:      getEnv("STORE_BACKEND", StoreSupabase),
		SupabaseURL:       getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		ImageBucket:       getEnv("IMAGE_BUCKET", "discussion-images"),
		RemoteTimeout:     getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),

		EventBus:     getEnv("EVENT_BUS", EventBusLog),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisChannel: getEnv("REDIS_CHANNEL", "cytosight.events"),
		EventBusName: getEnv("EVENT_BUS_NAME", "cytosight-events"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),

		EnableMetrics:     getEnvBool("ENABLE_METRICS", true),
		EnableTracing:     getEnvBool("ENABLE_TRACING", false),
		OTLPEndpoint:      getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 1.0),

		CORSAllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		RateLimitPerMinute:    getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CircuitBreakerEnabled: getEnvBool("CIRCUIT_BREAKER_ENABLED", true),

		OrganizationName: getEnv("ORGANIZATION_NAME", ""),
	}
}

// overlayFile decodes path on top of c. Keys missing from the file keep
// their current values.
func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	c.ConfigFile = path
	return nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StoreSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.EventBus {
	case EventBusLog:
	case EventBusRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis event bus")
		}
	case EventBusEventBridge:
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required for the eventbridge event bus")
		}
	default:
		return fmt.Errorf("unknown EVENT_BUS %q", c.EventBus)
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.IsProduction() && c.StoreBackend == StoreMemory {
		return fmt.Errorf("the memory store cannot be used in production")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Runtime is the part of the configuration that can change without a restart
type Runtime struct {
	LogLevel           zapcore.Level
	RateLimitPerMinute int
}

// Runtime extracts the hot-reloadable settings
func (c *Config) Runtime() Runtime {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	return Runtime{LogLevel: level, RateLimitPerMinute: c.RateLimitPerMinute}
}

// NewLogger builds the service logger. Its level is held in the returned
// AtomicLevel so the watcher can change it at runtime.
func NewLogger(c *Config) (*zap.Logger, zap.AtomicLevel, error) {
	var zc zap.Config
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	level := zap.NewAtomicLevelAt(c.Runtime().LogLevel)
	zc.Level = level

	logger, err := zc.Build(zap.Fields(zap.String("environment", c.Environment)))
	if err != nil {
		return nil, level, fmt.Errorf("build logger: %w", err)
	}
	return logger, level, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
