package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all command configuration.
type Config struct {
	Runtime RuntimeConfig
	Resolve ResolveConfig
	Logging LogConfig
	Metrics MetricsConfig
}

// RuntimeConfig holds sandbox execution settings.
type RuntimeConfig struct {
	Timeout          time.Duration `envconfig:"CTXRUN_TIMEOUT" default:"30s"`
	MaxCallStackSize int           `envconfig:"CTXRUN_MAX_CALL_STACK" default:"0"`
	Console          bool          `envconfig:"CTXRUN_CONSOLE" default:"true"`
}

// ResolveConfig holds module resolution settings.
type ResolveConfig struct {
	Index    bool              `envconfig:"CTXRUN_INDEX" default:"false"`
	SkipDirs []string          `envconfig:"CTXRUN_SKIP_DIRS" default:".git"`
	Aliases  map[string]string `envconfig:"CTXRUN_ALIASES"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// MetricsConfig holds metrics reporting configuration.
type MetricsConfig struct {
	Enabled bool `envconfig:"CTXRUN_METRICS" default:"false"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Timeout: 30 * time.Second,
			Console: true,
		},
		Resolve: ResolveConfig{
			SkipDirs: []string{".git"},
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
