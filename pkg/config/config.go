package config

import (
	"github.com/nimburion/invigilate/pkg/invigilate"
	"github.com/nimburion/invigilate/pkg/observability/logger"
)

// Default logger backends.
const (
	// BackendSilent keeps the silent logger as the default.
	BackendSilent = "silent"
	// BackendZap writes through go.uber.org/zap.
	BackendZap = "zap"
	// BackendHCLog writes through hashicorp/go-hclog.
	BackendHCLog = "hclog"
	// BackendZerolog writes through rs/zerolog.
	BackendZerolog = "zerolog"
)

// Config is the root configuration structure.
type Config struct {
	Cache   CacheConfig   `mapstructure:"cache"`
	Loggers LoggersConfig `mapstructure:"loggers"`
}

// CacheConfig configures the context cache.
type CacheConfig struct {
	// MaxDepth is the number of units inspected when looking for a
	// registered ancestor. Negative values behave like zero.
	MaxDepth int `mapstructure:"max_depth"`
}

// LoggersConfig configures the logger registry and its default logger.
type LoggersConfig struct {
	// ExtraMethods are recognized on top of the base method set, e.g. silly.
	ExtraMethods []string `mapstructure:"extra_methods"`
	// Default selects the default logger backend.
	Default string `mapstructure:"default"`
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	// Diagnostics routes the registry's own debug output to the default
	// backend through its structured logger. The silent backend has nowhere
	// to write, so it ignores the flag.
	Diagnostics bool               `mapstructure:"diagnostics"`
	Async       logger.AsyncConfig `mapstructure:"async"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			MaxDepth: invigilate.DefaultMaxDepth,
		},
		Loggers: LoggersConfig{
			ExtraMethods: []string{},
			Default:      BackendSilent,
			Level:        string(logger.InfoLevel),
			Format:       string(logger.TextFormat),
			Async: logger.AsyncConfig{
				QueueSize:   1024,
				WorkerCount: 1,
			},
		},
	}
}
