package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultEnvPrefix is the environment variable prefix used when none is set.
const DefaultEnvPrefix = "INVIGILATE"

// Flag names bound by RegisterFlags.
const (
	FlagMaxDepth     = "max-depth"
	FlagLogger       = "logger"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
	FlagExtraMethods = "extra-methods"
)

// Loader defines the interface for loading configuration
type Loader interface {
	Load() (*Config, error)
	Validate(*Config) error
}

// ViperLoader implements Loader using Viper for configuration management
type ViperLoader struct {
	configFile string
	envPrefix  string
	flags      *pflag.FlagSet
	v          *viper.Viper
}

// NewViperLoader creates a new ViperLoader
// configFile: path to configuration file (optional, can be empty)
// envPrefix: prefix for environment variables (defaults to INVIGILATE)
func NewViperLoader(configFile, envPrefix string) *ViperLoader {
	return &ViperLoader{
		configFile: configFile,
		envPrefix:  envPrefix,
		v:          viper.New(),
	}
}

// WithFlags binds command-line flags registered with RegisterFlags. Flags
// only take effect when set explicitly.
func (l *ViperLoader) WithFlags(flags *pflag.FlagSet) *ViperLoader {
	l.flags = flags
	return l
}

// ConfigFile returns the path to the config file, or empty string if none.
func (l *ViperLoader) ConfigFile() string {
	return l.configFile
}

// Load loads configuration with precedence: flags > ENV > file > defaults
func (l *ViperLoader) Load() (*Config, error) {
	v := viper.New()
	l.v = v

	l.setDefaults(v, DefaultConfig())

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", l.configFile, err)
		}
	}

	v.SetEnvPrefix(l.prefix())
	l.bindEnvVars(v)

	if err := l.bindFlags(v); err != nil {
		return nil, err
	}

	// An unusable depth keeps the default instead of failing the load.
	if _, err := cast.ToIntE(v.Get("cache.max_depth")); err != nil {
		v.Set("cache.max_depth", DefaultConfig().Cache.MaxDepth)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := l.Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// AllSettings returns the merged settings of the last Load.
func (l *ViperLoader) AllSettings() map[string]any {
	if l == nil || l.v == nil {
		return map[string]any{}
	}
	return l.v.AllSettings()
}

// Validate normalizes cfg and validates it.
func (l *ViperLoader) Validate(cfg *Config) error {
	cfg.Loggers.Default = strings.ToLower(strings.TrimSpace(cfg.Loggers.Default))
	cfg.Loggers.ExtraMethods = normalizeStringSlice(cfg.Loggers.ExtraMethods)
	return cfg.Validate()
}

func (l *ViperLoader) bindEnvVars(v *viper.Viper) {
	v.BindEnv("cache.max_depth", l.prefixedEnv("CACHE_MAX_DEPTH"), l.prefixedEnv("MAX_DEPTH"))

	v.BindEnv("loggers.extra_methods", l.prefixedEnv("LOGGERS_EXTRA_METHODS"))
	v.BindEnv("loggers.default", l.prefixedEnv("LOGGERS_DEFAULT"), l.prefixedEnv("LOGGER"))
	v.BindEnv("loggers.level", l.prefixedEnv("LOGGERS_LEVEL"), l.prefixedEnv("LOG_LEVEL"))
	v.BindEnv("loggers.format", l.prefixedEnv("LOGGERS_FORMAT"), l.prefixedEnv("LOG_FORMAT"))
	v.BindEnv("loggers.diagnostics", l.prefixedEnv("LOGGERS_DIAGNOSTICS"))

	v.BindEnv("loggers.async.enabled", l.prefixedEnv("LOGGERS_ASYNC_ENABLED"))
	v.BindEnv("loggers.async.queue_size", l.prefixedEnv("LOGGERS_ASYNC_QUEUE_SIZE"))
	v.BindEnv("loggers.async.worker_count", l.prefixedEnv("LOGGERS_ASYNC_WORKER_COUNT"))
	v.BindEnv("loggers.async.drop_when_full", l.prefixedEnv("LOGGERS_ASYNC_DROP_WHEN_FULL"))
}

func (l *ViperLoader) bindFlags(v *viper.Viper) error {
	if l.flags == nil {
		return nil
	}
	bindings := []struct {
		key  string
		flag string
	}{
		{"cache.max_depth", FlagMaxDepth},
		{"loggers.default", FlagLogger},
		{"loggers.level", FlagLogLevel},
		{"loggers.format", FlagLogFormat},
		{"loggers.extra_methods", FlagExtraMethods},
	}
	for _, b := range bindings {
		flag := l.flags.Lookup(b.flag)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(b.key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", b.flag, err)
		}
	}
	return nil
}

func (l *ViperLoader) prefix() string {
	prefix := strings.TrimSpace(l.envPrefix)
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return strings.ToUpper(prefix)
}

func (l *ViperLoader) prefixedEnv(suffix string) string {
	return fmt.Sprintf("%s_%s", l.prefix(), suffix)
}

// setDefaults sets default values in Viper from the default config
func (l *ViperLoader) setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("cache.max_depth", cfg.Cache.MaxDepth)

	v.SetDefault("loggers.extra_methods", cfg.Loggers.ExtraMethods)
	v.SetDefault("loggers.default", cfg.Loggers.Default)
	v.SetDefault("loggers.level", cfg.Loggers.Level)
	v.SetDefault("loggers.format", cfg.Loggers.Format)
	v.SetDefault("loggers.diagnostics", cfg.Loggers.Diagnostics)

	v.SetDefault("loggers.async.enabled", cfg.Loggers.Async.Enabled)
	v.SetDefault("loggers.async.queue_size", cfg.Loggers.Async.QueueSize)
	v.SetDefault("loggers.async.worker_count", cfg.Loggers.Async.WorkerCount)
	v.SetDefault("loggers.async.drop_when_full", cfg.Loggers.Async.DropWhenFull)
}

// RegisterFlags registers the configuration flags on flags. Pass the same
// set to WithFlags.
func RegisterFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()
	flags.String(FlagMaxDepth, "", fmt.Sprintf("ancestor search depth (default %d)", defaults.Cache.MaxDepth))
	flags.String(FlagLogger, defaults.Loggers.Default, "default logger backend: silent, zap, hclog or zerolog")
	flags.String(FlagLogLevel, defaults.Loggers.Level, "default logger level")
	flags.String(FlagLogFormat, defaults.Loggers.Format, "default logger format: text or json")
	flags.StringSlice(FlagExtraMethods, nil, "additional logger method names, e.g. silly,verbose")
}

// normalizeStringSlice removes empty strings and trims whitespace
func normalizeStringSlice(values []string) []string {
	result := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
