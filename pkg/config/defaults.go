package config

import (
	"strings"
	"time"
)

// ApplyDefaults fills in default values for any unset configuration fields.
//
// This is called after loading configuration from file/environment to ensure
// all fields have sensible values. It only sets defaults for zero values,
// preserving any explicitly configured settings.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)

	cfg.Tracker.ApplyDefaults()
	cfg.DOUT1.ApplyDefaults()
	cfg.Database.ApplyDefaults()
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets default logging configuration.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize to uppercase
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyShutdownTimeoutDefaults sets the default graceful shutdown timeout.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets default metrics server configuration.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
