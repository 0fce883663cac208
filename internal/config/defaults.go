package config

import (
	"time"

	"github.com/smykla-skalski/gridplug/pkg/config"
)

const (
	// DefaultLogLevel is the log level used when none is configured.
	DefaultLogLevel = "info"

	// DefaultMetricsAddress is where `gridplug serve` exposes /metrics.
	DefaultMetricsAddress = "127.0.0.1:9464"

	// DefaultShutdownTimeout bounds the graceful shutdown of the metrics server.
	DefaultShutdownTimeout = 5 * time.Second
)

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() *config.Config {
	return &config.Config{
		Log:     DefaultLogConfig(),
		Plugin:  DefaultPluginConfig(),
		Policy:  DefaultPolicyConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() *config.LogConfig {
	return &config.LogConfig{
		Level: DefaultLogLevel,
	}
}

// DefaultPluginConfig returns an empty binding configuration for both
// categories. Network plugins keep the no-op lifecycle operations.
func DefaultPluginConfig() *config.PluginConfig {
	return &config.PluginConfig{
		Network:  &config.CategoryConfig{},
		Resource: &config.CategoryConfig{},
	}
}

// DefaultPolicyConfig returns the default policy configuration.
// The rule engine is disabled and no rules are pre-defined.
func DefaultPolicyConfig() *config.PolicyConfig {
	enabled := false

	return &config.PolicyConfig{
		Enabled: &enabled,
	}
}

// DefaultMetricsConfig returns the default metrics configuration.
func DefaultMetricsConfig() *config.MetricsConfig {
	enabled := false

	return &config.MetricsConfig{
		Enabled:         &enabled,
		Address:         DefaultMetricsAddress,
		ShutdownTimeout: config.Duration(DefaultShutdownTimeout),
	}
}
