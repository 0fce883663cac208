package config

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns on metrics collection.
	// Default: false
	Enabled *bool `json:"enabled,omitempty" koanf:"enabled" toml:"enabled,omitempty"`

	// Address is where `gridplug serve` exposes /metrics.
	// Default: "127.0.0.1:9464"
	Address string `json:"address,omitempty" koanf:"address" toml:"address,omitempty" validate:"omitempty,hostname_port"`

	// ShutdownTimeout bounds the graceful shutdown of the metrics server.
	// Default: "5s"
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" koanf:"shutdown_timeout" toml:"shutdown_timeout,omitempty"`
}

// IsEnabled returns whether metrics collection is enabled.
func (m *MetricsConfig) IsEnabled() bool {
	if m == nil || m.Enabled == nil {
		return false
	}

	return *m.Enabled
}
