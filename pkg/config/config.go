// Package config provides configuration schema types for gridplug.
package config

// Config represents the root configuration for gridplug.
type Config struct {
	// Log controls process-wide logging.
	Log *LogConfig `json:"log,omitempty" koanf:"log" toml:"log,omitempty"`

	// Plugin holds the plugin root and per-category binding lists.
	Plugin *PluginConfig `json:"plugin,omitempty" koanf:"plugin" toml:"plugin,omitempty"`

	// Instances lists the plugin instances loaded at startup.
	Instances []*InstanceConfig `json:"instances,omitempty" koanf:"instances" toml:"instances,omitempty" validate:"omitempty,dive"`

	// Policy configures the rule engine that runs before and after every operation.
	Policy *PolicyConfig `json:"policy,omitempty" koanf:"policy" toml:"policy,omitempty"`

	// Metrics configures Prometheus metrics collection.
	Metrics *MetricsConfig `json:"metrics,omitempty" koanf:"metrics" toml:"metrics,omitempty"`
}

// GetLog returns the log config, creating it if it doesn't exist.
func (c *Config) GetLog() *LogConfig {
	if c.Log == nil {
		c.Log = &LogConfig{}
	}

	return c.Log
}

// GetPlugin returns the plugin config, creating it if it doesn't exist.
func (c *Config) GetPlugin() *PluginConfig {
	if c.Plugin == nil {
		c.Plugin = &PluginConfig{}
	}

	return c.Plugin
}

// GetPolicy returns the policy config, creating it if it doesn't exist.
func (c *Config) GetPolicy() *PolicyConfig {
	if c.Policy == nil {
		c.Policy = &PolicyConfig{}
	}

	return c.Policy
}

// GetMetrics returns the metrics config, creating it if it doesn't exist.
func (c *Config) GetMetrics() *MetricsConfig {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}

	return c.Metrics
}

// InstancesFor returns the configured instances of one category, in order.
func (c *Config) InstancesFor(category string) []*InstanceConfig {
	out := make([]*InstanceConfig, 0, len(c.Instances))

	for _, inst := range c.Instances {
		if inst != nil && inst.Category == category {
			out = append(out, inst)
		}
	}

	return out
}
