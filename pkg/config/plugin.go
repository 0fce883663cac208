package config

// Plugin categories known to gridplug.
const (
	CategoryNetwork  = "network"
	CategoryResource = "resource"
)

// PluginConfig contains configuration for the plugin system.
type PluginConfig struct {
	// Home overrides the plugin root directory.
	// Can also be set with GRIDPLUG_PLUGIN_HOME.
	// Default: "/var/lib/gridplug/plugins"
	Home string `json:"home,omitempty" koanf:"home" toml:"home,omitempty"`

	// Network holds the operation bindings of network plugins.
	Network *CategoryConfig `json:"network,omitempty" koanf:"network" toml:"network,omitempty"`

	// Resource holds the operation bindings of resource plugins.
	Resource *CategoryConfig `json:"resource,omitempty" koanf:"resource" toml:"resource,omitempty"`
}

// Category returns the binding configuration of a category, or nil when the
// category is unknown or not configured.
func (p *PluginConfig) Category(name string) *CategoryConfig {
	if p == nil {
		return nil
	}

	switch name {
	case CategoryNetwork:
		return p.Network
	case CategoryResource:
		return p.Resource
	default:
		return nil
	}
}

// CategoryConfig lists the operations bound for every plugin of one category.
type CategoryConfig struct {
	// StartOperation names the symbol run when a network plugin starts.
	// Empty keeps the built-in no-op.
	StartOperation string `json:"start_operation,omitempty" koanf:"start_operation" toml:"start_operation,omitempty"`

	// StopOperation names the symbol run when a network plugin stops.
	// Empty keeps the built-in no-op.
	StopOperation string `json:"stop_operation,omitempty" koanf:"stop_operation" toml:"stop_operation,omitempty"`

	// Operations is the ordered binding list. Later entries overwrite earlier
	// entries with the same name.
	Operations []*OperationConfig `json:"operations,omitempty" koanf:"operations" toml:"operations,omitempty"`
}

// OperationConfig binds an operation name to an exported symbol.
type OperationConfig struct {
	// Name is the operation name used by callers of Invoke.
	Name string `json:"name" koanf:"name" toml:"name"`

	// Symbol is the exported symbol implementing the operation.
	Symbol string `json:"symbol" koanf:"symbol" toml:"symbol"`
}

// InstanceConfig describes one plugin instance to load.
type InstanceConfig struct {
	// Category is the plugin category ("network" or "resource").
	Category string `json:"category" jsonschema:"enum=network,enum=resource" koanf:"category" toml:"category" validate:"required,oneof=network resource"`

	// Name is the requested plugin name. It maps to lib<name>.so.
	Name string `json:"name" koanf:"name" toml:"name" validate:"required,plugin_name"`

	// Instance labels the loaded plugin in logs, metrics and policy rules.
	// Default: Name
	Instance string `json:"instance,omitempty" koanf:"instance" toml:"instance,omitempty"`

	// Context is passed verbatim to the plugin factory.
	Context string `json:"context,omitempty" koanf:"context" toml:"context,omitempty"`
}

// GetInstance returns the instance label, falling back to the plugin name.
func (i *InstanceConfig) GetInstance() string {
	if i.Instance == "" {
		return i.Name
	}

	return i.Instance
}
