package config

// Rule phases.
const (
	PhasePre  = "pre"
	PhasePost = "post"
)

// Rule actions.
const (
	ActionAllow = "allow"
	ActionBlock = "block"
)

// PolicyConfig configures the built-in rule engine.
type PolicyConfig struct {
	// Enabled activates the rule engine. When false every operation is bound
	// with a direct, hook-free call.
	// Default: false
	Enabled *bool `json:"enabled,omitempty" koanf:"enabled" toml:"enabled,omitempty"`

	// Rules are evaluated in order; the first matching rule decides.
	Rules []*PolicyRuleConfig `json:"rules,omitempty" koanf:"rules" toml:"rules,omitempty" validate:"omitempty,dive"`
}

// IsEnabled returns whether the rule engine is enabled.
func (p *PolicyConfig) IsEnabled() bool {
	if p == nil || p.Enabled == nil {
		return false
	}

	return *p.Enabled
}

// PolicyRuleConfig is a single before or after rule.
type PolicyRuleConfig struct {
	// Name identifies the rule in logs and errors.
	Name string `json:"name" koanf:"name" toml:"name" validate:"required"`

	// Instance is a glob matched against the plugin instance name.
	// Default: "*"
	Instance string `json:"instance,omitempty" koanf:"instance" toml:"instance,omitempty" validate:"omitempty,glob"`

	// Operation is a glob matched against the operation name.
	// Default: "*"
	Operation string `json:"operation,omitempty" koanf:"operation" toml:"operation,omitempty" validate:"omitempty,glob"`

	// Phase is "pre" or "post".
	// Default: "pre"
	Phase string `json:"phase,omitempty" jsonschema:"enum=pre,enum=post" koanf:"phase" toml:"phase,omitempty" validate:"omitempty,oneof=pre post"`

	// Action is "allow" or "block".
	// Default: "block"
	Action string `json:"action,omitempty" jsonschema:"enum=allow,enum=block" koanf:"action" toml:"action,omitempty" validate:"omitempty,oneof=allow block"`

	// Message is reported when the rule blocks.
	Message string `json:"message,omitempty" koanf:"message" toml:"message,omitempty"`
}
