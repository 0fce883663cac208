package config

// LogConfig controls process-wide logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	// Default: "info"
	Level string `json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error" koanf:"level" toml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// File redirects logs to a file instead of stderr.
	File string `json:"file,omitempty" koanf:"file" toml:"file,omitempty"`
}
