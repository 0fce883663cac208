// Package config provides internal configuration loading and processing.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/knadh/koanf/maps"
	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/smykla-skalski/gridplug/pkg/config"
)

var (
	// ErrConfigNotFound is returned when an explicitly requested configuration file is missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidPermissions is returned when config file has insecure permissions.
	ErrInvalidPermissions = errors.New("config file has insecure permissions")
)

const (
	// GlobalConfigDir is the directory name for global configuration.
	GlobalConfigDir = ".gridplug"

	// GlobalConfigFile is the name of the global configuration file.
	GlobalConfigFile = "config.toml"

	// ProjectConfigFile is the project configuration file name.
	ProjectConfigFile = "gridplug.toml"

	// EnvPrefix prefixes every environment variable read by the loader.
	EnvPrefix = "GRIDPLUG_"
)

// Flag names understood by flagsToConfig.
const (
	FlagPluginHome  = "plugin-home"
	FlagLogLevel    = "log-level"
	FlagLogFile     = "log-file"
	FlagMetricsAddr = "metrics-addr"
	FlagPolicy      = "policy"
)

// KoanfLoader handles configuration loading from multiple sources using koanf.
// Precedence order (highest to lowest):
// 1. CLI Flags
// 2. Environment Variables (GRIDPLUG_*)
// 3. Project Config (./gridplug.toml, or the file given with --config)
// 4. Global Config (~/.gridplug/config.toml)
// 5. Defaults
type KoanfLoader struct {
	k          *koanf.Koanf
	homeDir    string
	workDir    string
	configFile string
}

// NewKoanfLoader creates a new KoanfLoader with default directories.
func NewKoanfLoader() (*KoanfLoader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get home directory")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get working directory")
	}

	return NewKoanfLoaderWithDirs(homeDir, workDir), nil
}

// NewKoanfLoaderWithDirs creates a new KoanfLoader with custom directories (for testing).
func NewKoanfLoaderWithDirs(homeDir, workDir string) *KoanfLoader {
	return &KoanfLoader{
		k:       koanf.New("."),
		homeDir: homeDir,
		workDir: workDir,
	}
}

// SetConfigFile replaces the project config lookup with an explicit file.
// Unlike the implicit project file, an explicit file must exist.
func (l *KoanfLoader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration from all sources with precedence and validates it.
//
// Policy rules have special merge semantics:
// - Rules with the same name: project overrides global
// - Rules with different names: combined, global rules first
func (l *KoanfLoader) Load(flags map[string]any) (*config.Config, error) {
	cfg, err := l.LoadWithoutValidation(flags)
	if err != nil {
		return nil, err
	}

	if err := NewValidator().Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return cfg, nil
}

// LoadWithoutValidation loads configuration without running validation.
func (l *KoanfLoader) LoadWithoutValidation(flags map[string]any) (*config.Config, error) {
	l.k = koanf.New(".")

	var globalRules, projectRules []*config.PolicyRuleConfig

	if err := l.k.Load(confmap.Provider(defaultsToMap(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	globalPath := l.GlobalConfigPath()
	if err := l.loadTOMLFile(globalPath); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to load global config")
	} else if err == nil {
		globalRules = l.extractRules()
	}

	projectPath, err := l.projectConfig()
	if err != nil {
		return nil, err
	}

	if projectPath != "" {
		if err := l.loadTOMLFile(projectPath); err != nil {
			return nil, errors.Wrap(err, "failed to load project config")
		}

		projectRules = l.extractRules()
	}

	envOpt := env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envTransform,
	}

	if err := l.k.Load(env.Provider(".", envOpt), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if len(flags) > 0 {
		if err := l.k.Load(confmap.Provider(flagsToConfig(flags), "."), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	cfg, err := unmarshal(l.k)
	if err != nil {
		return nil, err
	}

	if rules := mergeRules(globalRules, projectRules); len(rules) > 0 {
		cfg.GetPolicy().Rules = rules
	}

	return cfg, nil
}

// extractRules decodes the policy rules currently held by koanf.
func (l *KoanfLoader) extractRules() []*config.PolicyRuleConfig {
	slices := l.k.Slices("policy.rules")
	rules := make([]*config.PolicyRuleConfig, 0, len(slices))

	for _, ruleK := range slices {
		rules = append(rules, &config.PolicyRuleConfig{
			Name:      ruleK.String("name"),
			Instance:  ruleK.String("instance"),
			Operation: ruleK.String("operation"),
			Phase:     ruleK.String("phase"),
			Action:    ruleK.String("action"),
			Message:   ruleK.String("message"),
		})
	}

	return rules
}

// mergeRules merges global and project rules.
// Rules with the same name: project overrides global in the global position.
// Rules with different names: combined.
func mergeRules(globalRules, projectRules []*config.PolicyRuleConfig) []*config.PolicyRuleConfig {
	if len(globalRules) == 0 {
		return projectRules
	}

	if len(projectRules) == 0 {
		return globalRules
	}

	projectByName := make(map[string]*config.PolicyRuleConfig, len(projectRules))
	for _, rule := range projectRules {
		projectByName[rule.Name] = rule
	}

	merged := make([]*config.PolicyRuleConfig, 0, len(globalRules)+len(projectRules))
	seen := make(map[string]bool)

	for _, rule := range globalRules {
		if override, ok := projectByName[rule.Name]; ok {
			rule = override
		}

		merged = append(merged, rule)
		seen[rule.Name] = true
	}

	for _, rule := range projectRules {
		if !seen[rule.Name] {
			merged = append(merged, rule)
		}
	}

	return merged
}

// loadTOMLFile loads a TOML configuration file with security checks.
func (l *KoanfLoader) loadTOMLFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if info.Mode().Perm()&0o002 != 0 {
		return errors.Wrapf(
			ErrInvalidPermissions,
			"%s is world-writable (mode: %s)",
			path,
			info.Mode().Perm(),
		)
	}

	return l.k.Load(file.Provider(path), tomlparser.Parser())
}

// envTransform maps environment variables to config paths. The first segment
// names the section and the rest is the key, so underscores inside keys survive:
// GRIDPLUG_METRICS_SHUTDOWN_TIMEOUT → metrics.shutdown_timeout
// GRIDPLUG_PLUGIN_NETWORK_START_OPERATION → plugin.network.start_operation
func envTransform(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))

	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}

	if section == "plugin" {
		if category, name, ok := strings.Cut(rest, "_"); ok &&
			(category == config.CategoryNetwork || category == config.CategoryResource) {
			return section + "." + category + "." + name, value
		}
	}

	return section + "." + rest, value
}

// GlobalConfigPath returns the path to the global configuration file.
func (l *KoanfLoader) GlobalConfigPath() string {
	return filepath.Join(l.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPath returns the path to the project configuration file.
func (l *KoanfLoader) ProjectConfigPath() string {
	if l.configFile != "" {
		return l.configFile
	}

	return filepath.Join(l.workDir, ProjectConfigFile)
}

// projectConfig returns the project file to load, or "" when there is none.
func (l *KoanfLoader) projectConfig() (string, error) {
	path := l.ProjectConfigPath()

	if fileExists(path) {
		return path, nil
	}

	if l.configFile != "" {
		return "", errors.Wrapf(ErrConfigNotFound, "%s", path)
	}

	return "", nil
}

// HasGlobalConfig checks if a global configuration file exists.
func (l *KoanfLoader) HasGlobalConfig() bool {
	return fileExists(l.GlobalConfigPath())
}

// HasProjectConfig checks if a project configuration file exists.
func (l *KoanfLoader) HasProjectConfig() bool {
	return fileExists(l.ProjectConfigPath())
}

// flagsToConfig converts CLI flags to a nested configuration map. Empty
// values are ignored so unset flags never override lower layers.
func flagsToConfig(flags map[string]any) map[string]any {
	flat := make(map[string]any, len(flags))

	for key, value := range flags {
		switch key {
		case FlagPluginHome:
			if s, ok := value.(string); ok && s != "" {
				flat["plugin.home"] = s
			}

		case FlagLogLevel:
			if s, ok := value.(string); ok && s != "" {
				flat["log.level"] = s
			}

		case FlagLogFile:
			if s, ok := value.(string); ok && s != "" {
				flat["log.file"] = s
			}

		case FlagMetricsAddr:
			if s, ok := value.(string); ok && s != "" {
				flat["metrics.address"] = s
				flat["metrics.enabled"] = true
			}

		case FlagPolicy:
			if b, ok := value.(bool); ok {
				flat["policy.enabled"] = b
			}
		}
	}

	return maps.Unflatten(flat, ".")
}

// defaultsToMap converts the defaults to a map for koanf loading.
func defaultsToMap() map[string]any {
	return map[string]any{
		"log": map[string]any{
			"level": DefaultLogLevel,
		},
		"policy": map[string]any{
			"enabled": false,
		},
		"metrics": map[string]any{
			"enabled":          false,
			"address":          DefaultMetricsAddress,
			"shutdown_timeout": DefaultShutdownTimeout.String(),
		},
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return !info.IsDir()
}

// mustGetwd returns the current working directory or panics.
func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		panic("failed to get working directory: " + err.Error())
	}

	return wd
}
