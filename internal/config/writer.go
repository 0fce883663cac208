package config

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"

	"github.com/smykla-skalski/gridplug/internal/schema"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

const (
	// ConfigFileMode is the file mode for configuration files (user read/write only).
	ConfigFileMode = 0o600

	// ConfigDirMode is the file mode for configuration directories (user rwx only).
	ConfigDirMode = 0o700
)

// ErrConfigExists is returned when a write would replace an existing file.
var ErrConfigExists = errors.New("configuration file already exists")

// Writer handles writing configuration to TOML files.
type Writer struct {
	// homeDir is the user's home directory (for testing).
	homeDir string

	// workDir is the current working directory (for testing).
	workDir string
}

// NewWriter creates a new Writer with default directories.
func NewWriter() *Writer {
	return &Writer{
		homeDir: os.Getenv("HOME"),
		workDir: mustGetwd(),
	}
}

// NewWriterWithDirs creates a new Writer with custom directories (for testing).
func NewWriterWithDirs(homeDir, workDir string) *Writer {
	return &Writer{
		homeDir: homeDir,
		workDir: workDir,
	}
}

// WriteGlobal writes the configuration to the global config file.
func (w *Writer) WriteGlobal(cfg *config.Config) error {
	return w.WriteFile(w.GlobalConfigPath(), cfg)
}

// WriteProject writes the configuration to the project config file.
func (w *Writer) WriteProject(cfg *config.Config) error {
	return w.WriteFile(w.ProjectConfigPath(), cfg)
}

// WriteFile writes the configuration to the given path.
func (*Writer) WriteFile(path string, cfg *config.Config) error {
	if cfg == nil {
		return errors.Wrap(ErrInvalidConfig, "config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, ConfigDirMode); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, ConfigFileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file %s", path)
	}

	return nil
}

// WriteNew writes the configuration to path unless the file already exists.
func (w *Writer) WriteNew(path string, cfg *config.Config) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Wrapf(ErrConfigExists, "%s", path)
	}

	return w.WriteFile(path, cfg)
}

// Marshal encodes cfg as TOML, prefixed with the schema directive.
func Marshal(cfg *config.Config) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(schema.SchemaDirective())
	buf.WriteByte('\n')

	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)

	if err := encoder.Encode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to encode config to TOML")
	}

	return buf.Bytes(), nil
}

// GlobalConfigPath returns the path to the global configuration file.
func (w *Writer) GlobalConfigPath() string {
	return filepath.Join(w.homeDir, GlobalConfigDir, GlobalConfigFile)
}

// ProjectConfigPath returns the path to the project configuration file.
func (w *Writer) ProjectConfigPath() string {
	return filepath.Join(w.workDir, ProjectConfigFile)
}

// IsGlobalConfigExists checks if the global config file exists.
func (w *Writer) IsGlobalConfigExists() bool {
	_, err := os.Stat(w.GlobalConfigPath())

	return err == nil
}

// IsProjectConfigExists checks if the project config file exists.
func (w *Writer) IsProjectConfigExists() bool {
	_, err := os.Stat(w.ProjectConfigPath())

	return err == nil
}
