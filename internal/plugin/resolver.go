package plugin

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

// DefaultPluginHome is the plugin root used when no override is configured.
const DefaultPluginHome = "/var/lib/gridplug/plugins"

const libraryPrefix = "lib"

// ResolvePath returns the absolute directory holding the libraries of one
// category, ending in exactly one path separator.
func ResolvePath(cfg *config.PluginConfig, category string) (string, error) {
	if category == "" || strings.ContainsAny(category, `/\`) || category == "." || category == ".." {
		return "", errors.Wrapf(ErrInvalidConfiguration, "invalid plugin category %q", category)
	}

	home := DefaultPluginHome
	if cfg != nil && cfg.Home != "" {
		home = cfg.Home
	}

	home, err := expandPath(home)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "plugin home"), ErrInvalidConfiguration)
	}

	dir := filepath.Join(home, category)

	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "plugin directory %s", dir), ErrInvalidConfiguration)
	}

	if !info.IsDir() {
		return "", errors.Wrapf(ErrInvalidConfiguration, "plugin directory %s is not a directory", dir)
	}

	// Relative roots are anchored here so later containment checks never see "..".
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "plugin directory %s", dir), ErrInvalidConfiguration)
	}

	return strings.TrimRight(abs, string(filepath.Separator)) + string(filepath.Separator), nil
}

// LibraryName builds the conventional library filename for a plugin name:
// every character that is not a letter or digit is dropped and the result is
// wrapped as lib<name><ext>.
func LibraryName(name string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}

		return -1
	}, name)

	if clean == "" {
		return "", errors.Wrapf(ErrNameGenerationFailed, "no alphanumeric characters in plugin name %q", name)
	}

	return libraryPrefix + clean + native.Extension(), nil
}

// LibraryPath joins dir with the library filename for name and checks that the
// result stays inside dir and carries the platform extension.
func LibraryPath(dir, name string) (string, error) {
	filename, err := LibraryName(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, filename)

	if err := ValidatePath(path, dir); err != nil {
		return "", errors.Mark(err, ErrNameGenerationFailed)
	}

	if err := ValidateExtension(path, native.Extension()); err != nil {
		return "", errors.Mark(err, ErrNameGenerationFailed)
	}

	return path, nil
}

// Discover lists the plugin names whose libraries exist in dir, sorted.
func Discover(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), libraryPrefix+"*"+native.Extension())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list plugins in %s", dir)
	}

	names := make([]string, 0, len(matches))

	for _, match := range matches {
		name := strings.TrimSuffix(strings.TrimPrefix(match, libraryPrefix), native.Extension())
		if name == "" {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}
