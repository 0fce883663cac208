package plugin

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrPathTraversal is returned when path traversal patterns are detected.
var ErrPathTraversal = errors.New("path traversal detected")

// pathTraversalPattern matches common path traversal attempts.
var pathTraversalPattern = regexp.MustCompile(`(?:^|/)\.\.(?:/|$)`)

// ValidatePath checks that a library path stays inside dir once symlinks
// are resolved.
func ValidatePath(path, dir string) error {
	if path == "" {
		return errors.New("path is required")
	}

	if pathTraversalPattern.MatchString(path) {
		return errors.Wrapf(ErrPathTraversal, "path contains traversal pattern: %s", path)
	}

	resolvedPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve absolute path")
	}

	resolvedPath, err = evalSymlinksIfExists(resolvedPath)
	if err != nil {
		return err
	}

	if !isPathUnderDir(resolvedPath, dir) {
		return errors.Wrapf(ErrPathNotAllowed, "%s resolves outside %s", path, dir)
	}

	return nil
}

// evalSymlinksIfExists resolves symlinks for the path. Missing files resolve
// through their parent directory so both sides of the containment check use
// the same representation.
func evalSymlinksIfExists(path string) (string, error) {
	if _, statErr := os.Stat(path); statErr == nil {
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return "", errors.Wrap(err, "failed to evaluate symlinks")
		}

		return realPath, nil
	}

	realParentDir, err := filepath.EvalSymlinks(filepath.Dir(path))
	if err != nil {
		return path, nil //nolint:nilerr // missing parent: compare the path as given
	}

	return filepath.Join(realParentDir, filepath.Base(path)), nil
}

// isPathUnderDir checks if resolvedPath is under the given directory.
func isPathUnderDir(resolvedPath, dir string) bool {
	expandedDir, err := expandPath(dir)
	if err != nil {
		return false
	}

	absDir, err := filepath.Abs(expandedDir)
	if err != nil {
		return false
	}

	if _, statErr := os.Stat(absDir); statErr == nil {
		if realDir, evalErr := filepath.EvalSymlinks(absDir); evalErr == nil {
			absDir = realDir
		}
	}

	normalizedDir := strings.TrimSuffix(absDir, string(filepath.Separator)) + string(filepath.Separator)

	return strings.HasPrefix(resolvedPath, normalizedDir)
}

// ValidateExtension checks that the file carries the expected shared library extension.
func ValidateExtension(path, want string) error {
	ext := filepath.Ext(path)
	if ext == "" {
		return errors.Wrap(ErrInvalidExtension, "file has no extension")
	}

	if !strings.EqualFold(ext, want) {
		return errors.Wrapf(ErrInvalidExtension, "extension %q, want %q", ext, want)
	}

	return nil
}

// expandPath expands ~ at the beginning of a path to the user's home directory.
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}

	if path == "~" {
		return homeDir, nil
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// ~user style paths not supported
	return path, nil
}
