//go:build !darwin && !freebsd && !linux

package native

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// Open always fails on platforms without a supported dynamic linker.
//
//nolint:ireturn // callers only see the Library contract
func Open(path string) (Library, error) {
	return nil, errors.Wrapf(ErrUnsupportedPlatform, "%s/%s: %s", runtime.GOOS, runtime.GOARCH, path)
}
