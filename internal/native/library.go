// Package native is the only place where gridplug crosses into foreign code.
//
// It opens shared libraries, resolves exported symbols and converts their
// addresses into statically typed Go callables. Everything above this package
// deals in Library and Func values and never sees a raw address.
package native

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// Symbols every loadable library must export.
const (
	// VersionSymbol reports the interface version: double (*)(void).
	VersionSymbol = "get_plugin_interface_version"

	// FactorySymbol constructs the plugin: void* (*)(const char* instance, const char* context).
	FactorySymbol = "plugin_factory"
)

var (
	// ErrSymbolNotFound is returned when a symbol is not exported by the library.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrLibraryClosed is returned when a closed library is used.
	ErrLibraryClosed = errors.New("library has been closed")

	// ErrBadSignature is returned when a symbol cannot be bound to the requested Go signature.
	ErrBadSignature = errors.New("unsupported function signature")

	// ErrUnsupportedPlatform is returned by Open on platforms without dynamic loading.
	ErrUnsupportedPlatform = errors.New("dynamic loading is not supported on this platform")
)

// Func is a resolved native function taking integer or pointer sized
// arguments and returning one integer register.
type Func func(args ...uintptr) uintptr

// Library is an open shared library.
//
// A Library is exclusively owned by whoever opened it. Close releases the
// handle; it must be called exactly once, further calls are no-ops.
type Library interface {
	// Path returns the file the library was opened from.
	Path() string

	// Lookup resolves symbol into a Func using the integer calling convention.
	Lookup(symbol string) (Func, error)

	// Bind resolves symbol and stores a typed callable into fptr, which must
	// be a pointer to a func variable. Strings are passed as C strings and
	// float results are read from the floating point return register.
	Bind(symbol string, fptr any) error

	// Close releases the native handle.
	Close() error
}

// Opener opens shared libraries. The default implementation uses the
// platform dynamic linker; tests substitute in-memory libraries.
type Opener interface {
	Open(path string) (Library, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(path string) (Library, error)

// Open calls f(path).
//
//nolint:ireturn // Opener returns the Library interface by contract
func (f OpenerFunc) Open(path string) (Library, error) {
	return f(path)
}

// DefaultOpener opens libraries with the platform dynamic linker using lazy binding.
var DefaultOpener Opener = OpenerFunc(Open)

// Extension returns the conventional shared library suffix for the running platform.
func Extension() string {
	switch runtime.GOOS {
	case "darwin":
		return ".dylib"
	case "windows":
		return ".dll"
	default:
		return ".so"
	}
}
