// Package nativetest provides in-memory shared libraries for tests.
//
// A Library behaves like an opened shared object: symbols are registered up
// front, lookups of unknown names fail with native.ErrSymbolNotFound, and every
// Close call is counted so tests can assert that handles are released exactly once.
package nativetest

import (
	"reflect"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/native"
)

// Library is a fake native.Library.
type Library struct {
	mu         sync.Mutex
	path       string
	funcs      map[string]native.Func
	typed      map[string]any
	closeCalls int
}

// NewLibrary returns an empty library that reports path.
func NewLibrary(path string) *Library {
	return &Library{
		path:  path,
		funcs: make(map[string]native.Func),
		typed: make(map[string]any),
	}
}

// WithFunc exports an integer-convention symbol.
func (l *Library) WithFunc(symbol string, fn native.Func) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.funcs[symbol] = fn

	return l
}

// WithTyped exports a symbol bound through Bind. fn must be a func value
// whose type matches the pointer later passed to Bind.
func (l *Library) WithTyped(symbol string, fn any) *Library {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.typed[symbol] = fn

	return l
}

// WithVersion exports the interface version symbol returning v.
func (l *Library) WithVersion(v float64) *Library {
	return l.WithTyped(native.VersionSymbol, func() float64 { return v })
}

// WithFactory exports the factory symbol.
func (l *Library) WithFactory(fn func(instance, context string) uintptr) *Library {
	return l.WithTyped(native.FactorySymbol, fn)
}

// Path returns the path the library was registered under.
func (l *Library) Path() string {
	return l.path
}

// Lookup returns a registered integer-convention symbol.
func (l *Library) Lookup(symbol string) (native.Func, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closeCalls > 0 {
		return nil, errors.Wrapf(native.ErrLibraryClosed, "%s", l.path)
	}

	fn, ok := l.funcs[symbol]
	if !ok {
		return nil, errors.Wrapf(native.ErrSymbolNotFound, "%s: undefined symbol: %s", l.path, symbol)
	}

	return fn, nil
}

// Bind stores a registered typed symbol into fptr.
func (l *Library) Bind(symbol string, fptr any) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closeCalls > 0 {
		return errors.Wrapf(native.ErrLibraryClosed, "%s", l.path)
	}

	fn, ok := l.typed[symbol]
	if !ok {
		return errors.Wrapf(native.ErrSymbolNotFound, "%s: undefined symbol: %s", l.path, symbol)
	}

	target := reflect.ValueOf(fptr)
	if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Func {
		return errors.Wrapf(native.ErrBadSignature, "%s: fptr must be a non-nil pointer to a func", symbol)
	}

	value := reflect.ValueOf(fn)
	if !value.Type().AssignableTo(target.Elem().Type()) {
		return errors.Wrapf(native.ErrBadSignature, "%s: have %s, want %s",
			symbol, value.Type(), target.Elem().Type())
	}

	target.Elem().Set(value)

	return nil
}

// Close records the call. Unlike a real library it counts every call so
// tests can detect double closes.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeCalls++

	return nil
}

// CloseCalls returns how many times Close was called.
func (l *Library) CloseCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closeCalls
}

// IsOpen reports whether Close has not been called yet.
func (l *Library) IsOpen() bool {
	return l.CloseCalls() == 0
}

// Opener serves registered libraries by path.
type Opener struct {
	mu     sync.Mutex
	libs   map[string]*Library
	opened []string
}

// NewOpener returns an Opener with no libraries.
func NewOpener() *Opener {
	return &Opener{libs: make(map[string]*Library)}
}

// Add registers lib under its own path.
func (o *Opener) Add(lib *Library) *Opener {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.libs[lib.Path()] = lib

	return o
}

// Open returns the library registered under path.
//
//nolint:ireturn // implements native.Opener
func (o *Opener) Open(path string) (native.Library, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	lib, ok := o.libs[path]
	if !ok {
		return nil, errors.Newf("%s: cannot open shared object file: No such file or directory", path)
	}

	o.opened = append(o.opened, path)

	return lib, nil
}

// Opened returns the paths passed to successful Open calls, in order.
func (o *Opener) Opened() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.opened...)
}

var (
	_ native.Library = (*Library)(nil)
	_ native.Opener  = (*Opener)(nil)
)
