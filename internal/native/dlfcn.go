//go:build darwin || freebsd || linux

package native

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/ebitengine/purego"
)

// dynamicLibrary is a Library backed by dlopen(3).
type dynamicLibrary struct {
	path      string
	handle    uintptr
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Open opens the shared library at path with RTLD_LAZY so that symbols are
// resolved on first use. The dynamic linker's error text is preserved in the
// returned error.
//
//nolint:ireturn // callers only see the Library contract
func Open(path string) (Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_LAZY|purego.RTLD_LOCAL)
	if err != nil {
		return nil, errors.Wrapf(err, "dlopen %s", path)
	}

	return &dynamicLibrary{path: path, handle: handle}, nil
}

func (l *dynamicLibrary) Path() string {
	return l.path
}

func (l *dynamicLibrary) symbol(name string) (uintptr, error) {
	if l.closed.Load() {
		return 0, errors.Wrapf(ErrLibraryClosed, "%s", l.path)
	}

	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "dlsym %s", name), ErrSymbolNotFound)
	}

	if addr == 0 {
		return 0, errors.Wrapf(ErrSymbolNotFound, "dlsym %s returned NULL", name)
	}

	return addr, nil
}

func (l *dynamicLibrary) Lookup(name string) (Func, error) {
	addr, err := l.symbol(name)
	if err != nil {
		return nil, err
	}

	return func(args ...uintptr) uintptr {
		r1, _, _ := purego.SyscallN(addr, args...)

		return r1
	}, nil
}

func (l *dynamicLibrary) Bind(name string, fptr any) (err error) {
	addr, err := l.symbol(name)
	if err != nil {
		return err
	}

	// RegisterFunc panics on signatures it cannot marshal.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrBadSignature, "%s: %s", name, fmt.Sprint(r))
		}
	}()

	purego.RegisterFunc(fptr, addr)

	return nil
}

func (l *dynamicLibrary) Close() error {
	l.closeOnce.Do(func() {
		l.closed.Store(true)

		if err := purego.Dlclose(l.handle); err != nil {
			l.closeErr = errors.Wrapf(err, "dlclose %s", l.path)
		}
	})

	return l.closeErr
}
