package plugin

import (
	"context"
	"maps"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// Base carries the state shared by every plugin category. Plugin types embed
// it to receive the library handle from Load and to expose Invoke.
//
// Once Load returns, Base is the sole owner of the library; Close releases
// it and may be called any number of times.
type Base struct {
	category string
	instance string
	context  string
	loadID   string
	handle   uintptr
	version  Version
	lib      native.Library
	engine   RuleEngine
	metrics  metrics.PluginMetrics
	log      logger.Logger

	propsMu sync.RWMutex
	props   map[string]string

	ops *OperationTable

	// callMu is held for reading by every native call and for writing while
	// the library is released, so no call runs into an unmapped library.
	callMu sync.RWMutex
	closed bool

	closeOnce sync.Once
	closeErr  error
}

func (b *Base) attach(state *loadState) {
	b.category = state.desc.Category
	b.instance = state.desc.instanceName()
	b.context = state.desc.Context
	b.loadID = uuid.NewString()
	b.handle = state.handle
	b.version = state.version
	b.lib = state.lib
	b.engine = state.engine
	b.metrics = state.metrics
	b.log = state.log.With("load_id", b.loadID)
}

// Category returns the plugin category.
func (b *Base) Category() string {
	return b.category
}

// InstanceName returns the label the plugin was loaded under.
func (b *Base) InstanceName() string {
	return b.instance
}

// Context returns the string passed to the plugin factory.
func (b *Base) Context() string {
	return b.context
}

// LoadID uniquely identifies this load in logs.
func (b *Base) LoadID() string {
	return b.loadID
}

// Handle returns the opaque instance pointer created by the plugin factory.
func (b *Base) Handle() uintptr {
	return b.handle
}

// Version returns the interface version reported by the library.
func (b *Base) Version() Version {
	return b.version
}

// LibraryPath returns the file the plugin was loaded from.
func (b *Base) LibraryPath() string {
	if b.lib == nil {
		return ""
	}

	return b.lib.Path()
}

// Logger returns the logger scoped to this instance.
//
//nolint:ireturn // logger.Logger is the logging contract
func (b *Base) Logger() logger.Logger {
	if b.log == nil {
		return logger.NewNoOpLogger()
	}

	return b.log
}

// SetProperty stores a value in the property bag.
func (b *Base) SetProperty(key, value string) {
	b.propsMu.Lock()
	defer b.propsMu.Unlock()

	if b.props == nil {
		b.props = make(map[string]string)
	}

	b.props[key] = value
}

// Property returns a value from the property bag.
func (b *Base) Property(key string) (string, bool) {
	b.propsMu.RLock()
	defer b.propsMu.RUnlock()

	v, ok := b.props[key]

	return v, ok
}

// Properties returns a copy of the property bag.
func (b *Base) Properties() map[string]string {
	b.propsMu.RLock()
	defer b.propsMu.RUnlock()

	out := make(map[string]string, len(b.props))
	maps.Copy(out, b.props)

	return out
}

// BindOperations runs the delayed binder for this instance and installs the
// resulting operation table. Plugin types call it from DelayLoad.
func (b *Base) BindOperations(
	lib native.Library,
	bindings []Binding,
	lifecycle Lifecycle,
) (LifecycleOps, error) {
	binder := NewBinder(b.instance, b.handle, b.engine, b.metrics, b.Logger())

	table, ops, err := binder.Bind(lib, bindings, lifecycle)
	if err != nil {
		return LifecycleOps{}, err
	}

	b.ops = table

	return ops, nil
}

// BindLifecycle resolves lifecycle symbols against the library owned by
// this instance. It is used to change lifecycle operations after loading.
func (b *Base) BindLifecycle(lifecycle Lifecycle) (LifecycleOps, error) {
	if b.lib == nil {
		return LifecycleOps{}, errors.Wrapf(native.ErrLibraryClosed, "%s: no library attached", b.instance)
	}

	return NewBinder(b.instance, b.handle, b.engine, b.metrics, b.Logger()).BindLifecycle(b.lib, lifecycle)
}

// Operations returns the bound operation table.
func (b *Base) Operations() *OperationTable {
	return b.ops
}

// Invoke calls a bound operation by name. After Close it fails with an error
// marked native.ErrLibraryClosed.
func (b *Base) Invoke(ctx context.Context, name string, args ...uintptr) (Result, error) {
	b.callMu.RLock()
	defer b.callMu.RUnlock()

	if b.closed {
		return 0, errors.Wrapf(native.ErrLibraryClosed, "%s: %q", b.instance, name)
	}

	if b.ops == nil {
		return 0, errors.Wrapf(ErrOperationNotFound, "%s: %q: no operations bound", b.instance, name)
	}

	return b.ops.Invoke(ctx, name, args...)
}

// CallLifecycle runs a lifecycle operation returned by BindOperations.
func (b *Base) CallLifecycle(ctx context.Context, op *Operation) (Result, error) {
	b.callMu.RLock()
	defer b.callMu.RUnlock()

	if b.closed {
		return 0, errors.Wrapf(native.ErrLibraryClosed, "%s: %q", b.instance, op.Name())
	}

	return op.Call(ctx, b.handle)
}

// IsClosed reports whether Close has been called.
func (b *Base) IsClosed() bool {
	b.callMu.RLock()
	defer b.callMu.RUnlock()

	return b.closed
}

// Close releases the library handle. Calls after the first return the
// first result.
func (b *Base) Close() error {
	b.closeOnce.Do(func() {
		// Waits for in-flight calls to return.
		b.callMu.Lock()
		defer b.callMu.Unlock()

		b.closed = true

		if b.lib == nil {
			return
		}

		b.Logger().Debug("closing plugin library", "path", b.lib.Path())

		if err := b.lib.Close(); err != nil {
			b.closeErr = errors.Wrapf(err, "failed to close plugin %s", b.instance)
		}
	})

	return b.closeErr
}
