package plugin

import (
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// LifecycleOps holds the bound start and stop operations. Fields are nil
// when the corresponding symbol was not configured.
type LifecycleOps struct {
	Start *Operation
	Stop  *Operation
}

// Binder resolves configured bindings against an open library.
type Binder struct {
	instance string
	handle   uintptr
	engine   RuleEngine
	metrics  metrics.PluginMetrics
	log      logger.Logger
}

// NewBinder creates a binder for one plugin instance. Every bound operation
// is wrapped with the interceptor selected by engine.
func NewBinder(
	instance string,
	handle uintptr,
	engine RuleEngine,
	m metrics.PluginMetrics,
	log logger.Logger,
) *Binder {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Binder{
		instance: instance,
		handle:   handle,
		engine:   engine,
		metrics:  m,
		log:      log,
	}
}

// Bind builds the operation table.
//
// Entries with an empty name or symbol and entries whose symbol does not
// resolve are skipped with a warning. A later entry replaces an earlier one
// with the same name. Lifecycle symbols are mandatory once named.
func (b *Binder) Bind(
	lib native.Library,
	bindings []Binding,
	lifecycle Lifecycle,
) (*OperationTable, LifecycleOps, error) {
	if len(bindings) == 0 {
		return nil, LifecycleOps{}, errors.Wrapf(ErrEmptyOperationList, "instance %s", b.instance)
	}

	interceptor := NewInterceptor(b.instance, b.engine)
	table := newOperationTable(b.instance, b.handle, b.metrics)

	for i, binding := range bindings {
		if binding.Name == "" || binding.Symbol == "" {
			b.log.Warn("skipping incomplete operation binding",
				"index", i,
				"operation", binding.Name,
				"symbol", binding.Symbol,
			)

			continue
		}

		fn, err := lib.Lookup(binding.Symbol)
		if err != nil {
			b.log.Warn("skipping unresolved operation symbol",
				"operation", binding.Name,
				"symbol", binding.Symbol,
				"error", err,
			)

			continue
		}

		if prev, ok := table.ops[binding.Name]; ok {
			b.log.Debug("operation binding replaced",
				"operation", binding.Name,
				"previous", prev.symbol,
				"symbol", binding.Symbol,
			)
		}

		table.ops[binding.Name] = &Operation{
			name:        binding.Name,
			symbol:      binding.Symbol,
			fn:          fn,
			interceptor: interceptor,
		}
	}

	ops, err := b.BindLifecycle(lib, lifecycle)
	if err != nil {
		return nil, LifecycleOps{}, err
	}

	if table.Len() == 0 {
		b.log.Warn("operation table is empty after binding", "configured", len(bindings))
	} else {
		b.log.Debug("operations bound", "count", table.Len(), "operations", table.Names())
	}

	return table, ops, nil
}

// BindLifecycle resolves the named start and stop symbols. Unlike ordinary
// operations a named lifecycle symbol that does not resolve is an error.
func (b *Binder) BindLifecycle(lib native.Library, lifecycle Lifecycle) (LifecycleOps, error) {
	var (
		ops LifecycleOps
		err error
	)

	if lifecycle.Start != "" {
		ops.Start, err = b.lifecycleOp(lib, lifecycle.Start, ErrStartOperationMissing)
		if err != nil {
			return LifecycleOps{}, err
		}
	}

	if lifecycle.Stop != "" {
		ops.Stop, err = b.lifecycleOp(lib, lifecycle.Stop, ErrStopOperationMissing)
		if err != nil {
			return LifecycleOps{}, err
		}
	}

	return ops, nil
}

func (b *Binder) lifecycleOp(lib native.Library, symbol string, kind error) (*Operation, error) {
	fn, err := lib.Lookup(symbol)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "instance %s", b.instance), kind)
	}

	return &Operation{
		name:        symbol,
		symbol:      symbol,
		fn:          fn,
		interceptor: NewInterceptor(b.instance, b.engine),
	}, nil
}
