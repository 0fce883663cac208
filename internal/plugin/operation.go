package plugin

import (
	"context"
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
)

// Result is the status returned by a plugin operation. Negative values are
// error codes defined by the plugin.
type Result int64

// OK reports whether the result is not an error code.
func (r Result) OK() bool {
	return r >= 0
}

// Operation is one bound entry of an operation table.
type Operation struct {
	name        string
	symbol      string
	fn          native.Func
	interceptor Interceptor
}

// Name returns the operation name.
func (o *Operation) Name() string {
	return o.name
}

// Symbol returns the exported symbol the operation is bound to.
func (o *Operation) Symbol() string {
	return o.symbol
}

// Call runs the operation through its interceptor. The plugin instance
// pointer is passed as the first native argument.
func (o *Operation) Call(ctx context.Context, handle uintptr, args ...uintptr) (Result, error) {
	return o.interceptor.Intercept(ctx, o.name, func() Result {
		return Result(int64(o.fn(append([]uintptr{handle}, args...)...)))
	})
}

// OperationTable maps operation names to bound operations. It is built once
// by the binder and read-only afterwards, so Invoke is safe for concurrent use.
type OperationTable struct {
	instance string
	handle   uintptr
	ops      map[string]*Operation
	metrics  metrics.PluginMetrics
}

func newOperationTable(instance string, handle uintptr, m metrics.PluginMetrics) *OperationTable {
	if m == nil {
		m = metrics.NewNoopPluginMetrics()
	}

	return &OperationTable{
		instance: instance,
		handle:   handle,
		ops:      make(map[string]*Operation),
		metrics:  m,
	}
}

// Invoke calls the named operation.
func (t *OperationTable) Invoke(ctx context.Context, name string, args ...uintptr) (Result, error) {
	start := time.Now()

	op, ok := t.Lookup(name)
	if !ok {
		t.metrics.RecordInvocation(t.instance, metrics.UnknownOperation, metrics.OutcomeNotFound, time.Since(start))

		return 0, errors.Wrapf(ErrOperationNotFound, "%s: %q", t.instance, name)
	}

	result, err := op.Call(ctx, t.handle, args...)

	t.metrics.RecordInvocation(t.instance, name, outcome(result, err), time.Since(start))

	return result, err
}

func outcome(result Result, err error) string {
	switch {
	case errors.Is(err, ErrPreHookFailed):
		return metrics.OutcomePreHookFailed
	case errors.Is(err, ErrPostHookFailed):
		return metrics.OutcomePostHookFailed
	case !result.OK():
		return metrics.OutcomeNegative
	default:
		return metrics.OutcomeOK
	}
}

// Lookup returns the named operation.
func (t *OperationTable) Lookup(name string) (*Operation, bool) {
	if t == nil {
		return nil, false
	}

	op, ok := t.ops[name]

	return op, ok
}

// Names returns the bound operation names, sorted.
func (t *OperationTable) Names() []string {
	if t == nil {
		return nil
	}

	names := make([]string, 0, len(t.ops))
	for name := range t.ops {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// Len returns the number of bound operations.
func (t *OperationTable) Len() int {
	if t == nil {
		return 0
	}

	return len(t.ops)
}
