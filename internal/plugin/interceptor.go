package plugin

import (
	"context"

	"github.com/cockroachdb/errors"
)

//go:generate mockgen -source=interceptor.go -destination=interceptor_mock.go -package=plugin

// RuleEngine supplies the hooks run around every intercepted operation.
// Hooks receive the instance and operation names so rules can be applied
// per instance and per operation.
type RuleEngine interface {
	// Before runs ahead of the bound function. An error prevents the call.
	Before(ctx context.Context, instance, operation string) error

	// After runs once the bound function returned. An error is reported
	// alongside the result; the call is not undone.
	After(ctx context.Context, instance, operation string) error
}

// Interceptor wraps the call of one bound operation.
type Interceptor interface {
	Intercept(ctx context.Context, operation string, call func() Result) (Result, error)
}

// NewInterceptor returns the active interceptor for engine, or the no-op
// interceptor when engine is nil.
//
//nolint:ireturn // the variant is chosen by whether an engine is present
func NewInterceptor(instance string, engine RuleEngine) Interceptor {
	if engine == nil {
		return NoOpInterceptor{}
	}

	return &ActiveInterceptor{instance: instance, engine: engine}
}

// ActiveInterceptor runs the rule engine hooks around the call.
type ActiveInterceptor struct {
	instance string
	engine   RuleEngine
}

// Intercept implements Interceptor.
func (a *ActiveInterceptor) Intercept(
	ctx context.Context,
	operation string,
	call func() Result,
) (Result, error) {
	if err := a.engine.Before(ctx, a.instance, operation); err != nil {
		return 0, errors.Mark(
			errors.Wrapf(err, "%s: %s rejected before call", a.instance, operation),
			ErrPreHookFailed,
		)
	}

	result := call()

	if err := a.engine.After(ctx, a.instance, operation); err != nil {
		return result, errors.Mark(
			errors.Wrapf(err, "%s: %s failed after call", a.instance, operation),
			ErrPostHookFailed,
		)
	}

	return result, nil
}

// NoOpInterceptor calls the bound function directly.
type NoOpInterceptor struct{}

// Intercept implements Interceptor.
func (NoOpInterceptor) Intercept(_ context.Context, _ string, call func() Result) (Result, error) {
	return call(), nil
}
