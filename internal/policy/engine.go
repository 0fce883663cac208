package policy

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// compiledRule is a Rule with its patterns validated.
type compiledRule struct {
	*Rule

	instance  pattern
	operation pattern
}

func (r *compiledRule) matches(phase Phase, instance, operation string) bool {
	return r.Phase == phase && r.instance.match(instance) && r.operation.match(operation)
}

// Engine evaluates policy rules around plugin operations.
type Engine struct {
	rules         []*compiledRule
	logger        logger.Logger
	defaultAction Action
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for the engine.
func WithLogger(log logger.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = log
	}
}

// WithDefaultAction sets the action used when no rule matches.
func WithDefaultAction(action Action) EngineOption {
	return func(e *Engine) {
		e.defaultAction = action
	}
}

// NewEngine creates an Engine. Rules are evaluated in the given order.
func NewEngine(rules []*Rule, opts ...EngineOption) (*Engine, error) {
	engine := &Engine{
		defaultAction: ActionAllow,
	}

	for _, opt := range opts {
		opt(engine)
	}

	if engine.logger == nil {
		engine.logger = logger.NewNoOpLogger()
	}

	for i, rule := range rules {
		compiled, err := compileRule(rule)
		if err != nil {
			return nil, errors.Wrapf(err, "rule %d", i)
		}

		engine.rules = append(engine.rules, compiled)
	}

	return engine, nil
}

func compileRule(rule *Rule) (*compiledRule, error) {
	if rule == nil {
		return nil, errors.Wrap(ErrInvalidRule, "nil rule")
	}

	if rule.Name == "" {
		return nil, errors.Wrap(ErrInvalidRule, "name is required")
	}

	switch rule.Phase {
	case PhasePre, PhasePost:
	default:
		return nil, errors.Wrapf(ErrInvalidRule, "%s: unknown phase %q", rule.Name, rule.Phase)
	}

	switch rule.Action {
	case ActionAllow, ActionBlock:
	default:
		return nil, errors.Wrapf(ErrInvalidRule, "%s: unknown action %q", rule.Name, rule.Action)
	}

	instance, err := compilePattern(rule.Instance)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: instance", rule.Name)
	}

	operation, err := compilePattern(rule.Operation)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: operation", rule.Name)
	}

	return &compiledRule{Rule: rule, instance: instance, operation: operation}, nil
}

// Evaluate returns the decision for one phase of an operation.
func (e *Engine) Evaluate(phase Phase, instance, operation string) Decision {
	for _, rule := range e.rules {
		if rule.matches(phase, instance, operation) {
			return Decision{Rule: rule.Rule, Action: rule.Action}
		}
	}

	return Decision{Action: e.defaultAction}
}

// Before implements plugin.RuleEngine.
func (e *Engine) Before(ctx context.Context, instance, operation string) error {
	return e.hook(ctx, PhasePre, instance, operation)
}

// After implements plugin.RuleEngine.
func (e *Engine) After(ctx context.Context, instance, operation string) error {
	return e.hook(ctx, PhasePost, instance, operation)
}

func (e *Engine) hook(ctx context.Context, phase Phase, instance, operation string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "%s hook", phase)
	}

	decision := e.Evaluate(phase, instance, operation)

	if decision.Rule != nil {
		e.logger.Debug("policy rule matched",
			"rule", decision.Rule.Name,
			"phase", phase,
			"action", decision.Action,
			"instance", instance,
			"operation", operation,
		)
	}

	if decision.Action != ActionBlock {
		return nil
	}

	name, message := "default", "no rule allowed the operation"
	if decision.Rule != nil {
		name, message = decision.Rule.Name, decision.Rule.Message
	}

	if message == "" {
		return errors.Wrapf(ErrBlocked, "rule %s", name)
	}

	return errors.Wrapf(ErrBlocked, "rule %s: %s", name, message)
}

// Rules returns the engine's rules in evaluation order.
func (e *Engine) Rules() []*Rule {
	rules := make([]*Rule, len(e.rules))

	for i, r := range e.rules {
		rules[i] = r.Rule
	}

	return rules
}

// Size returns the number of rules.
func (e *Engine) Size() int {
	return len(e.rules)
}

// Verify interface compliance.
var _ plugin.RuleEngine = (*Engine)(nil)
