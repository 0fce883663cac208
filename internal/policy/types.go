// Package policy provides a config-driven rule engine for plugin operations.
//
// Rules match a plugin instance and an operation name with glob patterns and
// run either before (pre) or after (post) the bound native call. The first
// matching rule of a phase decides whether the call is allowed.
package policy

import "github.com/cockroachdb/errors"

// ErrBlocked is returned by hooks when a rule blocks the operation.
var ErrBlocked = errors.New("operation blocked by policy")

// ErrInvalidRule is returned when a rule cannot be compiled.
var ErrInvalidRule = errors.New("invalid policy rule")

// Phase is the point at which a rule runs.
type Phase string

const (
	// PhasePre runs before the native call.
	PhasePre Phase = "pre"

	// PhasePost runs after the native call.
	PhasePost Phase = "post"
)

// Action is what happens when a rule matches.
type Action string

const (
	// ActionAllow lets the operation proceed.
	ActionAllow Action = "allow"

	// ActionBlock stops the operation with ErrBlocked.
	ActionBlock Action = "block"
)

// Rule is a single policy rule.
type Rule struct {
	// Name identifies the rule in logs and errors.
	Name string

	// Instance is a glob matched against the plugin instance name. Empty matches all.
	Instance string

	// Operation is a glob matched against the operation name. Empty matches all.
	Operation string

	// Phase selects when the rule runs.
	Phase Phase

	// Action is applied when the rule matches.
	Action Action

	// Message is reported when the rule blocks.
	Message string
}

// Decision is the outcome of evaluating one hook.
type Decision struct {
	// Rule is the matching rule, nil when no rule matched.
	Rule *Rule

	// Action is the rule's action or the engine default.
	Action Action
}
