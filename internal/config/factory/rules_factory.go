// Package factory builds the plugin runtime from configuration.
package factory

import (
	"github.com/smykla-skalski/gridplug/internal/policy"
	"github.com/smykla-skalski/gridplug/pkg/config"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// RulesFactory creates a policy engine from configuration.
type RulesFactory struct {
	log logger.Logger
}

// NewRulesFactory creates a new RulesFactory.
func NewRulesFactory(log logger.Logger) *RulesFactory {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &RulesFactory{
		log: log,
	}
}

// CreateRuleEngine creates a policy engine from the provided configuration.
// Returns nil if the policy is disabled or no rules are defined, so
// operations are bound without hooks.
//
//nolint:nilnil // a nil engine without error means "no interception"
func (f *RulesFactory) CreateRuleEngine(cfg *config.Config) (*policy.Engine, error) {
	if cfg == nil || !cfg.Policy.IsEnabled() {
		f.log.Debug("policy engine disabled")

		return nil, nil
	}

	rules := convertRules(cfg.Policy.Rules)
	if len(rules) == 0 {
		f.log.Debug("no policy rules defined")

		return nil, nil
	}

	engine, err := policy.NewEngine(rules, policy.WithLogger(f.log))
	if err != nil {
		return nil, err
	}

	f.log.Debug("policy engine created", "rule_count", engine.Size())

	return engine, nil
}

// convertRules converts configured rules, applying the defaults
// (phase "pre", action "block").
func convertRules(cfgs []*config.PolicyRuleConfig) []*policy.Rule {
	rules := make([]*policy.Rule, 0, len(cfgs))

	for _, rc := range cfgs {
		if rc == nil {
			continue
		}

		rule := &policy.Rule{
			Name:      rc.Name,
			Instance:  rc.Instance,
			Operation: rc.Operation,
			Phase:     policy.Phase(rc.Phase),
			Action:    policy.Action(rc.Action),
			Message:   rc.Message,
		}

		if rule.Phase == "" {
			rule.Phase = policy.PhasePre
		}

		if rule.Action == "" {
			rule.Action = policy.ActionBlock
		}

		rules = append(rules, rule)
	}

	return rules
}
