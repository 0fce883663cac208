package config

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrDuplicateValue is returned when a name that must be unique repeats.
	ErrDuplicateValue = errors.New("duplicate value")

	// ErrUnsupportedOption is returned when an option is set where it has no effect.
	ErrUnsupportedOption = errors.New("unsupported option")
)

// Validator validates configuration semantics.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new Validator with the gridplug tags registered.
func NewValidator() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Registration only fails for empty tags or nil funcs.
	_ = validate.RegisterValidation("plugin_name", validatePluginName)
	_ = validate.RegisterValidation("glob", validateGlob)

	return &Validator{validate: validate}
}

func validatePluginName(fl validator.FieldLevel) bool {
	_, err := plugin.LibraryName(fl.Field().String())

	return err == nil
}

func validateGlob(fl validator.FieldLevel) bool {
	return doublestar.ValidatePattern(fl.Field().String())
}

// Validate validates the entire configuration.
// Returns an error describing all validation failures.
func (v *Validator) Validate(cfg *config.Config) error {
	if cfg == nil {
		return errors.WithMessage(ErrInvalidConfig, "config is nil")
	}

	var validationErrors []error

	if err := v.validate.Struct(cfg); err != nil {
		validationErrors = append(validationErrors, formatValidationErrors(err)...)
	}

	validationErrors = append(validationErrors, validateInstances(cfg.Instances)...)
	validationErrors = append(validationErrors, validateRules(cfg.Policy)...)

	if err := validateResourceLifecycle(cfg.Plugin); err != nil {
		validationErrors = append(validationErrors, err)
	}

	if len(validationErrors) > 0 {
		return errors.Mark(
			errors.Wrapf(
				combineErrors(validationErrors),
				"validation failed with %d error(s)",
				len(validationErrors),
			),
			ErrInvalidConfig,
		)
	}

	return nil
}

// formatValidationErrors converts validator errors into one error per field.
func formatValidationErrors(err error) []error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{err}
	}

	out := make([]error, 0, len(fieldErrs))

	for _, fe := range fieldErrs {
		out = append(out, errors.Newf("%s: validation failed on '%s' tag (value: %v)",
			fe.Namespace(), describeTag(fe), fe.Value()))
	}

	return out
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}

	return fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
}

// validateInstances rejects two instances that would share a registry key.
func validateInstances(instances []*config.InstanceConfig) []error {
	var errs []error

	seen := make(map[string]int)

	for i, inst := range instances {
		if inst == nil {
			continue
		}

		key := inst.Category + "/" + inst.GetInstance()

		if first, ok := seen[key]; ok {
			errs = append(errs, errors.Wrapf(ErrDuplicateValue,
				"instances[%d]: %s already defined by instances[%d]", i, key, first))

			continue
		}

		seen[key] = i
	}

	return errs
}

// validateRules rejects repeated rule names, which would make overrides ambiguous.
func validateRules(policy *config.PolicyConfig) []error {
	if policy == nil {
		return nil
	}

	var errs []error

	seen := make(map[string]bool)

	for i, rule := range policy.Rules {
		if rule == nil || rule.Name == "" {
			continue
		}

		if seen[rule.Name] {
			errs = append(errs, errors.Wrapf(ErrDuplicateValue, "policy.rules[%d]: rule %q", i, rule.Name))
		}

		seen[rule.Name] = true
	}

	return errs
}

// validateResourceLifecycle rejects start/stop operations on resource plugins,
// which have no lifecycle.
func validateResourceLifecycle(cfg *config.PluginConfig) error {
	resource := cfg.Category(config.CategoryResource)
	if resource == nil {
		return nil
	}

	if resource.StartOperation != "" || resource.StopOperation != "" {
		return errors.Wrap(ErrUnsupportedOption,
			"plugin.resource: start_operation and stop_operation apply to network plugins only")
	}

	return nil
}

// combineErrors combines multiple errors into a single error.
func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return errors.Join(errs...)
}
