package plugin

import (
	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// LoadOption configures Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	engine  RuleEngine
	log     logger.Logger
	metrics metrics.PluginMetrics
	opener  native.Opener
}

// WithRuleEngine activates policy hooks around every bound operation.
func WithRuleEngine(engine RuleEngine) LoadOption {
	return func(o *loadOptions) {
		o.engine = engine
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) LoadOption {
	return func(o *loadOptions) {
		o.log = log
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.PluginMetrics) LoadOption {
	return func(o *loadOptions) {
		o.metrics = m
	}
}

// WithOpener replaces the dynamic linker used to open libraries.
func WithOpener(opener native.Opener) LoadOption {
	return func(o *loadOptions) {
		o.opener = opener
	}
}

func newLoadOptions(opts []LoadOption) *loadOptions {
	o := &loadOptions{
		log:     logger.NewNoOpLogger(),
		metrics: metrics.NewNoopPluginMetrics(),
		opener:  native.DefaultOpener,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Load opens the library for desc in dir, checks its interface version,
// constructs the plugin through the exported factory and runs its delayed
// binding.
//
// On success the returned plugin owns the library. On failure the zero value
// of T is returned and the library, if it was opened, has been closed
// exactly once.
func Load[T Loadable](ctor Constructor[T], desc Descriptor, dir string, opts ...LoadOption) (T, error) {
	var zero T

	o := newLoadOptions(opts)
	log := o.log.With("category", desc.Category, "instance", desc.instanceName(), "plugin", desc.Name)

	fail := func(lib native.Library, err error) (T, error) {
		if lib != nil {
			if closeErr := lib.Close(); closeErr != nil {
				log.Warn("failed to close plugin library after load error", "error", closeErr)
			}
		}

		o.metrics.RecordLoad(desc.Category, metrics.StatusFailed)
		log.Error("failed to load plugin", "error", err)

		return zero, err
	}

	path, err := LibraryPath(dir, desc.Name)
	if err != nil {
		return fail(nil, err)
	}

	lib, err := o.opener.Open(path)
	if err != nil {
		return fail(nil, errors.Mark(errors.Wrapf(err, "plugin %s", desc.Name), ErrLibraryOpenFailed))
	}

	var interfaceVersion func() float64
	if err := lib.Bind(native.VersionSymbol, &interfaceVersion); err != nil {
		return fail(lib, errors.Mark(errors.Wrapf(err, "plugin %s", desc.Name), ErrVersionQueryFailed))
	}

	version := ParseVersion(interfaceVersion())

	switch {
	case version.IsCurrent():
		log.Debug("plugin interface version", "version", version)
	case version.IsFuture():
		log.Warn("plugin reports a newer interface version, using the current factory contract",
			"version", version,
			"current", CurrentInterfaceVersion,
		)
	default:
		log.Warn("plugin reports an unrecognized interface version, using the current factory contract",
			"version", version,
			"current", CurrentInterfaceVersion,
		)
	}

	var factory func(instance, context string) uintptr
	if err := lib.Bind(native.FactorySymbol, &factory); err != nil {
		return fail(lib, errors.Mark(errors.Wrapf(err, "plugin %s", desc.Name), ErrFactoryFailed))
	}

	handle := factory(desc.instanceName(), desc.Context)
	if handle == 0 {
		return fail(lib, errors.Wrapf(ErrFactoryFailed, "plugin %s: factory returned null", desc.Name))
	}

	plugin := ctor()
	plugin.attach(&loadState{
		desc:    desc,
		lib:     lib,
		version: version,
		handle:  handle,
		log:     log,
		engine:  o.engine,
		metrics: o.metrics,
	})

	if err := plugin.DelayLoad(lib); err != nil {
		return fail(lib, errors.Mark(errors.Wrapf(err, "plugin %s", desc.Name), ErrDelayLoadFailed))
	}

	o.metrics.RecordLoad(desc.Category, metrics.StatusOK)
	log.Info("loaded plugin", "path", path, "version", version)

	return plugin, nil
}
