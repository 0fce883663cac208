package factory

import (
	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/internal/network"
	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/internal/resource"
	"github.com/smykla-skalski/gridplug/pkg/config"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// PluginFactory creates a plugin registry wired with the category loaders.
type PluginFactory struct {
	log     logger.Logger
	metrics metrics.PluginMetrics
	opener  native.Opener
	rules   *RulesFactory
}

// Option configures a PluginFactory.
type Option func(*PluginFactory)

// WithMetrics sets the metrics recorder passed to every loaded plugin.
func WithMetrics(m metrics.PluginMetrics) Option {
	return func(f *PluginFactory) {
		f.metrics = m
	}
}

// WithOpener replaces the dynamic linker, mainly for tests.
func WithOpener(opener native.Opener) Option {
	return func(f *PluginFactory) {
		f.opener = opener
	}
}

// NewPluginFactory creates a new PluginFactory.
func NewPluginFactory(log logger.Logger, opts ...Option) *PluginFactory {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	f := &PluginFactory{
		log:     log,
		metrics: metrics.NewPluginMetrics(),
		opener:  native.DefaultOpener,
		rules:   NewRulesFactory(log),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// LoadOptions returns the options every plugin load uses for cfg.
func (f *PluginFactory) LoadOptions(cfg *config.Config) ([]plugin.LoadOption, error) {
	opts := []plugin.LoadOption{
		plugin.WithLogger(f.log),
		plugin.WithMetrics(f.metrics),
		plugin.WithOpener(f.opener),
	}

	engine, err := f.rules.CreateRuleEngine(cfg)
	if err != nil {
		return nil, err
	}

	// A typed nil would select the intercepting wrapper.
	if engine != nil {
		opts = append(opts, plugin.WithRuleEngine(engine))
	}

	return opts, nil
}

// CreateRegistry returns a registry that loads network and resource plugins
// on demand. Nothing is loaded yet.
func (f *PluginFactory) CreateRegistry(cfg *config.Config) (*plugin.Registry, error) {
	opts, err := f.LoadOptions(cfg)
	if err != nil {
		return nil, err
	}

	pluginCfg := cfg.GetPlugin()

	registry := plugin.NewRegistry(f.log)
	registry.Register(network.Category, network.Loader(pluginCfg, opts...))
	registry.Register(resource.Category, resource.Loader(pluginCfg, opts...))

	return registry, nil
}

// Descriptors converts the configured instances into load descriptors.
func Descriptors(cfg *config.Config) []plugin.Descriptor {
	descs := make([]plugin.Descriptor, 0, len(cfg.Instances))

	for _, inst := range cfg.Instances {
		if inst == nil {
			continue
		}

		descs = append(descs, plugin.Descriptor{
			Category: inst.Category,
			Name:     inst.Name,
			Instance: inst.GetInstance(),
			Context:  inst.Context,
		})
	}

	return descs
}
