// Package network provides the network transport plugin category.
//
// Network plugins bind their operations from the [plugin.network] section of
// the configuration and may name start and stop symbols that run when the
// transport is brought up or torn down. Without them Start and Stop succeed
// without calling into the library.
package network

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

// Category is the plugin category served by this package.
const Category = config.CategoryNetwork

// Property keys set on every network plugin.
const (
	PropertyTransport = "transport"
	PropertyContext   = "context"
)

// Plugin is a loaded network transport.
type Plugin struct {
	plugin.Base

	bindings []plugin.Binding

	mu        sync.Mutex
	lifecycle plugin.Lifecycle
	ops       plugin.LifecycleOps
	bound     bool
}

// New creates an unloaded network plugin bound according to cfg.
func New(cfg *config.CategoryConfig) *Plugin {
	p := &Plugin{}

	if cfg == nil {
		return p
	}

	p.lifecycle = plugin.Lifecycle{Start: cfg.StartOperation, Stop: cfg.StopOperation}

	for _, op := range cfg.Operations {
		if op == nil {
			continue
		}

		p.bindings = append(p.bindings, plugin.Binding{Name: op.Name, Symbol: op.Symbol})
	}

	return p
}

// DelayLoad binds the configured operations and lifecycle symbols.
func (p *Plugin) DelayLoad(lib native.Library) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ops, err := p.BindOperations(lib, p.bindings, p.lifecycle)
	if err != nil {
		return err
	}

	p.ops = ops
	p.bound = true

	p.SetProperty(PropertyTransport, p.InstanceName())
	p.SetProperty(PropertyContext, p.Context())

	return nil
}

// SetStartOperation names the symbol run by Start. An empty symbol restores
// the built-in no-op. Once the plugin is loaded the symbol is resolved
// immediately and ErrStartOperationMissing is returned if it does not exist.
func (p *Plugin) SetStartOperation(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.bound || symbol == "" {
		p.lifecycle.Start = symbol
		p.ops.Start = nil

		return nil
	}

	ops, err := p.BindLifecycle(plugin.Lifecycle{Start: symbol})
	if err != nil {
		return err
	}

	p.lifecycle.Start = symbol
	p.ops.Start = ops.Start

	return nil
}

// SetStopOperation names the symbol run by Stop. It behaves like
// SetStartOperation.
func (p *Plugin) SetStopOperation(symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.bound || symbol == "" {
		p.lifecycle.Stop = symbol
		p.ops.Stop = nil

		return nil
	}

	ops, err := p.BindLifecycle(plugin.Lifecycle{Stop: symbol})
	if err != nil {
		return err
	}

	p.lifecycle.Stop = symbol
	p.ops.Stop = ops.Stop

	return nil
}

// Start runs the start operation.
func (p *Plugin) Start(ctx context.Context) (plugin.Result, error) {
	return p.runLifecycle(ctx, "start", func(ops plugin.LifecycleOps) *plugin.Operation { return ops.Start })
}

// Stop runs the stop operation.
func (p *Plugin) Stop(ctx context.Context) (plugin.Result, error) {
	return p.runLifecycle(ctx, "stop", func(ops plugin.LifecycleOps) *plugin.Operation { return ops.Stop })
}

func (p *Plugin) runLifecycle(
	ctx context.Context,
	phase string,
	pick func(plugin.LifecycleOps) *plugin.Operation,
) (plugin.Result, error) {
	p.mu.Lock()
	op := pick(p.ops)
	p.mu.Unlock()

	if op == nil {
		p.Logger().Debug("no lifecycle operation configured", "phase", phase)

		return 0, nil
	}

	result, err := p.CallLifecycle(ctx, op)
	if err != nil {
		return result, errors.Wrapf(err, "%s %s", phase, p.InstanceName())
	}

	p.Logger().Debug("lifecycle operation finished", "phase", phase, "symbol", op.Symbol(), "result", int64(result))

	return result, nil
}

// Load resolves the network plugin directory from cfg and loads desc.
func Load(cfg *config.PluginConfig, desc plugin.Descriptor, opts ...plugin.LoadOption) (*Plugin, error) {
	desc.Category = Category

	dir, err := plugin.ResolvePath(cfg, Category)
	if err != nil {
		return nil, err
	}

	return plugin.Load(func() *Plugin { return New(cfg.Category(Category)) }, desc, dir, opts...)
}

// Loader returns a registry loader for network plugins.
func Loader(cfg *config.PluginConfig, opts ...plugin.LoadOption) plugin.LoadFunc {
	return func(desc plugin.Descriptor) (plugin.Instance, error) {
		p, err := Load(cfg, desc, opts...)
		if err != nil {
			return nil, err
		}

		return p, nil
	}
}
