// Package resource provides the storage resource plugin category.
package resource

import (
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

// Category is the plugin category served by this package.
const Category = config.CategoryResource

// Property keys set on every resource plugin.
const (
	PropertyName    = "resc_name"
	PropertyContext = "resc_context"
	PropertyType    = "resc_type"
)

// Plugin is a loaded storage resource driver.
type Plugin struct {
	plugin.Base

	bindings []plugin.Binding
}

// New creates an unloaded resource plugin bound according to cfg.
func New(cfg *config.CategoryConfig) *Plugin {
	p := &Plugin{}

	if cfg == nil {
		return p
	}

	for _, op := range cfg.Operations {
		if op == nil {
			continue
		}

		p.bindings = append(p.bindings, plugin.Binding{Name: op.Name, Symbol: op.Symbol})
	}

	return p
}

// DelayLoad binds the configured operations. Resources have no lifecycle symbols.
func (p *Plugin) DelayLoad(lib native.Library) error {
	if _, err := p.BindOperations(lib, p.bindings, plugin.Lifecycle{}); err != nil {
		return err
	}

	p.SetProperty(PropertyName, p.InstanceName())
	p.SetProperty(PropertyContext, p.Context())

	return nil
}

// Load resolves the resource plugin directory from cfg and loads desc.
func Load(cfg *config.PluginConfig, desc plugin.Descriptor, opts ...plugin.LoadOption) (*Plugin, error) {
	desc.Category = Category

	dir, err := plugin.ResolvePath(cfg, Category)
	if err != nil {
		return nil, err
	}

	p, err := plugin.Load(func() *Plugin { return New(cfg.Category(Category)) }, desc, dir, opts...)
	if err != nil {
		return nil, err
	}

	p.SetProperty(PropertyType, desc.Name)

	return p, nil
}

// Loader returns a registry loader for resource plugins.
func Loader(cfg *config.PluginConfig, opts ...plugin.LoadOption) plugin.LoadFunc {
	return func(desc plugin.Descriptor) (plugin.Instance, error) {
		p, err := Load(cfg, desc, opts...)
		if err != nil {
			return nil, err
		}

		return p, nil
	}
}
