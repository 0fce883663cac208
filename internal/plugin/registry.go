package plugin

import (
	"context"
	"slices"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// LoadFunc loads the plugin described by desc.
type LoadFunc func(desc Descriptor) (Instance, error)

// Registry holds loaded plugins keyed by category and instance name.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]LoadFunc
	plugins map[string]Instance
	group   singleflight.Group
	logger  logger.Logger
}

// NewRegistry creates a new plugin registry.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Registry{
		loaders: make(map[string]LoadFunc),
		plugins: make(map[string]Instance),
		logger:  log,
	}
}

// Register sets the loader used for a category.
func (r *Registry) Register(category string, load LoadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.loaders[category] = load
}

// Get returns a loaded plugin.
//
//nolint:ireturn // registry entries are stored as Instance
func (r *Registry) Get(category, instance string) (Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.plugins[Descriptor{Category: category, Instance: instance}.Key()]

	return inst, ok
}

// GetOrLoad returns the plugin registered for desc, loading it with the
// category's loader if needed. Concurrent calls for the same key share
// one load.
//
//nolint:ireturn // registry entries are stored as Instance
func (r *Registry) GetOrLoad(desc Descriptor) (Instance, error) {
	key := desc.Key()

	if inst, ok := r.Get(desc.Category, desc.instanceName()); ok {
		return inst, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		if inst, ok := r.Get(desc.Category, desc.instanceName()); ok {
			return inst, nil
		}

		r.mu.RLock()
		load, ok := r.loaders[desc.Category]
		r.mu.RUnlock()

		if !ok {
			return nil, errors.Wrapf(ErrInvalidConfiguration, "no loader for plugin category %q", desc.Category)
		}

		inst, err := load(desc)
		if err != nil {
			return nil, err
		}

		if err := r.Add(inst); err != nil {
			if closeErr := inst.Close(); closeErr != nil {
				r.logger.Warn("failed to close duplicate plugin", "key", key, "error", closeErr)
			}

			return nil, err
		}

		return inst, nil
	})
	if err != nil {
		return nil, err
	}

	if shared {
		r.logger.Debug("shared concurrent plugin load", "key", key)
	}

	inst, _ := v.(Instance)

	return inst, nil
}

// Add registers an already loaded plugin.
func (r *Registry) Add(inst Instance) error {
	key := Descriptor{Category: inst.Category(), Instance: inst.InstanceName()}.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[key]; ok {
		return errors.Wrapf(ErrAlreadyLoaded, "%s", key)
	}

	r.plugins[key] = inst

	return nil
}

// LoadAll loads every descriptor concurrently. It returns the first error;
// plugins loaded before the failure stay registered.
func (r *Registry) LoadAll(ctx context.Context, descs []Descriptor) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, desc := range descs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "plugin loading canceled")
			}

			if _, err := r.GetOrLoad(desc); err != nil {
				return errors.Wrapf(err, "failed to load plugin %s", desc.Key())
			}

			return nil
		})
	}

	return g.Wait()
}

// Instances returns the loaded plugins sorted by category and instance name.
func (r *Registry) Instances() []Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.plugins))
	for key := range r.plugins {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	out := make([]Instance, 0, len(keys))
	for _, key := range keys {
		out = append(out, r.plugins[key])
	}

	return out
}

// Remove unregisters a plugin and releases its library.
func (r *Registry) Remove(category, instance string) error {
	key := Descriptor{Category: category, Instance: instance}.Key()

	r.mu.Lock()
	inst, ok := r.plugins[key]
	delete(r.plugins, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}

	return inst.Close()
}

// Close releases all plugin resources and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	plugins := r.plugins
	r.plugins = make(map[string]Instance)
	r.mu.Unlock()

	var firstErr error

	for key, inst := range plugins {
		if err := inst.Close(); err != nil {
			r.logger.Warn("failed to close plugin", "key", key, "error", err)

			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
