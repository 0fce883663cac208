// Package plugin loads native plugins and dispatches their operations.
//
// A plugin is a shared library exporting an interface version function, a
// factory and any number of operation symbols. Load opens the library,
// constructs the plugin and binds its configured operations into an
// OperationTable; callers then only use Invoke with an operation name.
package plugin

import "context"

// Instance is the read and invoke surface of a loaded plugin.
type Instance interface {
	// Category returns the plugin category.
	Category() string

	// InstanceName returns the label the plugin was loaded under.
	InstanceName() string

	// Invoke calls a bound operation by name.
	Invoke(ctx context.Context, name string, args ...uintptr) (Result, error)

	// Properties returns a copy of the plugin's property bag.
	Properties() map[string]string

	// Close releases the plugin's library.
	Close() error
}

var _ Instance = (*Base)(nil)
