package plugin

import (
	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// Loadable is the capability a plugin type must provide to be loaded by Load.
//
// DelayLoad receives the still-open library right after the factory has run
// and binds the plugin's operation table. Types that do not implement it
// cannot instantiate Load. The unexported attach method is supplied by
// embedding Base, which is the only way to take ownership of a library.
type Loadable interface {
	DelayLoad(lib native.Library) error
	Close() error

	attach(state *loadState)
}

// Constructor returns a new, unattached plugin value.
type Constructor[T Loadable] func() T

// loadState is handed from the loader to Base before DelayLoad runs.
type loadState struct {
	desc    Descriptor
	lib     native.Library
	version Version
	handle  uintptr
	log     logger.Logger
	engine  RuleEngine
	metrics metrics.PluginMetrics
}
