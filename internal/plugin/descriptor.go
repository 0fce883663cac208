package plugin

// Descriptor identifies a plugin to load.
type Descriptor struct {
	// Category is the plugin family, e.g. "network" or "resource".
	Category string

	// Name is the requested plugin name. Non-alphanumeric characters are
	// dropped when building the library filename.
	Name string

	// Instance labels the loaded plugin at call sites.
	Instance string

	// Context is passed verbatim to the plugin factory.
	Context string
}

// Key returns the registry key of the descriptor.
func (d Descriptor) Key() string {
	return d.Category + "/" + d.instanceName()
}

func (d Descriptor) instanceName() string {
	if d.Instance == "" {
		return d.Name
	}

	return d.Instance
}

// Binding maps an operation name to the exported symbol implementing it.
type Binding struct {
	Name   string
	Symbol string
}

// Lifecycle names optional start and stop symbols. Empty fields are not bound.
type Lifecycle struct {
	Start string
	Stop  string
}
