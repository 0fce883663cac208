package plugin

import "context"

// FirstClassObject is a domain entity that resolves itself to a loaded plugin
// and exports variables for the policy engine.
type FirstClassObject interface {
	// Resolve returns the plugin serving the named plugin interface.
	Resolve(ctx context.Context, iface string) (Instance, error)

	// PolicyVars returns the variables visible to policy rules.
	PolicyVars() map[string]string
}
