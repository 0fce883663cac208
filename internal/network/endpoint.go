package network

import (
	"context"
	"maps"
	"net"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/plugin"
)

// Policy variable names exported by an Endpoint.
const (
	VarHost      = "host"
	VarPort      = "port"
	VarAddress   = "address"
	VarTransport = "transport"
)

// Endpoint is a network peer reached through a transport plugin.
type Endpoint struct {
	Host      string
	Port      int
	Transport string

	registry *plugin.Registry
}

// NewEndpoint creates an endpoint whose transport plugin is resolved through registry.
func NewEndpoint(registry *plugin.Registry, host string, port int, transport string) *Endpoint {
	return &Endpoint{
		Host:      host,
		Port:      port,
		Transport: transport,
		registry:  registry,
	}
}

// Address returns host:port.
func (e *Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Resolve returns the transport plugin for the network interface. The plugin
// is loaded on first use, with the transport name as plugin and instance name.
//
//nolint:ireturn // FirstClassObject returns plugin.Instance
func (e *Endpoint) Resolve(ctx context.Context, iface string) (plugin.Instance, error) {
	if iface != Category {
		return nil, errors.Wrapf(plugin.ErrInvalidConfiguration,
			"endpoint %s does not provide plugin interface %q", e.Address(), iface)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "resolve endpoint")
	}

	if e.registry == nil {
		return nil, errors.Wrapf(plugin.ErrInvalidConfiguration, "endpoint %s has no plugin registry", e.Address())
	}

	return e.registry.GetOrLoad(plugin.Descriptor{
		Category: Category,
		Name:     e.Transport,
		Instance: e.Transport,
	})
}

// PolicyVars returns the endpoint address and, once its transport plugin is
// loaded, the plugin's properties.
func (e *Endpoint) PolicyVars() map[string]string {
	vars := make(map[string]string)

	if e.registry != nil {
		if inst, ok := e.registry.Get(Category, e.Transport); ok {
			maps.Copy(vars, inst.Properties())
		}
	}

	vars[VarHost] = e.Host
	vars[VarPort] = strconv.Itoa(e.Port)
	vars[VarAddress] = e.Address()
	vars[VarTransport] = e.Transport

	return vars
}

var _ plugin.FirstClassObject = (*Endpoint)(nil)
