package resource

import (
	"context"
	"maps"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/smykla-skalski/gridplug/internal/plugin"
)

// HierarchySeparator separates resource names in a hierarchy string.
const HierarchySeparator = ";"

// Policy variable names exported by a DataObject.
const (
	VarLogicalPath = "logical_path"
	VarHierarchy   = "resc_hier"
	VarResource    = "resc_name"
	VarSize        = "data_size"
)

// DataObject is a stored object placed on a resource hierarchy such as
// "root;replicator;leaf". The leaf resource serves its data.
type DataObject struct {
	LogicalPath string
	Hierarchy   string
	Size        int64

	registry *plugin.Registry
}

// NewDataObject creates a data object whose resource is resolved through registry.
func NewDataObject(registry *plugin.Registry, logicalPath, hierarchy string, size int64) *DataObject {
	return &DataObject{
		LogicalPath: logicalPath,
		Hierarchy:   hierarchy,
		Size:        size,
		registry:    registry,
	}
}

// Resources returns the resource names of the hierarchy, root first.
func (d *DataObject) Resources() []string {
	var names []string

	for name := range strings.SplitSeq(d.Hierarchy, HierarchySeparator) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	return names
}

// Leaf returns the last resource of the hierarchy.
func (d *DataObject) Leaf() string {
	names := d.Resources()
	if len(names) == 0 {
		return ""
	}

	return names[len(names)-1]
}

// Resolve returns the loaded plugin of the leaf resource.
//
//nolint:ireturn // FirstClassObject returns plugin.Instance
func (d *DataObject) Resolve(ctx context.Context, iface string) (plugin.Instance, error) {
	if iface != Category {
		return nil, errors.Wrapf(plugin.ErrInvalidConfiguration,
			"data object %s does not provide plugin interface %q", d.LogicalPath, iface)
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "resolve data object")
	}

	leaf := d.Leaf()
	if leaf == "" {
		return nil, errors.Wrapf(plugin.ErrInvalidConfiguration,
			"data object %s has an empty resource hierarchy", d.LogicalPath)
	}

	if d.registry != nil {
		if inst, ok := d.registry.Get(Category, leaf); ok {
			return inst, nil
		}
	}

	return nil, errors.Wrapf(plugin.ErrInvalidConfiguration, "resource %q is not loaded", leaf)
}

// PolicyVars returns the object's placement and, once its leaf resource is
// loaded, the resource plugin's properties.
func (d *DataObject) PolicyVars() map[string]string {
	vars := make(map[string]string)

	leaf := d.Leaf()

	if d.registry != nil && leaf != "" {
		if inst, ok := d.registry.Get(Category, leaf); ok {
			maps.Copy(vars, inst.Properties())
		}
	}

	vars[VarLogicalPath] = d.LogicalPath
	vars[VarHierarchy] = d.Hierarchy
	vars[VarResource] = leaf
	vars[VarSize] = strconv.FormatInt(d.Size, 10)

	return vars
}

var _ plugin.FirstClassObject = (*DataObject)(nil)
