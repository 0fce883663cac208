// Package schema generates JSON Schema from the gridplug config types.
package schema

import (
	"encoding/json"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"

	"github.com/smykla-skalski/gridplug/pkg/config"
)

const (
	schemaURI = "https://json-schema.org/draft/2020-12/schema"
	title     = "gridplug configuration"

	// Version is bumped whenever the config layout changes incompatibly.
	Version = 1

	baseURL = "https://raw.githubusercontent.com/smykla-skalski/gridplug/main/schema/"
)

// Generate produces a JSON Schema from the config.Config struct.
func Generate() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		ExpandedStruct: true,
	}

	s := r.Reflect(&config.Config{})
	s.Version = schemaURI
	s.Title = title
	s.ID = jsonschema.ID(URL())

	return s
}

// GenerateJSON produces a JSON Schema as bytes.
// When indent is true, the output is pretty-printed.
func GenerateJSON(indent bool) ([]byte, error) {
	s := Generate()

	var (
		data []byte
		err  error
	)

	if indent {
		data, err = json.MarshalIndent(s, "", "  ")
	} else {
		data, err = json.Marshal(s)
	}

	if err != nil {
		return nil, errors.Wrap(err, "marshaling schema to JSON")
	}

	// Append trailing newline for file output.
	return append(data, '\n'), nil
}

// Filename returns the versioned schema file name.
func Filename() string {
	return "gridplug.v" + strconv.Itoa(Version) + ".schema.json"
}

// URL returns where the published schema lives.
func URL() string {
	return baseURL + Filename()
}

// SchemaDirective returns the Taplo directive placed at the top of written
// TOML files so editors can validate them.
func SchemaDirective() string {
	return "#:schema " + URL()
}
