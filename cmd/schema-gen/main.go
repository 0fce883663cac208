// Command schema-gen writes the gridplug config JSON Schema.
//
// Usage:
//
//	schema-gen [dir]   write <dir>/gridplug.v<N>.schema.json (default: schema)
//	schema-gen -       print the schema to stdout
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/smykla-skalski/gridplug/internal/schema"
)

const filePerms = 0o644

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "schema-gen: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	data, err := schema.GenerateJSON(true)
	if err != nil {
		return err
	}

	target := "schema"
	if len(args) > 0 {
		target = args[0]
	}

	if target == "-" {
		_, err := os.Stdout.Write(data)

		return err
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}

	outPath := filepath.Join(target, schema.Filename())

	//nolint:gosec // dev tool, target from CLI arg
	if err := os.WriteFile(outPath, data, filePerms); err != nil {
		return err
	}

	fmt.Println(outPath)

	return nil
}
