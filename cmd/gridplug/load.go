package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/gridplug/internal/config/factory"
	"github.com/smykla-skalski/gridplug/internal/native"
	"github.com/smykla-skalski/gridplug/internal/plugin"
)

// opener opens plugin libraries. Tests replace it with in-memory libraries.
var opener native.Opener = native.DefaultOpener

var (
	loadInstance string
	loadContext  string
	loadShowOps  bool
	loadInvoke   string
	loadArgs     []int64
)

var loadCmd = &cobra.Command{
	Use:   "load <category> <name>",
	Short: "Load a plugin and optionally invoke one operation",
	Long: `Load a plugin library, bind the operations configured for its category
and print what was loaded. The library is closed before the command exits.

Examples:
  gridplug load network tcp --ops
  gridplug load resource unixfilesystem --instance demoResc --invoke open --arg 3`,
	Args: cobra.ExactArgs(2),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&loadInstance, "instance", "", "Instance name (default: plugin name)")
	loadCmd.Flags().StringVar(&loadContext, "context", "", "Context string passed to the plugin factory")
	loadCmd.Flags().BoolVar(&loadShowOps, "ops", false, "List the bound operations")
	loadCmd.Flags().StringVar(&loadInvoke, "invoke", "", "Invoke this operation after loading")
	loadCmd.Flags().Int64SliceVar(&loadArgs, "arg", nil, "Integer argument for --invoke (repeatable)")
}

// described is implemented by every plugin embedding plugin.Base.
type described interface {
	plugin.Instance
	LoadID() string
	LibraryPath() string
	Version() plugin.Version
	Operations() *plugin.OperationTable
}

func runLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	registry, err := factory.NewPluginFactory(log, factory.WithOpener(opener)).CreateRegistry(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := registry.Close(); closeErr != nil {
			log.Warn("failed to release plugins", "error", closeErr)
		}
	}()

	inst, err := registry.GetOrLoad(plugin.Descriptor{
		Category: args[0],
		Name:     args[1],
		Instance: loadInstance,
		Context:  loadContext,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	p, ok := inst.(described)
	if !ok {
		return errors.AssertionFailedf("plugin %T does not embed plugin.Base", inst)
	}

	if err := printPlugin(out, p); err != nil {
		return err
	}

	if loadShowOps {
		if err := printOperations(out, p.Operations()); err != nil {
			return err
		}
	}

	if loadInvoke == "" {
		return nil
	}

	callArgs := make([]uintptr, len(loadArgs))
	for i, a := range loadArgs {
		callArgs[i] = uintptr(a) //nolint:gosec // plugins receive the two's complement bits
	}

	result, err := inst.Invoke(cmd.Context(), loadInvoke, callArgs...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s returned %d\n", loadInvoke, int64(result))

	return nil
}

func printPlugin(w io.Writer, p described) error {
	version := p.Version().String()
	if p.Version().IsFuture() {
		version += " (newer than " + plugin.CurrentInterfaceVersion.String() + ")"
	}

	return renderTable(w, []string{"Field", "Value"}, [][]string{
		{"Category", p.Category()},
		{"Instance", p.InstanceName()},
		{"Library", p.LibraryPath()},
		{"Interface", version},
		{"Operations", strconv.Itoa(p.Operations().Len())},
		{"Load ID", p.LoadID()},
	})
}

func printOperations(w io.Writer, table *plugin.OperationTable) error {
	names := table.Names()
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No operations bound")

		return err
	}

	rows := make([][]string, 0, len(names))

	for _, name := range names {
		op, _ := table.Lookup(name)
		rows = append(rows, []string{name, op.Symbol()})
	}

	return renderTable(w, []string{"Operation", "Symbol"}, rows)
}
