package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smykla-skalski/gridplug/internal/plugin"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <category> [name]",
	Short: "Print where plugins of a category are loaded from",
	Long: `Print the plugin directory of a category and, when a plugin name is
given, the library file that would be opened for it.

Examples:
  gridplug resolve network              # /var/lib/gridplug/plugins/network/
  gridplug resolve network tcp          # /var/lib/gridplug/plugins/network/libtcp.so`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, err := plugin.ResolvePath(cfg.GetPlugin(), args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		fmt.Fprintln(cmd.OutOrStdout(), dir)

		return nil
	}

	path, err := plugin.LibraryPath(dir, args[1])
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)

	return nil
}
