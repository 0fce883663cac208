package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

var listCmd = &cobra.Command{
	Use:   "list [category...]",
	Short: "List installed plugin libraries",
	Long: `List the plugin libraries found in the category directories under the
plugin root. Without arguments every known category is listed; categories
whose directory does not exist are skipped.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	categories := args
	explicit := len(args) > 0

	if !explicit {
		categories = []string{config.CategoryNetwork, config.CategoryResource}
	}

	var rows [][]string

	for _, category := range categories {
		dir, err := plugin.ResolvePath(cfg.GetPlugin(), category)
		if err != nil {
			if !explicit && errors.Is(err, plugin.ErrInvalidConfiguration) {
				continue
			}

			return err
		}

		names, err := plugin.Discover(dir)
		if err != nil {
			return err
		}

		for _, name := range names {
			rows = append(rows, libraryRow(category, dir, name))
		}
	}

	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No plugins found")

		return nil
	}

	return renderTable(cmd.OutOrStdout(), []string{"Category", "Name", "Library", "Size", "Modified"}, rows)
}

func libraryRow(category, dir, name string) []string {
	filename, err := plugin.LibraryName(name)
	if err != nil {
		filename = name
	}

	row := []string{category, name, filename, "-", "-"}

	info, err := os.Stat(filepath.Join(dir, filename))
	if err != nil {
		return row
	}

	row[3] = humanize.Bytes(uint64(info.Size())) //nolint:gosec // file sizes are non-negative
	row[4] = humanize.Time(info.ModTime())

	return row
}
