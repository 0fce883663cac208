package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/smykla-skalski/gridplug/internal/config"
	"github.com/smykla-skalski/gridplug/internal/schema"
	"github.com/smykla-skalski/gridplug/pkg/config"
)

var (
	globalFlag    bool
	forceFlag     bool
	schemaOutput  string
	schemaCompact bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage gridplug configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file holding the built-in defaults.

By default, creates a project configuration file (./gridplug.toml).
Use --global or -g to create the global file (~/.gridplug/config.toml).
Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as TOML",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the layered configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigSchema,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd, configValidateCmd, configSchemaCmd)

	configInitCmd.Flags().BoolVarP(&globalFlag, "global", "g", false, "Initialize global configuration")
	configInitCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Overwrite existing configuration file")

	configSchemaCmd.Flags().StringVarP(&schemaOutput, "output", "o", "", "Write the schema to this file")
	configSchemaCmd.Flags().BoolVar(&schemaCompact, "compact", false, "Print compact JSON")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	writer := internalconfig.NewWriter()

	path := writer.ProjectConfigPath()
	if globalFlag {
		path = writer.GlobalConfigPath()
	}

	cfg := internalconfig.DefaultConfig()

	var err error
	if forceFlag {
		err = writer.WriteFile(path, cfg)
	} else {
		err = writer.WriteNew(path, cfg)
	}

	if err != nil {
		if errors.Is(err, internalconfig.ErrConfigExists) {
			return errors.WithHint(err, "use --force to overwrite it")
		}

		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)

	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := internalconfig.Marshal(cfg)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}

func runConfigValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"Configuration is valid (%d network instance(s), %d resource instance(s), %d policy rule(s))\n",
		len(cfg.InstancesFor(config.CategoryNetwork)),
		len(cfg.InstancesFor(config.CategoryResource)),
		len(cfg.GetPolicy().Rules),
	)

	return nil
}

func runConfigSchema(cmd *cobra.Command, _ []string) error {
	data, err := schema.GenerateJSON(!schemaCompact)
	if err != nil {
		return err
	}

	if schemaOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)

		return err
	}

	//nolint:gosec // path from CLI flag
	if err := os.WriteFile(schemaOutput, data, internalconfig.ConfigFileMode); err != nil {
		return errors.Wrapf(err, "failed to write schema to %s", schemaOutput)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Schema written to %s\n", schemaOutput)

	return nil
}
