// Package main provides the CLI entry point for gridplug.
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/smykla-skalski/gridplug/internal/config"
	"github.com/smykla-skalski/gridplug/pkg/config"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

const (
	// ExitCodeOK indicates success.
	ExitCodeOK = 0

	// ExitCodeError indicates a command failed.
	ExitCodeError = 1

	// ExitCodeCrash indicates an unexpected panic, usually from a plugin.
	ExitCodeCrash = 3
)

var (
	configPath string
	pluginHome string
	logLevel   string
	logFile    string
	policyFlag bool
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s", r, debug.Stack())

			exitCode = ExitCodeCrash
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}

		return ExitCodeError
	}

	return ExitCodeOK
}

var rootCmd = &cobra.Command{
	Use:   "gridplug",
	Short: "Load and drive native plugins",
	Long: `gridplug loads network and resource plugins from shared libraries,
binds their operations by symbol name and runs them behind an optional
policy engine.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkVersionFlag()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"Path to configuration file (default: ./gridplug.toml)",
	)
	flags.StringVar(
		&pluginHome,
		internalconfig.FlagPluginHome,
		"",
		"Plugin root directory (default: /var/lib/gridplug/plugins)",
	)
	flags.StringVar(
		&logLevel,
		internalconfig.FlagLogLevel,
		"",
		"Log level: debug, info, warn or error",
	)
	flags.StringVar(
		&logFile,
		internalconfig.FlagLogFile,
		"",
		"Write logs to this file instead of stderr",
	)
	flags.BoolVar(
		&policyFlag,
		internalconfig.FlagPolicy,
		false,
		"Enable the policy engine (overrides configuration)",
	)
}

// loadConfig loads the layered configuration, applying the flags that were
// set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader, err := internalconfig.NewKoanfLoader()
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		loader.SetConfigFile(configPath)
	}

	return loader.Load(changedFlags(cmd))
}

// changedFlags returns the config-relevant flags the user set explicitly.
func changedFlags(cmd *cobra.Command) map[string]any {
	flags := make(map[string]any)

	values := map[string]func() any{
		internalconfig.FlagPluginHome:  func() any { return pluginHome },
		internalconfig.FlagLogLevel:    func() any { return logLevel },
		internalconfig.FlagLogFile:     func() any { return logFile },
		internalconfig.FlagPolicy:      func() any { return policyFlag },
		internalconfig.FlagMetricsAddr: func() any { return metricsAddr },
	}

	for name, value := range values {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = value()
		}
	}

	return flags
}

// newLogger builds the process logger from cfg. The returned func releases
// the log file, if any.
//
//nolint:ireturn // callers only need the Logger interface
func newLogger(cfg *config.Config) (logger.Logger, func(), error) {
	level, err := logger.ParseLevel(cfg.GetLog().Level)
	if err != nil {
		return nil, nil, err
	}

	if cfg.GetLog().File == "" {
		return logger.New(os.Stderr, level), func() {}, nil
	}

	log, err := logger.NewFileLogger(cfg.GetLog().File, level)
	if err != nil {
		return nil, nil, err
	}

	return log, func() { _ = log.Close() }, nil
}
