package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/smykla-skalski/gridplug/internal/config/factory"
	"github.com/smykla-skalski/gridplug/internal/metrics"
	"github.com/smykla-skalski/gridplug/internal/network"
	"github.com/smykla-skalski/gridplug/internal/plugin"
	"github.com/smykla-skalski/gridplug/pkg/config"
	"github.com/smykla-skalski/gridplug/pkg/logger"
)

// uptimeDisplayUnits limits the uptime log to the two largest units.
const uptimeDisplayUnits = 2

var (
	metricsAddr   string
	serveDuration time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the configured plugins and keep them running",
	Long: `Load every configured plugin instance, start the network plugins and
serve until interrupted. On shutdown network plugins are stopped in reverse
start order and every library is released.

With metrics enabled, Prometheus metrics are exposed on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(
		&metricsAddr,
		"metrics-addr",
		"",
		"Expose metrics on this address (enables metrics)",
	)
	serveCmd.Flags().DurationVar(
		&serveDuration,
		"duration",
		0,
		"Stop after this long (0 serves until interrupted)",
	)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveDuration > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, serveDuration)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)

	if cfg.GetMetrics().IsEnabled() {
		metrics.InitRegistry()

		server, err := metrics.NewServer(metrics.ServerConfig{
			Address:         cfg.GetMetrics().Address,
			ShutdownTimeout: cfg.GetMetrics().ShutdownTimeout.ToDuration(),
		}, metrics.GetRegistry(), log)
		if err != nil {
			return err
		}

		g.Go(func() error { return server.Start(ctx) })
	}

	g.Go(func() error { return servePlugins(ctx, cfg, log) })

	err = g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}

	return err
}

// servePlugins loads and starts the configured plugins, waits for ctx and
// tears everything down.
func servePlugins(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	registry, err := factory.NewPluginFactory(log,
		factory.WithOpener(opener),
		factory.WithMetrics(metrics.NewPluginMetrics()),
	).CreateRegistry(cfg)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := registry.Close(); closeErr != nil {
			log.Warn("failed to release plugins", "error", closeErr)
		}

		log.Info("all plugins released")
	}()

	started := time.Now()
	descs := factory.Descriptors(cfg)
	if err := registry.LoadAll(ctx, descs); err != nil {
		return err
	}

	log.Info("plugins loaded", "count", len(descs))

	running, err := startNetworkPlugins(ctx, registry, log)
	defer stopNetworkPlugins(context.WithoutCancel(ctx), running, log)

	if err != nil {
		return err
	}

	<-ctx.Done()

	log.Info("shutting down",
		"reason", context.Cause(ctx),
		"uptime", durafmt.Parse(time.Since(started)).LimitFirstN(uptimeDisplayUnits).String(),
	)

	return nil
}

func startNetworkPlugins(ctx context.Context, registry *plugin.Registry, log logger.Logger) ([]*network.Plugin, error) {
	var started []*network.Plugin

	for _, inst := range registry.Instances() {
		p, ok := inst.(*network.Plugin)
		if !ok {
			continue
		}

		result, err := p.Start(ctx)
		if err != nil {
			return started, err
		}

		if !result.OK() {
			return started, errors.Newf("network plugin %s failed to start: %d", p.InstanceName(), int64(result))
		}

		started = append(started, p)

		log.Info("network plugin started", "instance", p.InstanceName())
	}

	return started, nil
}

func stopNetworkPlugins(ctx context.Context, started []*network.Plugin, log logger.Logger) {
	for _, p := range slices.Backward(started) {
		result, err := p.Stop(ctx)

		switch {
		case err != nil:
			log.Warn("network plugin stop failed", "instance", p.InstanceName(), "error", err)
		case !result.OK():
			log.Warn("network plugin stop failed", "instance", p.InstanceName(), "result", int64(result))
		default:
			log.Info("network plugin stopped", "instance", p.InstanceName())
		}
	}
}
