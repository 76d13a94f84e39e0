package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/luminous/pkg/cli"
	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/gateway/allowlist"
	"mercator-hq/luminous/pkg/health"
	"mercator-hq/luminous/pkg/security/secrets"
	"mercator-hq/luminous/pkg/server"
	"mercator-hq/luminous/pkg/telemetry/metrics"
	"mercator-hq/luminous/pkg/telemetry/tracing"
	"mercator-hq/luminous/pkg/watch"
)

var runFlags struct {
	listenAddress string
	proxy         string
	region        string
	discardCreds  bool
	regenCreds    bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the playback gateway",
	Long: `Start the playback gateway with the specified configuration.

Unless a static proxy is configured, a tunnel is negotiated with the broker
before the listener opens. The negotiated credential is used until restart.

Examples:
  # Start with default config
  luminous run

  # Start with custom config
  luminous run --config /etc/luminous/luminous.yaml

  # Exit through a specific region with a fresh identity
  luminous run --region de --regen-creds

  # Use a fixed proxy instead of the broker
  luminous run --proxy socks5://127.0.0.1:1080

  # Validate config without starting the gateway
  luminous run --dry-run`,
	RunE: runGateway,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.proxy, "proxy", "", "static upstream proxy URL (skips the broker)")
	runCmd.Flags().StringVar(&runFlags.region, "region", "", "tunnel region code")
	runCmd.Flags().BoolVar(&runFlags.discardCreds, "discard-creds", false, "do not persist the negotiated identity")
	runCmd.Flags().BoolVar(&runFlags.regenCreds, "regen-creds", false, "ignore the stored identity and negotiate a new one")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the gateway")
}

// applyRunFlags copies command-line overrides into cfg and revalidates it.
func applyRunFlags(cfg *config.Config) error {
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.proxy != "" {
		cfg.Upstream.Proxy = runFlags.proxy
	}
	if runFlags.region != "" {
		cfg.Broker.Region = runFlags.region
	}
	if runFlags.discardCreds {
		cfg.Broker.DiscardCreds = true
	}
	if runFlags.regenCreds {
		cfg.Broker.RegenCreds = true
	}
	return config.Validate(cfg)
}

func runGateway(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cfg); err != nil {
		return cli.NewConfigError("flags", err.Error())
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		// The run context is cancelled by now.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	proxyURL, err := resolveProxy(ctx, cfg, collector)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	client, err := newTransport("gateway", cfg, proxyURL, collector)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	holder, err := loadAllowlist(cfg.Gateway.AllowlistFile)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	gw := gateway.New(gateway.Config{
		ClientID:          cfg.Upstream.ClientID,
		GQLURL:            cfg.Upstream.GQLURL,
		UsherURL:          cfg.Upstream.UsherURL,
		UserAgentOverride: cfg.Upstream.UserAgent,
		DefaultUserAgent:  config.DefaultUserAgent,
		RedactIP:          cfg.Gateway.RedactIP,
		IPPlaceholder:     cfg.Gateway.IPPlaceholder,
	}, client, holder, collector)

	status := health.NewStatus()
	proberOpts := []health.Option{health.WithRecorder(collector)}

	if cfg.Health.History.Enabled {
		store, err := health.OpenHistory(health.HistoryConfig{
			Driver:     cfg.Health.History.Driver,
			Path:       cfg.Health.History.Path,
			MaxRecords: cfg.Health.History.MaxRecords,
		})
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer store.Close()
		proberOpts = append(proberOpts, health.WithHistory(store))
	}

	// Each probe gets its own client so it never reuses pooled connections.
	newProbeClient := func() (gateway.Doer, error) {
		c, err := newTransport("probe", cfg, proxyURL, collector)
		return c, err
	}

	prober := health.NewProber(health.Config{
		Timeout: cfg.Health.ProbeTimeout,
		Discovery: health.DiscoveryConfig{
			Language:      cfg.Health.Discovery.Language,
			First:         cfg.Health.Discovery.First,
			ExcludePrefix: cfg.Health.Discovery.ExcludePrefix,
		},
	}, gw, newProbeClient, status, proberOpts...)

	secret, err := secrets.DefaultResolver().Resolve(ctx, cfg.Health.Secret)
	if err != nil {
		return cli.NewConfigError("health.secret", err.Error())
	}

	srv := server.NewServer(cfg, server.Dependencies{
		Gateway:        gw,
		Status:         status,
		Prober:         prober,
		Metrics:        collector,
		TruestatSecret: secret,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	if cfg.Gateway.WatchAllowlist && cfg.Gateway.AllowlistFile != "" {
		fw, err := watch.New(watch.Config{Path: cfg.Gateway.AllowlistFile})
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer fw.Close()

		g.Go(func() error {
			return fw.Watch(gctx, func() error {
				if err := holder.Reload(cfg.Gateway.AllowlistFile); err != nil {
					return err
				}
				slog.Info("allow-list reloaded", "version", holder.Get().Version(), "keys", holder.Get().Len())
				return nil
			})
		})
	}

	if cfg.Health.ProbeSchedule != "" {
		scheduler := health.NewScheduler(prober, cfg.Health.ProbeSchedule)
		if err := scheduler.Start(gctx); err != nil {
			return cli.NewConfigError("health.probe_schedule", err.Error())
		}
		defer scheduler.Stop()
	}

	printBanner(cmd, cfg)

	if err := g.Wait(); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "✓ Gateway stopped")
	return nil
}

// loadAllowlist returns a holder serving path, or the built-in list when
// path is empty.
func loadAllowlist(path string) (*allowlist.Holder, error) {
	if path == "" {
		return allowlist.NewHolder(allowlist.Default()), nil
	}

	l, err := allowlist.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load allow-list: %w", err)
	}
	return allowlist.NewHolder(l), nil
}

func printBanner(cmd *cobra.Command, cfg *config.Config) {
	out := cmd.OutOrStdout()
	scheme := "http"
	if cfg.Security.TLS.Enabled {
		scheme = "https"
	}
	base := fmt.Sprintf("%s://%s", scheme, cfg.Server.ListenAddress)

	fmt.Fprintf(out, "Luminous v%s\n", Version)
	fmt.Fprintf(out, "✓ Listening on %s\n", base)
	fmt.Fprintf(out, "✓ Live manifests: %s/live/{channel}\n", base)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: %s%s\n", base, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
