package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/luminous/pkg/cli"
	"mercator-hq/luminous/pkg/config"
	"mercator-hq/luminous/pkg/telemetry/logging"
)

const defaultConfigFile = "luminous.yaml"

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "luminous",
	Short: "Luminous - regional playback gateway",
	Long: `Luminous is a playback gateway that serves stream manifests fetched
through a negotiated regional tunnel.

It acts as an HTTP endpoint for video players, providing:
  - Tunnel negotiation with a persisted session identity
  - Playback token and manifest retrieval with retry and backoff
  - Inbound parameter allow-listing and identifier spoofing
  - Load shedding and a hard per-request timeout
  - An end-to-end deep status probe`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)

		var hinted *cli.HintError
		if errors.As(err, &hinted) {
			fmt.Fprintln(os.Stderr, "Hint:", hinted.Hint)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", defaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

// loadConfig reads the configuration file with environment overrides and
// installs the logger. The default file may be absent; an explicitly named
// one must exist.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	allowMissing := !cmd.Flags().Changed("config")

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile, allowMissing)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err.Error())
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if debug {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if err := setupLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	_, err := logging.Setup(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    !cfg.Broker.LogSecrets,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	return nil
}

// outputFormat reads the --output flag of cmd.
func outputFormat(cmd *cobra.Command) (cli.OutputFormat, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return cli.FormatText, nil
	}
	return cli.ParseOutputFormat(value)
}
