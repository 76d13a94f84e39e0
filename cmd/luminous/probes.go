package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/luminous/pkg/cli"
	"mercator-hq/luminous/pkg/health"
)

var probesFlags struct {
	limit int
}

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "Show recent deep status probe results",
	Long: `Show recent deep status probe results from the probe history database,
newest first. Requires health.history.enabled.`,
	RunE: listProbes,
}

func init() {
	rootCmd.AddCommand(probesCmd)
	probesCmd.Flags().IntVarP(&probesFlags.limit, "limit", "n", 20, "maximum number of results")
	probesCmd.Flags().StringP("output", "o", "text", "output format (text, json, csv)")
}

func listProbes(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.Health.History.Enabled {
		return cli.NewConfigError("health.history.enabled", "probe history is disabled")
	}

	store, err := health.OpenHistory(health.HistoryConfig{
		Driver: cfg.Health.History.Driver,
		Path:   cfg.Health.History.Path,
	})
	if err != nil {
		return cli.NewCommandError("probes", err)
	}
	defer store.Close()

	results, err := store.List(cmd.Context(), probesFlags.limit)
	if err != nil {
		return cli.NewCommandError("probes", fmt.Errorf("failed to list probes: %w", err))
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), probesTable(results))
}

func probesTable(results []health.Result) *cli.Table {
	table := &cli.Table{Headers: []string{"TIME", "STREAM", "OK", "DURATION", "ERROR"}}
	for _, r := range results {
		table.Append(
			r.Time.UTC().Format(time.RFC3339),
			r.Stream,
			strconv.FormatBool(r.OK),
			r.Duration.Round(time.Millisecond).String(),
			r.Error,
		)
	}
	return table
}
