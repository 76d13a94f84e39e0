package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"mercator-hq/luminous/pkg/broker"
	"mercator-hq/luminous/pkg/cli"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List tunnel regions offered by the broker",
	Long: `List the region codes the tunnel broker currently offers, with their
English names. Any listed code can be passed to 'luminous run --region'.`,
	RunE: listCountries,
}

func init() {
	rootCmd.AddCommand(countriesCmd)
	countriesCmd.Flags().StringP("output", "o", "text", "output format (text, json, csv)")
}

func listCountries(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client, err := newBrokerClient(cfg, nil)
	if err != nil {
		return err
	}

	codes, err := client.ListCountries(cmd.Context())
	if err != nil {
		return cli.NewCommandError("countries", fmt.Errorf("failed to list countries: %w", err))
	}

	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), countriesTable(codes))
}

// countriesTable renders region codes sorted by code.
func countriesTable(codes []string) *cli.Table {
	sorted := append([]string(nil), codes...)
	sort.Strings(sorted)

	table := &cli.Table{Headers: []string{"CODE", "NAME"}}
	for _, code := range sorted {
		table.Append(code, broker.CountryName(code))
	}
	return table
}
