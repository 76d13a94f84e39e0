package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/luminous/pkg/broker"
	"mercator-hq/luminous/pkg/cli"
	"mercator-hq/luminous/pkg/identity"
)

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Inspect the persisted session identity",
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored identity and derived proxy login",
	Long: `Print the stored session identity and the proxy login derived from it.
The broker-issued password is never stored and is not shown.`,
	RunE: showIdentity,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityShowCmd)
}

func showIdentity(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := identity.NewStore(cfg.Identity.Path)
	id, err := store.Load()
	if err != nil {
		return cli.NewCommandError("identity show", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Path:  %s\n", store.Path())
	if id == nil {
		fmt.Fprintln(out, "No identity stored; one is created on the next 'luminous run'.")
		return nil
	}

	fmt.Fprintf(out, "UUID:  %s\n", id.String())
	fmt.Fprintf(out, "Login: %s\n", broker.LoginFor(*id))
	return nil
}
