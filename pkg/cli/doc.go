/*
Package cli provides command-line helpers used by the luminous command.

Output Formatting:

Listing commands render a Table as aligned text, JSON or CSV:

	table := &cli.Table{Headers: []string{"CODE", "NAME"}}
	table.Append("de", "Germany")
	if err := cli.NewFormatter(cli.FormatText).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

HintError attaches an operator-facing remedy to a fatal error; the command
entry point prints it after the error message.
*/
package cli
