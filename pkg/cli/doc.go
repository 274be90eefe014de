/*
Package cli holds helpers shared by the ctoken commands.

Output Formatting:

Commands accept --format text|json|csv. Results implement TextWriter for a
custom text rendering and Tabular to support CSV:

	format, err := cli.ParseFormat(flagFormat)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
*/
package cli
