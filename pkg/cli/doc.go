/*
Package cli provides helpers shared by the policymodels commands.

Output Formatting:

Command results are written as text, JSON or YAML:

	format, err := cli.ParseFormat(flags.format)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), result)

Results with a dedicated text rendering implement Texter.

Errors:

ConfigError marks flag and configuration problems; ExitCode maps them to
exit status 2 and every other error to 1.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
