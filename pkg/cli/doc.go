/*
Package cli provides helpers shared by the wardgate commands.

Errors:

Commands return *ConfigError for configuration problems and *CommandError
for runtime failures. ExitCode maps either to the process status, and
ErrDenied marks commands refused for the acting user:

	if err := rootCmd.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}

Output Formatting:

	format, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, result)

Results implementing TextWriter control their own text rendering.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()
*/
package cli
