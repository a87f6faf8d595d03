package main

import (
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the interactive records console",
	Long: `Start the interactive records console on stdin/stdout.

Users log in with their username and password. Unknown users are offered
patient registration. Staff and patients then enter patient ids and see
the fields their role may read; admin_db gets the user administration
menu. Type 'q' at the username prompt to exit.

The console must not run in the same process as 'wardgate world'.

Examples:
  # Console with defaults (hospital_mc.db in the working directory)
  wardgate console

  # Console against a configured database
  wardgate console --config /etc/wardgate/wardgate.yaml`,
	RunE: runConsole,
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	adm := admin.NewService(a.store, a.recorder, a.cfg.Security.BcryptCost)
	c := console.New(os.Stdin, cmd.OutOrStdout(), a.authenticator(), a.engine(), adm, a.registrar()).
		WithPasswordReader(console.TerminalPasswordReader(os.Stdin, cmd.OutOrStdout()))

	if err := c.Run(ctx); err != nil {
		return cli.NewCommandError("console", err)
	}
	return nil
}
