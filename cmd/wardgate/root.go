package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "wardgate",
	Short: "Wardgate - hospital records access gateway",
	Long: `Wardgate mediates every read of the hospital records database.

It provides:
  - Role-based field disclosure for clinical records
  - An append-only audit trail of decisions, logins and registrations
  - Patient self-registration from the console or in-game chat
  - Ward door enforcement in a Minecraft-Pi world
  - Audit reporting, export and hot backups

Configuration is read from --config (YAML) and WARDGATE_* environment
variables. Without --config the built-in defaults are used.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the status of its error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
}
