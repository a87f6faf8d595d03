package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/backup"
	"mercator-hq/wardgate/pkg/cli"
)

var backupFlags struct {
	user     string
	dir      string
	schedule string
	runNow   bool
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the hospital database",
	Long: `Write consistent hot backups of the hospital database.

Backups are written as hospital_backup_YYYY-MM-DD_HH-MM-SS.db in the
backup directory while the database stays online. Only the etl_service
role may back up.

Subcommands:
  run       - Back up once as --user
  schedule  - Back up on a cron schedule as the configured service account`,
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one backup",
	Long: `Authenticate --user and write one backup.

Examples:
  wardgate backup run --user etl_service

  # Non-interactive
  echo "$ETL_PASSWORD" | wardgate backup run --user etl_service --dir /var/backups/wardgate`,
	RunE: runBackup,
}

var backupScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run scheduled backups until stopped",
	Long: `Run backups on the configured cron schedule (backup.schedule) until
SIGINT or SIGTERM. Each run resolves backup.service_account again, so
revoking its etl_service role stops further backups.

Examples:
  # Nightly at 03:00 (default)
  wardgate backup schedule

  # Every six hours, with one backup at startup
  wardgate backup schedule --schedule "0 */6 * * *" --now`,
	RunE: runBackupSchedule,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	backupCmd.AddCommand(backupRunCmd, backupScheduleCmd)

	backupCmd.PersistentFlags().StringVar(&backupFlags.dir, "dir", "", "override the backup directory")

	backupRunCmd.Flags().StringVarP(&backupFlags.user, "user", "u", "", "etl_service account to authenticate as")

	backupScheduleCmd.Flags().StringVar(&backupFlags.schedule, "schedule", "", "override the cron schedule")
	backupScheduleCmd.Flags().BoolVar(&backupFlags.runNow, "now", false, "also back up once at startup")
}

func (a *app) backupService() *backup.Service {
	bc := backup.Config{
		Dir:            a.cfg.Backup.Dir,
		Schedule:       a.cfg.Backup.Schedule,
		ServiceAccount: a.cfg.Backup.ServiceAccount,
	}
	if backupFlags.dir != "" {
		bc.Dir = backupFlags.dir
	}
	if backupFlags.schedule != "" {
		bc.Schedule = backupFlags.schedule
	}
	return backup.NewService(a.store, a.recorder, bc).WithMetrics(a.metrics)
}

func runBackup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.login(ctx, backupFlags.user)
	if err != nil {
		return cli.NewCommandError("backup run", err)
	}

	dest, err := a.backupService().Run(ctx, actor)
	if err != nil {
		if errors.Is(err, backup.ErrUnauthorized) {
			err = denied(err)
		}
		return cli.NewCommandError("backup run", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Backup written: %s\n", dest)
	return nil
}

func runBackupSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	scheduler := backup.NewScheduler(a.backupService(), a.store)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewConfigError("backup.schedule", err.Error())
	}
	defer scheduler.Stop()

	if !scheduler.IsRunning() {
		return cli.NewConfigError("backup.schedule", "no schedule configured")
	}

	a.serveTelemetry(ctx)

	if backupFlags.runNow {
		scheduler.RunOnce(ctx)
	}
	if next := scheduler.NextRun(); next != nil {
		slog.Info("next backup scheduled", "at", *next)
	}

	<-ctx.Done()
	slog.Info("backup scheduler shutting down")
	return nil
}
