package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/onboarding"
)

var userFlags struct {
	admin    string
	email    string
	fullName string
	role     string
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Administer user accounts",
	Long: `Create and delete user accounts.

Both subcommands authenticate --admin, who must hold the admin_db role.
Its password is prompted for first; 'create' then prompts for the new
user's password. Without a terminal both passwords are read as lines from
stdin, admin password first.`,
}

var userCreateCmd = &cobra.Command{
	Use:   "create USERNAME",
	Short: "Create a user",
	Long: `Create a user with the given role.

Roles: doctor, nurse, pharmacist, lab_tech, auditor, admin_db, etl_service, patient

Examples:
  wardgate user create Dr_House --admin admin --role doctor \
    --email house@hospital.com --full-name "Gregory House"`,
	Args: cobra.ExactArgs(1),
	RunE: runUserCreate,
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete USERNAME",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runUserDelete,
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd, userDeleteCmd)

	userCmd.PersistentFlags().StringVar(&userFlags.admin, "admin", "", "admin_db account to authenticate as")

	userCreateCmd.Flags().StringVar(&userFlags.email, "email", "", "email address (required)")
	userCreateCmd.Flags().StringVar(&userFlags.fullName, "full-name", "", "full name")
	userCreateCmd.Flags().StringVar(&userFlags.role, "role", "", "role name (required)")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("role")
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.login(ctx, userFlags.admin)
	if err != nil {
		return cli.NewCommandError("user create", err)
	}

	password, err := cli.ReadPassword(os.Stdin, os.Stderr, fmt.Sprintf("Password for new user %s: ", args[0]))
	if err != nil {
		return cli.NewCommandError("user create", err)
	}

	id, err := admin.NewService(a.store, a.recorder, a.cfg.Security.BcryptCost).CreateUser(ctx, actor, admin.NewUser{
		Username: args[0],
		Password: password,
		Email:    userFlags.email,
		FullName: userFlags.fullName,
		Role:     userFlags.role,
	})
	if err != nil {
		return cli.NewCommandError("user create", adminError(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ User %s created (id %d, role %s)\n", args[0], id, userFlags.role)
	return nil
}

func runUserDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	actor, err := a.login(ctx, userFlags.admin)
	if err != nil {
		return cli.NewCommandError("user delete", err)
	}

	if err := admin.NewService(a.store, a.recorder, a.cfg.Security.BcryptCost).DeleteUser(ctx, actor, args[0]); err != nil {
		return cli.NewCommandError("user delete", adminError(err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ User %s deleted\n", args[0])
	return nil
}

// adminError maps admin failures onto CLI exit codes.
func adminError(err error) error {
	var verr *onboarding.ValidationError
	switch {
	case errors.Is(err, admin.ErrUnauthorized):
		return denied(err)
	case errors.As(err, &verr):
		return cli.NewConfigError(verr.Field, verr.Reason)
	default:
		return err
	}
}
