package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/store/sqlite"
)

var schemaFlags struct {
	format   string
	doctors  int
	nurses   int
	patients int
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect and provision the hospital database",
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the database schema",
	Long: `Open the database, verify every table and column, and print the row
count of each table. A schema mismatch exits non-zero.`,
	RunE: runSchemaCheck,
}

var schemaSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Provision service accounts and demo records",
	Long: `Create the admin and etl_service accounts and fill the database with demo
doctors, nurses and patients. Staff log in as Dr_<First>_<n> and
Nurse_<First>_<n>. The first patient can log in as patient1.

Every seeded account gets the password read from the prompt (or the first
line of stdin). Existing accounts are left untouched, so seeding twice only
adds records.

Examples:
  wardgate schema seed
  echo password123 | wardgate schema seed --doctors 5 --nurses 5 --patients 10`,
	RunE: runSchemaSeed,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	schemaCmd.AddCommand(schemaCheckCmd, schemaSeedCmd)

	schemaCheckCmd.Flags().StringVar(&schemaFlags.format, "format", "text", "output format: text, json")

	schemaSeedCmd.Flags().IntVar(&schemaFlags.doctors, "doctors", 20, "number of doctors")
	schemaSeedCmd.Flags().IntVar(&schemaFlags.nurses, "nurses", 40, "number of nurses")
	schemaSeedCmd.Flags().IntVar(&schemaFlags.patients, "patients", 50, "number of patients")
}

// tableCount is one row of the schema check output.
type tableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// schemaReport is the result of schema check.
type schemaReport struct {
	Driver  string       `json:"driver"`
	Path    string       `json:"path"`
	Version int          `json:"schema_version"`
	Tables  []tableCount `json:"tables"`
}

func (r schemaReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Schema version %d verified (%s, driver %s)\n\n", r.Version, r.Path, r.Driver)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, t := range r.Tables {
		fmt.Fprintf(tw, "%s\t%d\n", t.Table, t.Rows)
	}
	return tw.Flush()
}

func runSchemaCheck(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(schemaFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.VerifySchema(ctx); err != nil {
		return cli.NewCommandError("schema check", err)
	}

	r := schemaReport{
		Driver:  a.store.Driver(),
		Path:    a.cfg.Database.Path,
		Version: sqlite.SchemaVersion,
	}
	for _, table := range sqlite.Tables() {
		n, err := a.store.CountRows(ctx, table)
		if err != nil {
			return cli.NewCommandError("schema check", err)
		}
		r.Tables = append(r.Tables, tableCount{Table: table, Rows: n})
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), r)
}

var (
	seedFirstNames  = []string{"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda", "William", "Elizabeth", "David", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Charles", "Karen"}
	seedLastNames   = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin"}
	seedSpecialties = []string{"Cardiology", "Neurology", "Pediatrics", "Oncology", "Surgery", "General Practice"}
	seedDepartments = []string{"ER", "ICU", "Pediatrics", "General Ward", "Oncology Ward"}
	seedTreatments  = []string{"Blood pressure monitoring", "Physiotherapy", "Antibiotic course", "Post-operative care", "Insulin therapy", "MRI follow-up"}
)

// seedName returns a deterministic first and last name for index i.
func seedName(i int) (string, string) {
	return seedFirstNames[i%len(seedFirstNames)], seedLastNames[(i*7+3)%len(seedLastNames)]
}

func runSchemaSeed(cmd *cobra.Command, args []string) error {
	if schemaFlags.doctors < 0 || schemaFlags.nurses < 0 || schemaFlags.patients < 0 {
		return cli.NewConfigError("seed", "counts must not be negative")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := cli.ReadPassword(os.Stdin, os.Stderr, "Password for seeded accounts: ")
	if err != nil {
		return cli.NewCommandError("schema seed", err)
	}
	if err := onboarding.ValidateField(onboarding.FieldPassword, password); err != nil {
		return cli.NewConfigError("password", err.Error())
	}
	hash, err := identity.HashPassword(password, a.cfg.Security.BcryptCost)
	if err != nil {
		return cli.NewCommandError("schema seed", err)
	}

	s := &seeder{store: a.store, hash: hash, out: cmd.OutOrStdout(), logger: slog.Default().With("component", "schema.seed")}
	if err := s.run(ctx); err != nil {
		return cli.NewCommandError("schema seed", err)
	}
	return nil
}

type seeder struct {
	store  *sqlite.Store
	hash   string
	out    io.Writer
	logger *slog.Logger
}

func (s *seeder) run(ctx context.Context) error {
	fmt.Fprintln(s.out, "--- STARTING BULK POPULATION ---")

	if err := s.account(ctx, "admin", "admin@hospital.com", "Database Administrator", identity.RoleAdminDB); err != nil {
		return err
	}
	if err := s.account(ctx, "etl_service", "etl@hospital.com", "ETL Service", identity.RoleETLService); err != nil {
		return err
	}

	fmt.Fprintf(s.out, "Generating %d Doctors...\n", schemaFlags.doctors)
	for i := 1; i <= schemaFlags.doctors; i++ {
		first, last := seedName(i)
		email := fmt.Sprintf("doctor%d@hospital.com", i)
		if err := s.account(ctx, fmt.Sprintf("Dr_%s_%d", first, i), email, first+" "+last, identity.RoleDoctor); err != nil {
			return err
		}
		if _, err := s.store.InsertDoctor(ctx, first, last, seedSpecialties[i%len(seedSpecialties)], email); err != nil {
			s.logger.Debug("doctor not inserted", "email", email, "error", err)
		}
	}

	fmt.Fprintf(s.out, "Generating %d Nurses...\n", schemaFlags.nurses)
	for i := 1; i <= schemaFlags.nurses; i++ {
		first, last := seedName(i + 100)
		email := fmt.Sprintf("nurse%d@hospital.com", i)
		if err := s.account(ctx, fmt.Sprintf("Nurse_%s_%d", first, i), email, first+" "+last, identity.RoleNurse); err != nil {
			return err
		}
		if _, err := s.store.InsertNurse(ctx, first, last, seedDepartments[i%len(seedDepartments)], email); err != nil {
			s.logger.Debug("nurse not inserted", "email", email, "error", err)
		}
	}

	fmt.Fprintf(s.out, "Generating %d Patients...\n", schemaFlags.patients)
	for i := 1; i <= schemaFlags.patients; i++ {
		first, last := seedName(i + 200)
		email := fmt.Sprintf("patient%d@mail.com", i)
		id, err := s.store.InsertPatient(ctx, first, last, email,
			fmt.Sprintf("19%02d-%02d-%02d", 50+i%50, 1+i%12, 1+i%28),
			fmt.Sprintf("%03d-%02d-%04d", 100+i%900, 10+i%90, 1000+i),
			fmt.Sprintf("555-%04d", 1000+i),
			fmt.Sprintf("%d Main Street", 10+i),
		)
		if err != nil {
			s.logger.Debug("patient not inserted", "email", email, "error", err)
			continue
		}
		for j := 0; j < 1+i%3; j++ {
			status := "active"
			if j > 0 {
				status = "completed"
			}
			if err := s.store.InsertTreatment(ctx, id, seedTreatments[(i+j)%len(seedTreatments)], status); err != nil {
				return err
			}
		}
		if i == 1 {
			if err := s.account(ctx, "patient1", email, first+" "+last, identity.RolePatient); err != nil {
				return err
			}
		}
	}

	fmt.Fprintln(s.out, "--- POPULATION COMPLETE ---")
	return nil
}

// account creates a user unless the username or email is taken.
func (s *seeder) account(ctx context.Context, username, email, fullName string, role identity.Role) error {
	_, err := s.store.CreateUser(ctx, admin.UserRecord{
		Username:     username,
		PasswordHash: s.hash,
		Email:        email,
		FullName:     fullName,
		Role:         role,
	})
	var conflict *onboarding.ConflictError
	if errors.As(err, &conflict) {
		s.logger.Debug("account exists", "username", username, "field", conflict.Field)
		return nil
	}
	return err
}
