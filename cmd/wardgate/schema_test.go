package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"mercator-hq/wardgate/pkg/config"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/store/sqlite"
)

func openTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	cfg := sqlite.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "hospital.db")
	store, err := sqlite.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSeeder(t *testing.T) {
	saved := schemaFlags
	t.Cleanup(func() { schemaFlags = saved })
	schemaFlags.doctors, schemaFlags.nurses, schemaFlags.patients = 3, 2, 4

	ctx := context.Background()
	store := openTestStore(t)
	hash, err := identity.HashPassword("password123", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	s := &seeder{store: store, hash: hash, out: io.Discard, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for run := 0; run < 2; run++ {
		if err := s.run(ctx); err != nil {
			t.Fatalf("run %d: error = %v", run, err)
		}
	}

	counts := map[string]int64{"Doctors": 3, "Nurses": 2, "Patients": 4, "Users": 2 + 3 + 2 + 1}
	for table, want := range counts {
		got, err := store.CountRows(ctx, table)
		if err != nil {
			t.Fatalf("CountRows(%s) error = %v", table, err)
		}
		if got != want {
			t.Errorf("%s rows = %d, want %d", table, got, want)
		}
	}

	for username, role := range map[string]identity.Role{
		"admin":       identity.RoleAdminDB,
		"etl_service": identity.RoleETLService,
		"patient1":    identity.RolePatient,
	} {
		id, err := store.Resolve(ctx, username)
		if err != nil {
			t.Fatalf("Resolve(%s) error = %v", username, err)
		}
		if id.Role != role {
			t.Errorf("%s role = %q, want %q", username, id.Role, role)
		}
		if !identity.Verify(id, "password123") {
			t.Errorf("%s password does not verify", username)
		}
	}

	first, _ := seedName(1)
	doc, err := store.Resolve(ctx, "Dr_"+first+"_1")
	if err != nil {
		t.Fatalf("Resolve(doctor) error = %v", err)
	}
	if _, err := store.DoctorByEmail(ctx, doc.Email); err != nil {
		t.Errorf("doctor account has no staff record: %v", err)
	}
}

func TestSchemaCheckCommand(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "hospital.db")
	cfg.Telemetry.Logging.Level = "error"
	useConfig(t, cfg)

	saved := schemaFlags
	t.Cleanup(func() { schemaFlags = saved })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"schema", "check", "--format", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("schema check error = %v", err)
	}

	var r schemaReport
	if err := json.Unmarshal(out.Bytes(), &r); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if r.Version != sqlite.SchemaVersion {
		t.Errorf("schema_version = %d, want %d", r.Version, sqlite.SchemaVersion)
	}
	if len(r.Tables) != len(sqlite.Tables()) {
		t.Fatalf("tables = %d, want %d", len(r.Tables), len(sqlite.Tables()))
	}
	for _, tc := range r.Tables {
		if tc.Table == "Roles" && tc.Rows != int64(len(identity.Roles)) {
			t.Errorf("Roles rows = %d, want %d", tc.Rows, len(identity.Roles))
		}
	}
}

func TestSchemaReport_WriteText(t *testing.T) {
	var buf bytes.Buffer
	r := schemaReport{Driver: "sqlite", Path: "hospital_mc.db", Version: 1, Tables: []tableCount{{"Users", 3}}}
	if err := r.WriteText(&buf); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Schema version 1 verified")) || !bytes.Contains(buf.Bytes(), []byte("Users")) {
		t.Errorf("output = %q", buf.String())
	}
}
