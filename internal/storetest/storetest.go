// Package storetest opens throwaway SQLite stores seeded with a small
// hospital for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/store/sqlite"
)

// Password is the password of every seeded user except Legacy.
const Password = "password123"

// LegacyPassword is the password of the Legacy user, stored as an unsalted
// SHA-256 digest.
const LegacyPassword = "oldpass"

// Fixture holds the ids of the seeded rows.
type Fixture struct {
	AlicePatientID int64 // ssn 123-45-6789, two treatments
	BobPatientID   int64 // no ssn, no phone, no treatments

	Users map[string]int64 // username -> user_id
}

// Open creates an empty store in a temporary directory using the pure-Go
// driver. The store is closed when the test ends.
func Open(t testing.TB) *sqlite.Store {
	t.Helper()

	cfg := sqlite.DefaultConfig()
	cfg.Path = filepath.Join(t.TempDir(), "hospital.db")
	cfg.BusyTimeout = 5 * time.Second

	store, err := sqlite.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("sqlite.Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Seeded opens a store and loads the standard fixture.
func Seeded(t testing.TB) (*sqlite.Store, Fixture) {
	t.Helper()
	store := Open(t)
	return store, Seed(t, store)
}

// Seed loads the standard fixture into store:
//
//	dr_house   doctor      house@hospital.com (has a Doctors row)
//	dr_ghost   doctor      ghost@hospital.com (no Doctors row)
//	nurse_joy  nurse
//	pharma     pharmacist
//	auditor    auditor
//	admin      admin_db
//	etl_bot    etl_service
//	alice      patient     alice@example.com  -> AlicePatientID
//	bob        patient     bob@example.com    -> BobPatientID
//	legacy     nurse       SHA-256 password hash
func Seed(t testing.TB, store *sqlite.Store) Fixture {
	t.Helper()
	ctx := context.Background()

	hash, err := identity.HashPassword(Password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}

	fx := Fixture{Users: make(map[string]int64)}

	fx.AlicePatientID, err = store.InsertPatient(ctx, "Alice", "Smith", "alice@example.com", "1990-01-01",
		"123-45-6789", "555-0100", "1 Main St")
	if err != nil {
		t.Fatalf("InsertPatient(alice) failed: %v", err)
	}
	fx.BobPatientID, err = store.InsertPatient(ctx, "Bob", "Jones", "bob@example.com", "1985-06-15", "", "", "")
	if err != nil {
		t.Fatalf("InsertPatient(bob) failed: %v", err)
	}
	for _, tx := range []struct{ desc, status string }{
		{"Chemotherapy", "active"},
		{"Radiation", "completed"},
	} {
		if err := store.InsertTreatment(ctx, fx.AlicePatientID, tx.desc, tx.status); err != nil {
			t.Fatalf("InsertTreatment() failed: %v", err)
		}
	}
	if _, err := store.InsertDoctor(ctx, "Gregory", "House", "Diagnostics", "house@hospital.com"); err != nil {
		t.Fatalf("InsertDoctor() failed: %v", err)
	}
	if _, err := store.InsertNurse(ctx, "Joy", "Pokemon", "ER", "joy@hospital.com"); err != nil {
		t.Fatalf("InsertNurse() failed: %v", err)
	}

	users := []struct {
		username, email, fullName string
		role                      identity.Role
		hash                      string
	}{
		{"dr_house", "house@hospital.com", "Gregory House", identity.RoleDoctor, hash},
		{"dr_ghost", "ghost@hospital.com", "Casper Ghost", identity.RoleDoctor, hash},
		{"nurse_joy", "joy@hospital.com", "Joy Pokemon", identity.RoleNurse, hash},
		{"pharma", "pharma@hospital.com", "Phil Pharma", identity.RolePharmacist, hash},
		{"auditor", "audit@hospital.com", "Ada Auditor", identity.RoleAuditor, hash},
		{"admin", "admin@hospital.com", "Dee Bee", identity.RoleAdminDB, hash},
		{"etl_bot", "etl@hospital.com", "ETL Service", identity.RoleETLService, hash},
		{"alice", "alice@example.com", "Alice Smith", identity.RolePatient, hash},
		{"bob", "bob@example.com", "Bob Jones", identity.RolePatient, hash},
		{"legacy", "legacy@hospital.com", "Leg Acy", identity.RoleNurse, identity.LegacyHash(LegacyPassword)},
	}
	for _, u := range users {
		id, err := store.CreateUser(ctx, admin.UserRecord{
			Username:     u.username,
			PasswordHash: u.hash,
			Email:        u.email,
			FullName:     u.fullName,
			Role:         u.role,
		})
		if err != nil {
			t.Fatalf("CreateUser(%s) failed: %v", u.username, err)
		}
		fx.Users[u.username] = id
	}
	return fx
}
