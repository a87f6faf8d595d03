package console_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"mercator-hq/wardgate/internal/storetest"
	"mercator-hq/wardgate/pkg/access"
	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/audit/recorder"
	"mercator-hq/wardgate/pkg/audit/storage"
	"mercator-hq/wardgate/pkg/console"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/store/sqlite"
)

type session struct {
	store *sqlite.Store
	fx    storetest.Fixture
	logs  *storage.SQLiteStorage
	out   string
}

// runConsole feeds lines to a console over a seeded store and returns its
// output.
func runConsole(t *testing.T, lines ...string) *session {
	t.Helper()
	store, fx := storetest.Seeded(t)
	return runOn(t, store, fx, lines...)
}

func runOn(t *testing.T, store *sqlite.Store, fx storetest.Fixture, lines ...string) *session {
	t.Helper()
	logs := storage.NewSQLiteStorage(store.DB())
	cfg := recorder.DefaultConfig()
	cfg.Async = false
	rec := recorder.NewRecorder(logs, cfg)
	t.Cleanup(func() { _ = rec.Close() })

	var out strings.Builder
	c := console.New(
		strings.NewReader(strings.Join(lines, "\n")+"\n"),
		&out,
		identity.NewAuthenticator(store, rec, bcrypt.MinCost),
		access.NewEngine(store, rec),
		admin.NewService(store, rec, bcrypt.MinCost),
		onboarding.NewRegistrar(store, rec, onboarding.RegistrarConfig{BcryptCost: bcrypt.MinCost}),
	)
	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	return &session{store: store, fx: fx, logs: logs, out: out.String()}
}

func (s *session) entries(t *testing.T, action audit.Action) []*audit.Entry {
	t.Helper()
	entries, err := s.logs.Query(context.Background(), &audit.Query{Actions: []audit.Action{action}})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	return entries
}

func (s *session) mustContain(t *testing.T, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(s.out, want) {
			t.Errorf("output missing %q\n%s", want, s.out)
		}
	}
}

func TestConsole_DoctorReadsRecord(t *testing.T) {
	store, fx := storetest.Seeded(t)
	s := runOn(t, store, fx, "dr_house", storetest.Password, fmt.Sprint(fx.AlicePatientID), "logout", "q")

	s.mustContain(t,
		"[+] Greetings Gregory House! Your role is: doctor",
		"   [*] Verifying Access Policies...",
		"   >> RESPONSE: DR VIEW: Alice Smith | SSN: 123-45-6789 | Tx: ",
	)
	if n := len(s.entries(t, audit.ActionReadSensitive)); n != 1 {
		t.Errorf("READ_SENSITIVE entries = %d, want 1", n)
	}
}

func TestConsole_PatientMismatch(t *testing.T) {
	store, fx := storetest.Seeded(t)
	s := runOn(t, store, fx, "alice", storetest.Password, fmt.Sprint(fx.BobPatientID), "logout", "q")

	s.mustContain(t, "ACCESS DENIED: You can only view your own medical records.")
	denied := s.entries(t, audit.ActionAccessDenied)
	if len(denied) != 1 {
		t.Fatalf("ACCESS_DENIED entries = %d, want 1", len(denied))
	}
	if want := fmt.Sprintf("ID %d", fx.BobPatientID); !strings.Contains(denied[0].Detail, want) {
		t.Errorf("Detail = %q, want it to contain %q", denied[0].Detail, want)
	}
}

func TestConsole_NonNumericIDReprompts(t *testing.T) {
	s := runConsole(t, "nurse_joy", storetest.Password, "abc", "-1", "logout", "q")
	if got := strings.Count(s.out, "[!] Please enter a valid Patient ID number."); got != 2 {
		t.Errorf("re-prompts = %d, want 2", got)
	}
	if n := len(s.entries(t, audit.ActionReadPartial)); n != 0 {
		t.Errorf("READ_PARTIAL entries = %d, want 0", n)
	}
}

func TestConsole_WrongPassword(t *testing.T) {
	s := runConsole(t, "dr_house", "nope", "q")

	s.mustContain(t, "[!] AUTH FAILED: Invalid Password.")
	fails := s.entries(t, audit.ActionLoginFail)
	if len(fails) != 1 || fails[0].ActorName != "dr_house" {
		t.Errorf("LOGIN_FAIL entries = %+v", fails)
	}
}

func TestConsole_UnknownUserDeclinesRegistration(t *testing.T) {
	ctx := context.Background()
	store, fx := storetest.Seeded(t)
	before, _ := store.CountRows(ctx, "Users")

	s := runOn(t, store, fx, "newbie", "no", "q")

	s.mustContain(t, "[!] User 'newbie' not found in system.", "[*] Registration cancelled.")
	if after, _ := store.CountRows(ctx, "Users"); after != before {
		t.Errorf("Users rows = %d, want %d", after, before)
	}
	if _, err := store.Resolve(ctx, "newbie"); err == nil {
		t.Error("declined registration created an identity")
	}
}

func TestConsole_UnknownUserRegisters(t *testing.T) {
	ctx := context.Background()
	store, fx := storetest.Seeded(t)

	s := runOn(t, store, fx,
		"newbie", "yes",
		"Nina", "Newman", "nina@example.com", "secret", "F", "987-65-4321", "555 000 111", "9 Elm St",
		"newbie", "secret", "logout",
		"q",
	)

	s.mustContain(t,
		"PATIENT REGISTRATION FORM",
		"[+] Registration successful! Please login with your new credentials.",
		"[+] Greetings Nina Newman! Your role is: patient",
	)
	p, err := store.PatientByEmail(ctx, "nina@example.com")
	if err != nil {
		t.Fatalf("PatientByEmail() failed: %v", err)
	}
	if p.SSN != "987-65-4321" || p.Address != "9 Elm St" {
		t.Errorf("patient = %+v", p)
	}
	if n := len(s.entries(t, audit.ActionRegister)); n != 1 {
		t.Errorf("REGISTER entries = %d, want 1", n)
	}
}

func TestConsole_RegistrationFormCancelled(t *testing.T) {
	ctx := context.Background()
	store, fx := storetest.Seeded(t)
	before, _ := store.CountRows(ctx, "Patients")

	s := runOn(t, store, fx, "newbie", "y", "Nina", "Newman", "not-an-email", "q")

	s.mustContain(t, "[!] Registration cancelled: Valid email is required.", "[!] Registration failed. Please try again.")
	if after, _ := store.CountRows(ctx, "Patients"); after != before {
		t.Errorf("Patients rows = %d, want %d", after, before)
	}
}

func TestConsole_AdminMenu(t *testing.T) {
	ctx := context.Background()
	store, fx := storetest.Seeded(t)

	s := runOn(t, store, fx,
		"admin", storetest.Password,
		"1", "temp", "pw", "temp@hospital.com", "Temp User", "lab_tech",
		"1", "dr_house", "pw", "x@hospital.com", "Dup", "doctor",
		"1", "other", "pw", "o@hospital.com", "Other", "janitor",
		"2", "temp",
		"2", "temp",
		"3",
		"q",
	)

	s.mustContain(t,
		"User temp created successfully.",
		"Username already exists.",
		"Invalid role.",
		"User temp deleted.",
		"User not found.",
	)
	if _, err := store.Resolve(ctx, "temp"); err == nil {
		t.Error("deleted user still resolves")
	}
	if _, err := store.Resolve(ctx, "other"); err == nil {
		t.Error("user with invalid role was created")
	}
	if n := len(s.entries(t, audit.ActionAdminCreate)); n != 1 {
		t.Errorf("ADMIN_CREATE entries = %d, want 1", n)
	}
	if n := len(s.entries(t, audit.ActionAdminDelete)); n != 1 {
		t.Errorf("ADMIN_DELETE entries = %d, want 1", n)
	}
}

func TestConsole_EndOfInput(t *testing.T) {
	s := runConsole(t, "dr_house", storetest.Password)
	s.mustContain(t, "Greetings Gregory House")
}

func TestConsole_PasswordReader(t *testing.T) {
	store, _ := storetest.Seeded(t)
	logs := storage.NewSQLiteStorage(store.DB())
	rec := recorder.NewRecorder(logs, &recorder.Config{Enabled: true})
	t.Cleanup(func() { _ = rec.Close() })

	var prompts []string
	var out strings.Builder
	c := console.New(
		strings.NewReader("nurse_joy\nlogout\nq\n"),
		&out,
		identity.NewAuthenticator(store, rec, bcrypt.MinCost),
		access.NewEngine(store, rec),
		admin.NewService(store, rec, bcrypt.MinCost),
		onboarding.NewRegistrar(store, rec, onboarding.RegistrarConfig{BcryptCost: bcrypt.MinCost}),
	).WithPasswordReader(func(prompt string) (string, error) {
		prompts = append(prompts, prompt)
		return storetest.Password, nil
	})

	if err := c.Run(context.Background()); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(prompts) != 1 || prompts[0] != "Enter Password for nurse_joy: " {
		t.Errorf("prompts = %q", prompts)
	}
	if !strings.Contains(out.String(), "Your role is: nurse") {
		t.Errorf("output missing nurse greeting:\n%s", out.String())
	}
}
