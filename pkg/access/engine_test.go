package access

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"mercator-hq/wardgate/internal/spantest"
	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/records"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
)

type fakeRecords struct {
	patients   map[int64]*records.Patient
	treatments map[int64][]records.Treatment
	doctors    map[string]bool
	err        error
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		patients: map[int64]*records.Patient{
			1: {ID: 1, FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", SSN: "123-45-6789", Phone: "555-0100"},
			2: {ID: 2, FirstName: "Bob", LastName: "Jones", Email: "bob@example.com"},
		},
		treatments: map[int64][]records.Treatment{
			1: {{PatientID: 1, Description: "Chemotherapy", Status: "active"}, {PatientID: 1, Description: "Radiation", Status: "completed"}},
		},
		doctors: map[string]bool{"house@hospital.com": true},
	}
}

func (f *fakeRecords) Patient(ctx context.Context, id int64) (*records.Patient, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.patients[id]
	if !ok {
		return nil, records.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeRecords) PatientByEmail(ctx context.Context, email string) (*records.Patient, error) {
	for _, p := range f.patients {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, records.ErrNotFound
}

func (f *fakeRecords) Treatments(ctx context.Context, patientID int64) ([]records.Treatment, error) {
	return f.treatments[patientID], nil
}

func (f *fakeRecords) DoctorByEmail(ctx context.Context, email string) (*records.Staff, error) {
	if f.doctors[email] {
		return &records.Staff{Email: email}, nil
	}
	return nil, records.ErrNotFound
}

type captureSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureSink) Record(ctx context.Context, e audit.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

func actor(username, email string, role identity.Role) *identity.Identity {
	return &identity.Identity{ID: 42, Username: username, Email: email, Role: role}
}

func TestDecide_PolicyTable(t *testing.T) {
	tests := []struct {
		name       string
		identity   *identity.Identity
		patientID  int64
		wantKind   Kind
		wantReason Reason
		wantAction audit.Action
		wantDetail string
	}{
		{
			name:       "doctor with staff record",
			identity:   actor("dr_house", "house@hospital.com", identity.RoleDoctor),
			patientID:  1,
			wantKind:   KindFull,
			wantAction: audit.ActionReadSensitive,
			wantDetail: "Viewed full record ID 1",
		},
		{
			name:       "doctor without staff record",
			identity:   actor("dr_ghost", "ghost@hospital.com", identity.RoleDoctor),
			patientID:  1,
			wantKind:   KindError,
			wantReason: ReasonNoStaffRecord,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Doctor role without staff record attempted read of ID 1",
		},
		{
			name:       "nurse",
			identity:   actor("nurse_joy", "joy@hospital.com", identity.RoleNurse),
			patientID:  1,
			wantKind:   KindMasked,
			wantAction: audit.ActionReadPartial,
			wantDetail: "Viewed masked record ID 1",
		},
		{
			name:       "admin",
			identity:   actor("admin", "admin@hospital.com", identity.RoleAdminDB),
			patientID:  2,
			wantKind:   KindExistence,
			wantAction: audit.ActionAccessAttempt,
			wantDetail: "Admin accessed patient view",
		},
		{
			name:       "etl service",
			identity:   actor("etl_bot", "etl@hospital.com", identity.RoleETLService),
			patientID:  1,
			wantKind:   KindDenied,
			wantReason: ReasonCompliance,
		},
		{
			name:       "patient own record",
			identity:   actor("alice", "alice@example.com", identity.RolePatient),
			patientID:  1,
			wantKind:   KindOwn,
			wantAction: audit.ActionReadOwn,
			wantDetail: "Patient viewed own record ID 1",
		},
		{
			name:       "patient other record",
			identity:   actor("alice", "alice@example.com", identity.RolePatient),
			patientID:  2,
			wantKind:   KindDenied,
			wantReason: ReasonNotOwner,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Patient attempted to view other record ID 2",
		},
		{
			name:       "patient without patient row",
			identity:   actor("carol", "carol@example.com", identity.RolePatient),
			patientID:  1,
			wantKind:   KindDenied,
			wantReason: ReasonNotOwner,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Patient attempted to view other record ID 1",
		},
		{
			name:       "pharmacist",
			identity:   actor("pharma", "pharma@hospital.com", identity.RolePharmacist),
			patientID:  1,
			wantKind:   KindDenied,
			wantReason: ReasonInsufficientRole,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Role 'pharmacist' attempted unauthorized read.",
		},
		{
			name:       "role outside enumeration",
			identity:   actor("jan", "jan@hospital.com", identity.Role("janitor")),
			patientID:  1,
			wantKind:   KindDenied,
			wantReason: ReasonInsufficientRole,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Role 'janitor' attempted unauthorized read.",
		},
		{
			name:       "unassigned role",
			identity:   actor("nobody", "", ""),
			patientID:  1,
			wantKind:   KindDenied,
			wantReason: ReasonInsufficientRole,
			wantAction: audit.ActionAccessDenied,
			wantDetail: "Role 'unassigned' attempted unauthorized read.",
		},
		{
			name:       "unknown patient short-circuits",
			identity:   actor("dr_house", "house@hospital.com", identity.RoleDoctor),
			patientID:  99,
			wantKind:   KindNotFound,
			wantAction: audit.ActionReadFail,
			wantDetail: "Invalid ID 99",
		},
		{
			name:       "unknown patient for etl service",
			identity:   actor("etl_bot", "etl@hospital.com", identity.RoleETLService),
			patientID:  99,
			wantKind:   KindNotFound,
			wantAction: audit.ActionReadFail,
			wantDetail: "Invalid ID 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &captureSink{}
			engine := NewEngine(newFakeRecords(), sink)

			view := engine.Decide(context.Background(), tt.identity, tt.patientID)

			if view.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, view.Kind)
			}
			if view.Reason != tt.wantReason {
				t.Errorf("expected reason %q, got %q", tt.wantReason, view.Reason)
			}
			if view.PatientID != tt.patientID {
				t.Errorf("expected patient id %d, got %d", tt.patientID, view.PatientID)
			}

			if tt.wantAction == "" {
				if len(sink.entries) != 0 {
					t.Fatalf("expected no audit entry, got %+v", sink.entries)
				}
				return
			}
			if len(sink.entries) != 1 {
				t.Fatalf("expected exactly 1 audit entry, got %d", len(sink.entries))
			}
			e := sink.entries[0]
			if e.Action != tt.wantAction || e.Detail != tt.wantDetail {
				t.Errorf("expected audit %s %q, got %s %q", tt.wantAction, tt.wantDetail, e.Action, e.Detail)
			}
			if e.Resource != audit.ResourcePatients || e.ActorID != 42 || e.ActorName != tt.identity.Username {
				t.Errorf("unexpected audit attribution: %+v", e)
			}
		})
	}
}

func TestDecide_Fields(t *testing.T) {
	engine := NewEngine(newFakeRecords(), nil)
	ctx := context.Background()

	full := engine.Decide(ctx, actor("dr_house", "house@hospital.com", identity.RoleDoctor), 1)
	if full.SSN != "123-45-6789" {
		t.Errorf("expected unmasked ssn, got %q", full.SSN)
	}
	if !reflect.DeepEqual(full.Treatments, []string{"Chemotherapy", "Radiation"}) {
		t.Errorf("unexpected treatments: %v", full.Treatments)
	}

	noTx := engine.Decide(ctx, actor("dr_house", "house@hospital.com", identity.RoleDoctor), 2)
	if noTx.SSN != NotAvailable || len(noTx.Treatments) != 0 {
		t.Errorf("expected N/A ssn and no treatments, got %+v", noTx)
	}

	masked := engine.Decide(ctx, actor("nurse_joy", "joy@hospital.com", identity.RoleNurse), 1)
	if masked.SSN != "***-**-6789" || !masked.TreatmentsRestricted || len(masked.Treatments) != 0 {
		t.Errorf("unexpected masked view: %+v", masked)
	}

	own := engine.Decide(ctx, actor("bob", "bob@example.com", identity.RolePatient), 2)
	if own.Email != "bob@example.com" || own.Phone != NotAvailable {
		t.Errorf("unexpected own view: %+v", own)
	}
	if own.SSN != "" || own.Treatments != nil {
		t.Errorf("own view must not carry clinical fields: %+v", own)
	}

	existence := engine.Decide(ctx, actor("admin", "admin@hospital.com", identity.RoleAdminDB), 1)
	if existence.FirstName != "" || existence.SSN != "" {
		t.Errorf("existence view must not carry patient fields: %+v", existence)
	}
}

func TestDecide_Idempotent(t *testing.T) {
	engine := NewEngine(newFakeRecords(), nil)
	ctx := context.Background()

	for _, role := range append(identity.Roles, identity.Role("")) {
		id := actor("u", "alice@example.com", role)
		first := engine.Decide(ctx, id, 1)
		second := engine.Decide(ctx, id, 1)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("role %s: repeated decisions differ: %+v vs %+v", role, first, second)
		}
	}
}

func TestDecide_LookupFailure(t *testing.T) {
	store := newFakeRecords()
	store.err = errors.New("database is locked")
	sink := &captureSink{}

	view := NewEngine(store, sink).Decide(context.Background(), actor("dr_house", "house@hospital.com", identity.RoleDoctor), 1)

	if view.Kind != KindError || view.Reason != ReasonLookupFailed {
		t.Errorf("expected lookup-failed error view, got %+v", view)
	}
	if len(sink.entries) != 1 || sink.entries[0].Action != audit.ActionReadFail || sink.entries[0].Detail != "Lookup failed for ID 1" {
		t.Errorf("unexpected audit entries: %+v", sink.entries)
	}
}

func TestDecide_NilIdentity(t *testing.T) {
	sink := &captureSink{}
	view := NewEngine(newFakeRecords(), sink).Decide(context.Background(), nil, 1)
	if view.Kind != KindDenied || view.Reason != ReasonInsufficientRole {
		t.Errorf("expected insufficient-role denial, got %+v", view)
	}
	if len(sink.entries) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(sink.entries))
	}
}

type decisionMetrics struct {
	calls []string
}

func (m *decisionMetrics) RecordDecision(role, action string, d time.Duration) {
	m.calls = append(m.calls, role+"/"+action)
}

func TestDecide_Metrics(t *testing.T) {
	m := &decisionMetrics{}
	engine := NewEngine(newFakeRecords(), nil).WithMetrics(m)
	ctx := context.Background()

	engine.Decide(ctx, actor("n", "", identity.RoleNurse), 1)
	engine.Decide(ctx, actor("e", "", identity.RoleETLService), 1)

	want := []string{"nurse/READ_PARTIAL", "etl_service/none"}
	if !reflect.DeepEqual(m.calls, want) {
		t.Errorf("expected %v, got %v", want, m.calls)
	}
}

func TestView_Granted(t *testing.T) {
	tests := []struct {
		role identity.Role
		want bool
	}{
		{identity.RoleDoctor, true},
		{identity.RoleNurse, true},
		{identity.RoleAdminDB, true},
		{identity.RolePatient, true},
		{identity.RoleETLService, false},
		{identity.RolePharmacist, false},
		{identity.Role("janitor"), false},
	}

	engine := NewEngine(newFakeRecords(), nil)
	for _, tt := range tests {
		t.Run(tt.role.String(), func(t *testing.T) {
			view := engine.Decide(context.Background(), actor("u", "house@hospital.com", tt.role), 1)
			if tt.role == identity.RolePatient {
				view = engine.Decide(context.Background(), actor("u", "alice@example.com", tt.role), 1)
			}
			if got := view.Granted(); got != tt.want {
				t.Errorf("expected Granted() = %v for %s (%s), got %v", tt.want, tt.role, view.Kind, got)
			}
		})
	}

	if (View{Kind: KindNotFound}).Granted() || (View{Kind: KindError}).Granted() {
		t.Error("expected not-found and error views to carry no data")
	}
}

func TestDecide_Span(t *testing.T) {
	tracer, spans := spantest.New(t)
	engine := NewEngine(newFakeRecords(), nil).WithTracer(tracer)

	engine.Decide(context.Background(), actor("nina", "", identity.RoleNurse), 1)
	engine.Decide(context.Background(), actor("pat", "bob@example.com", identity.RolePatient), 1)

	decided := spantest.Named(spans, "access.decide")
	if len(decided) != 2 {
		t.Fatalf("expected 2 access.decide spans, got %d", len(decided))
	}

	nurse := spantest.Attrs(decided[0])
	if nurse[tracing.AttrRole] != "nurse" || nurse[tracing.AttrViewKind] != "masked" ||
		nurse[tracing.AttrGranted] != "true" || nurse[tracing.AttrAuditAction] != "READ_PARTIAL" {
		t.Errorf("unexpected nurse span attributes: %v", nurse)
	}
	if nurse[tracing.AttrPatientID] != "1" || nurse[tracing.AttrActor] != "nina" {
		t.Errorf("unexpected nurse span attribution: %v", nurse)
	}

	patient := spantest.Attrs(decided[1])
	if patient[tracing.AttrGranted] != "false" || patient[tracing.AttrAuditAction] != "ACCESS_DENIED" {
		t.Errorf("unexpected patient span attributes: %v", patient)
	}
}

func TestMaskSSN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123-45-6789", "***-**-6789"},
		{"", "N/A"},
		{"  ", "N/A"},
		{"123", "***-**-123"},
		{"6789", "***-**-6789"},
	}
	for _, tt := range tests {
		if got := MaskSSN(tt.input); got != tt.want {
			t.Errorf("MaskSSN(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
