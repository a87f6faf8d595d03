package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/audit/storage"
	"mercator-hq/wardgate/pkg/identity"
)

type memorySource struct {
	*storage.MemoryStorage
	counts []audit.RoleCount
}

func (m memorySource) CountByRole(ctx context.Context) ([]audit.RoleCount, error) {
	return m.counts, nil
}

func seededSource(t *testing.T) memorySource {
	t.Helper()
	ctx := context.Background()
	mem := storage.NewMemoryStorage()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	actions := []audit.Action{
		audit.ActionReadSensitive, audit.ActionLoginFail, audit.ActionReadPartial,
		audit.ActionAccessDenied, audit.ActionRegister, audit.ActionReadOwn,
		audit.ActionReadFail, audit.ActionReadSensitive, audit.ActionReadPartial,
		audit.ActionLoginFail, audit.ActionLoginFail, audit.ActionAccessDenied,
		audit.ActionLoginFail,
	}
	for i, a := range actions {
		e := &audit.Entry{
			ActorID:   int64(i + 1),
			ActorName: "user",
			Action:    a,
			Resource:  audit.ResourcePatients,
			Detail:    string(a),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}
		if err := mem.Store(ctx, e); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}
	return memorySource{
		MemoryStorage: mem,
		counts:        []audit.RoleCount{{Role: "doctor", Count: 4}, {Role: "nurse", Count: 2}},
	}
}

func TestBuild_RequiresETLService(t *testing.T) {
	b := NewBuilder(seededSource(t), nil)
	for _, role := range identity.Roles {
		if role == identity.RoleETLService {
			continue
		}
		_, err := b.Build(context.Background(), &identity.Identity{Username: "x", Role: role})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Build() as %s error = %v, want ErrUnauthorized", role, err)
		}
	}
	if _, err := b.Build(context.Background(), nil); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Build(nil) error = %v, want ErrUnauthorized", err)
	}
}

func TestBuild_Sections(t *testing.T) {
	var recorded []audit.Entry
	sink := audit.SinkFunc(func(ctx context.Context, e audit.Entry) { recorded = append(recorded, e) })
	b := NewBuilder(seededSource(t), sink)

	r, err := b.Build(context.Background(), &identity.Identity{ID: 7, Username: "etl_bot", Role: identity.RoleETLService})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if len(r.RoleCounts) != 2 {
		t.Errorf("RoleCounts = %+v", r.RoleCounts)
	}
	if len(r.Alerts) != SectionLimit {
		t.Fatalf("Alerts = %d, want %d", len(r.Alerts), SectionLimit)
	}
	for i, e := range r.Alerts {
		if e.Action != audit.ActionAccessDenied && e.Action != audit.ActionLoginFail {
			t.Errorf("alert %d action = %s", i, e.Action)
		}
		if i > 0 && e.Timestamp.After(r.Alerts[i-1].Timestamp) {
			t.Error("alerts are not newest first")
		}
	}
	if len(r.ClinicalReads) != SectionLimit {
		t.Fatalf("ClinicalReads = %d, want %d", len(r.ClinicalReads), SectionLimit)
	}
	for _, e := range r.ClinicalReads {
		if !e.Action.IsClinicalRead() {
			t.Errorf("clinical read action = %s", e.Action)
		}
	}

	if len(recorded) != 1 || recorded[0].Action != audit.ActionReportGenerate || recorded[0].ActorID != 7 {
		t.Errorf("recorded = %+v, want one REPORT_GENERATE by 7", recorded)
	}
}

func TestWriteText(t *testing.T) {
	r := &Report{
		RoleCounts: []audit.RoleCount{{Role: "doctor", Count: 3}},
		Alerts: []*audit.Entry{{
			ActorName: "bob",
			Action:    audit.ActionAccessDenied,
			Detail:    "Patient attempted to view other record ID 1",
			Timestamp: time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC),
		}},
	}

	var sb strings.Builder
	if err := WriteText(&sb, r); err != nil {
		t.Fatalf("WriteText() failed: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"SECURITY AUDIT DASHBOARD",
		"doctor          | 3         ",
		"bob             | ACCESS_DENIED   | 14:05:09",
		">> No recent clinical access recorded.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
