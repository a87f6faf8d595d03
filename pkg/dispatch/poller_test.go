package dispatch_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mercator-hq/wardgate/internal/spantest"
	"mercator-hq/wardgate/internal/storetest"
	"mercator-hq/wardgate/internal/worldtest"
	"mercator-hq/wardgate/pkg/access"
	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/audit/recorder"
	"mercator-hq/wardgate/pkg/audit/storage"
	"mercator-hq/wardgate/pkg/dispatch"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/store/sqlite"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
	"mercator-hq/wardgate/pkg/world"
	"mercator-hq/wardgate/pkg/zone"
)

const doorID = 64

type harness struct {
	world  *worldtest.World
	store  *sqlite.Store
	logs   *storage.SQLiteStorage
	poller *dispatch.Poller
	layout dispatch.Layout
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newTracedHarness(t, nil)
}

// newTracedHarness wires tracer through every component. A nil tracer
// records nothing.
func newTracedHarness(t *testing.T, tracer *tracing.Tracer) *harness {
	t.Helper()
	store, fx := storetest.Seeded(t)
	logs := storage.NewSQLiteStorage(store.DB())

	cfg := recorder.DefaultConfig()
	cfg.Async = false
	rec := recorder.NewRecorder(logs, cfg).WithTracer(tracer)
	t.Cleanup(func() { _ = rec.Close() })

	w := worldtest.New()
	layout := dispatch.Layout{
		Terminal:  world.Pos{X: 10, Y: 64, Z: 10},
		Doors:     []world.Pos{{X: 20, Y: 64, Z: 20}},
		PatientID: fx.AlicePatientID,
	}
	w.Put(world.Pos{X: 20, Y: 64, Z: 20}, world.Block{ID: doorID, Data: zone.DataOpen})
	w.Put(world.Pos{X: 20, Y: 65, Z: 20}, world.Block{ID: doorID, Data: zone.DataUpperHalf | zone.DataOpen})

	registrar := onboarding.NewRegistrar(store, rec, onboarding.RegistrarConfig{BcryptCost: bcrypt.MinCost}).WithTracer(tracer)
	machine := onboarding.NewMachine(onboarding.NewMemoryStore(0), store, registrar)
	poller := dispatch.NewPoller(
		w,
		store,
		access.NewEngine(store, rec).WithTracer(tracer),
		zone.NewGuard(w, rec, time.Millisecond).WithTracer(tracer),
		machine,
		layout,
		10*time.Millisecond,
	).WithTracer(tracer)
	return &harness{world: w, store: store, logs: logs, poller: poller, layout: layout}
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	if err := h.poller.Tick(context.Background()); err != nil {
		t.Fatalf("Tick() failed: %v", err)
	}
}

func (h *harness) actions(t *testing.T, action audit.Action) []*audit.Entry {
	t.Helper()
	entries, err := h.logs.Query(context.Background(), &audit.Query{Actions: []audit.Action{action}})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	return entries
}

func TestLayout(t *testing.T) {
	l := dispatch.DefaultLayout()
	tests := []struct {
		pos      world.Pos
		terminal bool
		door     bool
	}{
		{world.Pos{X: 76, Y: 11, Z: 48}, true, false},
		{world.Pos{X: 77, Y: 40, Z: 47}, true, false},
		{world.Pos{X: 78, Y: 11, Z: 48}, false, false},
		{world.Pos{X: 106, Y: 11, Z: 38}, false, true},
		{world.Pos{X: 106, Y: 12, Z: 38}, false, false},
	}
	for _, tt := range tests {
		if got := l.NearTerminal(tt.pos); got != tt.terminal {
			t.Errorf("NearTerminal(%s) = %v, want %v", tt.pos, got, tt.terminal)
		}
		if got := l.IsDoor(tt.pos); got != tt.door {
			t.Errorf("IsDoor(%s) = %v, want %v", tt.pos, got, tt.door)
		}
	}
	if err := (dispatch.Layout{}).Validate(); err == nil {
		t.Error("Validate() accepted a zero patient id")
	}
}

func TestTerminal_DoctorSeesFullRecord(t *testing.T) {
	h := newHarness(t)
	h.world.AddPlayer(1, "dr_house")
	h.world.Hit(1, world.Pos{X: 11, Y: 70, Z: 9})
	h.tick(t)

	posted := h.world.Posted()
	if len(posted) != 2 {
		t.Fatalf("posted = %q, want 2 lines", posted)
	}
	if posted[0] != "Greetings dr_house! Role: doctor" {
		t.Errorf("greeting = %q", posted[0])
	}
	if !strings.HasPrefix(posted[1], "DR VIEW: Alice Smith | SSN: 123-45-6789 | Tx: ") {
		t.Errorf("view = %q", posted[1])
	}
	if n := len(h.actions(t, audit.ActionReadSensitive)); n != 1 {
		t.Errorf("READ_SENSITIVE entries = %d, want 1", n)
	}
}

func TestTerminal_UnregisteredActor(t *testing.T) {
	h := newHarness(t)
	h.world.AddPlayer(2, "stranger")
	h.world.Hit(2, h.layout.Terminal)
	h.tick(t)

	want := []string{"User 'stranger' not registered.", dispatch.BannerRegister}
	if got := h.world.Posted(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("posted = %q, want %q", got, want)
	}
}

func TestDoor_NonDoctorIsBlocked(t *testing.T) {
	h := newHarness(t)
	h.world.AddPlayer(3, "nurse_joy")
	h.world.Hit(3, world.Pos{X: 20, Y: 64, Z: 20})
	h.tick(t)

	if got := h.world.Posted(); len(got) != 1 || got[0] != zone.MessageDenied {
		t.Errorf("posted = %q, want denial", got)
	}
	lower := h.world.BlockAt(world.Pos{X: 20, Y: 64, Z: 20})
	upper := h.world.BlockAt(world.Pos{X: 20, Y: 65, Z: 20})
	if zone.StateOf(lower.Data) != zone.Closed || zone.StateOf(upper.Data) != zone.Closed {
		t.Errorf("door = %+v / %+v, want closed", lower, upper)
	}
	if n := len(h.actions(t, audit.ActionPhysicalDeny)); n != 1 {
		t.Errorf("PHYSICAL_DENY entries = %d, want 1", n)
	}
}

func TestDoor_UnregisteredActor(t *testing.T) {
	h := newHarness(t)
	h.world.AddPlayer(4, "stranger")
	h.world.Hit(4, world.Pos{X: 20, Y: 64, Z: 20})
	h.tick(t)

	if got := h.world.Posted(); len(got) != 1 || got[0] != zone.MessageRegisterFirst {
		t.Errorf("posted = %q, want %q", got, zone.MessageRegisterFirst)
	}
	if h.world.SetCalls() != 0 {
		t.Error("door touched for an unregistered actor")
	}
}

func TestChat_RegistrationFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.world.AddPlayer(5, "steve")

	h.world.Say(5, "hello")
	h.tick(t)
	if got := h.world.Posted(); len(got) != 0 {
		t.Fatalf("chat without session posted %q", got)
	}

	for _, msg := range []string{"Register", "yes", "Steve", "Rogers", "steve@example.com", "shield"} {
		h.world.Say(5, msg)
	}
	h.tick(t)

	posted := h.world.Posted()
	if posted[0] != "steve: Starting registration..." {
		t.Errorf("first line = %q", posted[0])
	}
	if last := posted[len(posted)-1]; last != onboarding.MsgLoginHint {
		t.Errorf("last line = %q, want %q", last, onboarding.MsgLoginHint)
	}

	id, err := h.store.Resolve(ctx, "steve")
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if id.Role != identity.RolePatient {
		t.Errorf("role = %s, want patient", id.Role)
	}

	h.world.Say(5, "register")
	h.tick(t)
	posted = h.world.Posted()
	if last := posted[len(posted)-1]; last != "steve: Already registered! Hit the terminal." {
		t.Errorf("last line = %q", last)
	}
}

func TestSetLayout(t *testing.T) {
	h := newHarness(t)
	h.world.AddPlayer(1, "dr_house")

	moved := h.layout
	moved.Terminal = world.Pos{X: 100, Y: 64, Z: 100}
	h.poller.SetLayout(moved)
	if h.poller.Layout().Terminal != moved.Terminal {
		t.Fatalf("Layout() = %+v, want %+v", h.poller.Layout(), moved)
	}

	h.world.Hit(1, h.layout.Terminal)
	h.tick(t)
	if got := h.world.Posted(); len(got) != 0 {
		t.Errorf("hit on the old terminal posted %q", got)
	}

	h.world.Hit(1, moved.Terminal)
	h.tick(t)
	if got := h.world.Posted(); len(got) != 2 {
		t.Errorf("hit on the new terminal posted %q, want 2 lines", got)
	}
}

func TestRun_PostsBannerAndStops(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.poller.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(h.world.Posted()) < 2 {
		select {
		case <-deadline:
			t.Fatal("banner not posted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	posted := h.world.Posted()
	if posted[0] != dispatch.BannerOnline || posted[1] != dispatch.BannerRegister {
		t.Errorf("banner = %q", posted[:2])
	}
}

func TestTick_WorldError(t *testing.T) {
	h := newHarness(t)
	h.world.Err = errors.New("connection reset")
	if err := h.poller.Tick(context.Background()); err == nil {
		t.Fatal("Tick() succeeded with a broken world")
	}
}

func TestTick_Spans(t *testing.T) {
	tracer, spans := spantest.New(t)
	h := newTracedHarness(t, tracer)
	h.world.AddPlayer(1, "dr_house")
	h.world.AddPlayer(2, "steve")
	h.world.Say(2, "REGISTER")
	h.world.Hit(1, h.layout.Terminal)
	h.tick(t)

	ticks := spantest.Named(spans, "dispatch.tick")
	if len(ticks) != 1 {
		t.Fatalf("dispatch.tick spans = %d, want 1", len(ticks))
	}
	if got := spantest.Attrs(ticks[0])[tracing.AttrEventCount]; got != "2" {
		t.Errorf("event count = %q, want 2", got)
	}
	tickID := ticks[0].SpanContext().SpanID()

	chats := spantest.Named(spans, "dispatch.chat")
	if len(chats) != 1 || chats[0].Parent().SpanID() != tickID {
		t.Fatalf("expected one dispatch.chat span under the tick, got %d", len(chats))
	}
	if attrs := spantest.Attrs(chats[0]); attrs[tracing.AttrActor] != "steve" || attrs[tracing.AttrOnboardStep] != onboarding.StepConfirm.String() {
		t.Errorf("chat span attributes = %v", attrs)
	}

	hits := spantest.Named(spans, "dispatch.hit")
	if len(hits) != 1 || hits[0].Parent().SpanID() != tickID {
		t.Fatalf("expected one dispatch.hit span under the tick, got %d", len(hits))
	}
	if got := spantest.Attrs(hits[0])[tracing.AttrEventKind]; got != "terminal" {
		t.Errorf("hit kind = %q, want terminal", got)
	}

	decisions := spantest.Named(spans, "access.decide")
	if len(decisions) != 1 || decisions[0].Parent().SpanID() != hits[0].SpanContext().SpanID() {
		t.Fatal("expected access.decide to be a child of the terminal hit")
	}
	writes := spantest.Named(spans, "audit.write")
	if len(writes) != 1 || writes[0].Parent().SpanID() != decisions[0].SpanContext().SpanID() {
		t.Fatal("expected the READ_SENSITIVE write to be a child of access.decide")
	}
}
