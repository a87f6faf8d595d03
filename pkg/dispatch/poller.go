// Package dispatch runs the world poller: it drains chat posts and block
// hits from the world bridge and routes them to onboarding, the access
// engine and the zone guard.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/wardgate/pkg/access"
	"mercator-hq/wardgate/pkg/access/render"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
	"mercator-hq/wardgate/pkg/world"
	"mercator-hq/wardgate/pkg/zone"
)

// DefaultPollInterval is the delay between two polls.
const DefaultPollInterval = 200 * time.Millisecond

// Chat lines posted by the poller.
const (
	BannerOnline   = "Hospital Security Online."
	BannerRegister = "Type 'REGISTER' in chat to sign up!"
)

// RegisterCommand starts chat onboarding. It is matched case-insensitively.
const RegisterCommand = "register"

// Decider evaluates record access.
type Decider interface {
	Decide(ctx context.Context, id *identity.Identity, patientID int64) access.View
}

// Enforcer applies the ward door policy.
type Enforcer interface {
	Enforce(ctx context.Context, id *identity.Identity, pos world.Pos) (zone.Decision, error)
}

// Onboarder drives chat onboarding.
type Onboarder interface {
	Active(ctx context.Context, actor string) bool
	Start(ctx context.Context, actor string) onboarding.Reply
	Handle(ctx context.Context, actor, message string) onboarding.Reply
}

// Poller is the world event loop. It must not share a process with the
// console loop.
type Poller struct {
	bridge    world.Bridge
	ids       identity.Store
	decider   Decider
	enforcer  Enforcer
	onboarder Onboarder
	interval  time.Duration
	layout    atomic.Pointer[Layout]
	tracer    *tracing.Tracer
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPoller creates a poller. A non-positive interval selects
// DefaultPollInterval.
func NewPoller(bridge world.Bridge, ids identity.Store, decider Decider, enforcer Enforcer, onboarder Onboarder, layout Layout, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	p := &Poller{
		bridge:    bridge,
		ids:       ids,
		decider:   decider,
		enforcer:  enforcer,
		onboarder: onboarder,
		interval:  interval,
		logger:    slog.Default().With("component", "dispatch.poller"),
	}
	p.layout.Store(&layout)
	return p
}

// WithTracer records a span per poll and per routed event, and returns p.
func (p *Poller) WithTracer(t *tracing.Tracer) *Poller {
	p.tracer = t
	return p
}

// Layout returns the layout in effect.
func (p *Poller) Layout() Layout {
	return *p.layout.Load()
}

// SetLayout swaps the layout. The next event uses it.
func (p *Poller) SetLayout(l Layout) {
	p.layout.Store(&l)
	p.logger.Info("layout updated",
		"terminal", l.Terminal.String(),
		"doors", len(l.Doors),
		"patient_id", l.PatientID,
	)
}

// Run posts the banner and polls until ctx is cancelled. Poll failures are
// logged and the loop continues.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("poller already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	for _, line := range []string{BannerOnline, BannerRegister} {
		if err := p.bridge.PostChat(ctx, line); err != nil {
			return fmt.Errorf("post banner: %w", err)
		}
	}

	l := p.Layout()
	p.logger.Info("world poller started",
		"terminal", l.Terminal.String(),
		"interval", p.interval,
	)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("world poller stopped")
			return nil
		case <-ticker.C:
			if err := p.Tick(ctx); err != nil {
				p.logger.Error("poll failed", "error", err)
			}
		}
	}
}

// Tick drains pending chat posts, then pending block hits.
func (p *Poller) Tick(ctx context.Context) (err error) {
	ctx, span := p.tracer.Start(ctx, "dispatch.tick")
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	posts, err := p.bridge.PollChat(ctx)
	if err != nil {
		return fmt.Errorf("poll chat: %w", err)
	}
	span.SetAttributes(tracing.AttrEventCount.Int(len(posts)))
	for _, post := range posts {
		p.handleChat(ctx, post)
	}

	hits, err := p.bridge.PollBlockHits(ctx)
	if err != nil {
		return fmt.Errorf("poll block hits: %w", err)
	}
	span.SetAttributes(tracing.AttrEventCount.Int(len(posts) + len(hits)))
	layout := p.Layout()
	for _, hit := range hits {
		p.handleHit(ctx, layout, hit)
	}
	return nil
}

func (p *Poller) handleChat(ctx context.Context, post world.ChatPost) {
	ctx, span := p.tracer.Start(ctx, "dispatch.chat")
	defer span.End()

	actor, err := p.bridge.EntityName(ctx, post.EntityID)
	if err != nil {
		p.logger.Warn("unknown chat entity", "entity_id", post.EntityID, "error", err)
		return
	}

	active := p.onboarder.Active(ctx, actor)
	var reply onboarding.Reply
	switch {
	case !active && strings.EqualFold(strings.TrimSpace(post.Message), RegisterCommand):
		reply = p.onboarder.Start(ctx, actor)
	case active:
		reply = p.onboarder.Handle(ctx, actor, post.Message)
	default:
		return
	}
	span.SetAttributes(
		tracing.AttrActor.String(actor),
		tracing.AttrOnboardStep.String(reply.Step.String()),
	)

	if reply.Err != nil && !errors.Is(reply.Err, onboarding.ErrAlreadyRegistered) {
		p.logger.Warn("onboarding input failed", "actor", actor, "error", reply.Err)
	}
	p.post(ctx, reply.Messages...)
}

func (p *Poller) handleHit(ctx context.Context, layout Layout, hit world.BlockHit) {
	terminal := layout.NearTerminal(hit.Pos)
	door := layout.IsDoor(hit.Pos)
	if !terminal && !door {
		return
	}

	ctx, span := p.tracer.Start(ctx, "dispatch.hit")
	defer span.End()
	kind := "terminal"
	if door {
		kind = "door"
	}
	span.SetAttributes(tracing.AttrEventKind.String(kind))

	actor, err := p.bridge.EntityName(ctx, hit.EntityID)
	if err != nil {
		p.logger.Warn("unknown hitting entity", "entity_id", hit.EntityID, "error", err)
		return
	}
	span.SetAttributes(tracing.AttrActor.String(actor))
	id, err := p.ids.Resolve(ctx, actor)
	if err != nil && !errors.Is(err, identity.ErrNotFound) {
		tracing.SetStatus(span, err)
		p.logger.Error("identity lookup failed", "actor", actor, "error", err)
		return
	}

	if terminal {
		p.showTerminal(ctx, layout, actor, id)
	}
	if door {
		p.enterWard(ctx, actor, id, hit.Pos)
	}
}

func (p *Poller) showTerminal(ctx context.Context, layout Layout, actor string, id *identity.Identity) {
	if id == nil {
		p.logger.Info("unregistered actor at terminal", "actor", actor)
		p.post(ctx, fmt.Sprintf("User '%s' not registered.", actor), BannerRegister)
		return
	}

	view := p.decider.Decide(ctx, id, layout.PatientID)
	p.post(ctx, fmt.Sprintf("Greetings %s! Role: %s", actor, id.Role), render.Text(view))
	p.logger.Info("terminal view sent", "actor", actor, "role", id.Role, "kind", view.Kind.String())
}

func (p *Poller) enterWard(ctx context.Context, actor string, id *identity.Identity, pos world.Pos) {
	if id == nil {
		p.post(ctx, zone.MessageRegisterFirst)
		return
	}
	if _, err := p.enforcer.Enforce(ctx, id, pos); err != nil {
		p.logger.Error("door enforcement failed", "actor", actor, "pos", pos.String(), "error", err)
	}
}

func (p *Poller) post(ctx context.Context, lines ...string) {
	for _, line := range lines {
		if err := p.bridge.PostChat(ctx, line); err != nil {
			p.logger.Error("failed to post chat", "error", err)
			return
		}
	}
}
