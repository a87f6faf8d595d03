// Package zone enforces the ward's mandatory door policy: only doctors may
// enter. A denied entry is audited and the door is driven closed.
package zone

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
	"mercator-hq/wardgate/pkg/world"
)

// Messages posted to world chat.
const (
	MessageDenied        = "🚫 ACCESS DENIED: Only doctors may enter this ward."
	MessageGranted       = "✅ ACCESS GRANTED: Welcome Doctor."
	MessageRegisterFirst = "🚫 You must be registered to enter this ward."
)

// DefaultCloseDelay is how long a denied door stays untouched before it is
// driven closed.
const DefaultCloseDelay = 120 * time.Millisecond

// Metrics receives one observation per zone decision.
type Metrics interface {
	RecordZoneDecision(outcome string)
}

// Decision is the outcome of one door interaction.
type Decision struct {
	Outcome Outcome
	// Base is the position of the lower door segment.
	Base world.Pos
	// Door is the door state after enforcement. It is only populated on
	// denial.
	Door Door
}

// Guard enforces the door policy.
type Guard struct {
	bridge     world.Bridge
	sink       audit.Sink
	closeDelay time.Duration
	metrics    Metrics
	tracer     *tracing.Tracer
	logger     *slog.Logger
}

// NewGuard creates a guard acting on bridge. A non-positive closeDelay
// selects DefaultCloseDelay.
func NewGuard(bridge world.Bridge, sink audit.Sink, closeDelay time.Duration) *Guard {
	if sink == nil {
		sink = audit.Discard
	}
	if closeDelay <= 0 {
		closeDelay = DefaultCloseDelay
	}
	return &Guard{
		bridge:     bridge,
		sink:       sink,
		closeDelay: closeDelay,
		logger:     slog.Default().With("component", "zone.guard"),
	}
}

// WithMetrics attaches a metrics observer and returns g.
func (g *Guard) WithMetrics(m Metrics) *Guard {
	g.metrics = m
	return g
}

// WithTracer records one span per door interaction and returns g.
func (g *Guard) WithTracer(t *tracing.Tracer) *Guard {
	g.tracer = t
	return g
}

// Allowed reports whether role may enter the ward.
func Allowed(role identity.Role) bool {
	return role == identity.RoleDoctor
}

// Enforce applies the policy to id hitting the door segment at pos. The
// audit entry is written before any world call, so world errors are
// returned with the decision already recorded.
func (g *Guard) Enforce(ctx context.Context, id *identity.Identity, pos world.Pos) (Decision, error) {
	ctx, span := g.tracer.Start(ctx, "zone.enforce")
	defer span.End()
	span.SetAttributes(tracing.AttrDoor.String(pos.String()))
	if id != nil {
		span.SetAttributes(tracing.Actor(id.Username, id.Role.String())...)
	}

	d, err := g.enforce(ctx, id, pos)
	span.SetAttributes(tracing.AttrZoneOutcome.String(d.Outcome.String()))
	tracing.SetStatus(span, err)
	return d, err
}

func (g *Guard) enforce(ctx context.Context, id *identity.Identity, pos world.Pos) (Decision, error) {
	if id == nil {
		return Decision{Outcome: Deny}, fmt.Errorf("zone: identity is required")
	}

	outcome := Deny
	if Allowed(id.Role) {
		outcome = Grant
	}
	g.record(ctx, id, outcome)

	if outcome == Grant {
		g.logger.Info("ward entry granted", "username", id.Username, "door", pos.String())
		return Decision{Outcome: Grant, Base: pos}, g.bridge.PostChat(ctx, MessageGranted)
	}

	g.logger.Info("ward entry denied", "username", id.Username, "role", id.Role.String(), "door", pos.String())
	if err := g.bridge.PostChat(ctx, MessageDenied); err != nil {
		g.logger.Warn("failed to post denial", "error", err)
	}

	base, err := g.basePos(ctx, pos)
	if err != nil {
		return Decision{Outcome: Deny, Base: pos}, err
	}

	select {
	case <-ctx.Done():
		return Decision{Outcome: Deny, Base: base}, ctx.Err()
	case <-time.After(g.closeDelay):
	}

	door, err := g.close(ctx, base)
	return Decision{Outcome: Deny, Base: base, Door: door}, err
}

// basePos normalises a hit on either segment to the lower segment.
func (g *Guard) basePos(ctx context.Context, pos world.Pos) (world.Pos, error) {
	hit, err := g.bridge.Block(ctx, pos)
	if err != nil {
		return pos, fmt.Errorf("zone: read door at %s: %w", pos, err)
	}
	if IsUpper(hit.Data) {
		return pos.Below(), nil
	}
	return pos, nil
}

// close drives both segments above base to Closed and returns the result.
func (g *Guard) close(ctx context.Context, base world.Pos) (Door, error) {
	lower, err := g.bridge.Block(ctx, base)
	if err != nil {
		return Door{}, fmt.Errorf("zone: read lower door at %s: %w", base, err)
	}
	upper, err := g.bridge.Block(ctx, base.Above())
	if err != nil {
		return Door{}, fmt.Errorf("zone: read upper door at %s: %w", base.Above(), err)
	}

	current := Door{Lower: StateOf(lower.Data), Upper: StateOf(upper.Data)}
	next := Next(current, Deny)

	lower.Data = WithState(lower.Data, next.Lower)
	upper.Data = WithState(upper.Data, next.Upper)

	if err := g.bridge.SetBlock(ctx, base, lower); err != nil {
		return current, fmt.Errorf("zone: close lower door at %s: %w", base, err)
	}
	if err := g.bridge.SetBlock(ctx, base.Above(), upper); err != nil {
		return Door{Lower: next.Lower, Upper: current.Upper}, fmt.Errorf("zone: close upper door at %s: %w", base.Above(), err)
	}
	return next, nil
}

func (g *Guard) record(ctx context.Context, id *identity.Identity, outcome Outcome) {
	entry := audit.Entry{
		ActorID:   id.ID,
		ActorName: id.Username,
		Resource:  audit.ResourceWardDoor,
	}
	if outcome == Grant {
		entry.Action = audit.ActionPhysicalGrant
		entry.Detail = "Entered ward"
	} else {
		entry.Action = audit.ActionPhysicalDeny
		entry.Detail = "Blocked from ward"
	}
	g.sink.Record(ctx, entry)

	if g.metrics != nil {
		g.metrics.RecordZoneDecision(outcome.String())
	}
}
