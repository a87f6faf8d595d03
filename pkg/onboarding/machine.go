package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/wardgate/pkg/identity"
)

// Chat lines posted by the machine.
const (
	MsgConfirmPrompt = "Do you want to register as a patient? (Type 'yes' or 'no')"
	MsgStart         = "Great! Let's start registration."
	MsgAskFirstName  = "Step 1: Type your FIRST NAME in chat"
	MsgAskLastName   = "Step 2: Type your LAST NAME"
	MsgAskEmail      = "Step 3: Type your EMAIL"
	MsgAskPassword   = "Step 4: Type your PASSWORD (min 4 chars)"
	MsgNameTooShort  = "Name too short. Try again:"
	MsgBadEmail      = "Invalid email. Must contain @. Try again:"
	MsgShortPassword = "Password too short (min 4). Try again:"
	MsgPasswordSaved = "Password saved!"
	MsgFinalizing    = "Finalizing registration..."
	MsgComplete      = "=== REGISTRATION COMPLETE ==="
	MsgLoginHint     = "Hit the terminal again to login!"
	MsgFailed        = "Registration failed. Username or email may already exist."
	MsgCancelled     = "Registration cancelled."
)

// yesWords are the answers accepted at the confirmation step.
var yesWords = map[string]bool{"yes": true, "y": true, "si": true, "s": true}

// IsYes reports whether answer confirms a prompt.
func IsYes(answer string) bool {
	return yesWords[strings.ToLower(strings.TrimSpace(answer))]
}

// Reply is the outcome of one machine input.
type Reply struct {
	// Messages are chat lines to post, in order.
	Messages []string

	// Step is the session's step after the input.
	Step Step

	// Done is set when the session has been removed.
	Done bool

	// Account is set when registration succeeded.
	Account *Account

	// Err carries a rejected start, a missing session or the
	// registration failure.
	Err error
}

// Machine drives chat onboarding one message at a time.
type Machine struct {
	sessions SessionStore
	ids      identity.Store
	creator  AccountCreator
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*actorLock
}

type actorLock struct {
	mu   sync.Mutex
	refs int
}

// NewMachine creates a machine. ids is consulted by Start so that
// registered actors cannot onboard twice.
func NewMachine(sessions SessionStore, ids identity.Store, creator AccountCreator) *Machine {
	return &Machine{
		sessions: sessions,
		ids:      ids,
		creator:  creator,
		logger:   slog.Default().With("component", "onboarding.machine"),
		now:      time.Now,
		locks:    make(map[string]*actorLock),
	}
}

// WithMetrics attaches a metrics observer for cancelled sessions and
// returns m.
func (m *Machine) WithMetrics(metrics Metrics) *Machine {
	m.metrics = metrics
	return m
}

// Active reports whether actor has a session.
func (m *Machine) Active(ctx context.Context, actor string) bool {
	_, err := m.sessions.Get(ctx, actor)
	return err == nil
}

// Start opens a session at the confirmation step.
func (m *Machine) Start(ctx context.Context, actor string) Reply {
	unlock := m.lock(actor)
	defer unlock()

	if _, err := m.sessions.Get(ctx, actor); err == nil {
		return Reply{Err: ErrSessionExists}
	} else if !errors.Is(err, ErrNoSession) {
		return Reply{Err: err}
	}

	_, err := m.ids.Resolve(ctx, actor)
	switch {
	case err == nil:
		return Reply{
			Messages: []string{actor + ": Already registered! Hit the terminal."},
			Done:     true,
			Err:      ErrAlreadyRegistered,
		}
	case !errors.Is(err, identity.ErrNotFound):
		m.logger.Error("identity lookup failed", "actor", actor, "error", err)
		return Reply{Err: err}
	}

	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		Actor:     actor,
		Step:      StepConfirm,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.sessions.Create(ctx, s); err != nil {
		return Reply{Err: err}
	}

	m.logger.Info("onboarding started", "actor", actor, "session_id", s.ID)
	return Reply{
		Messages: []string{actor + ": Starting registration...", MsgConfirmPrompt},
		Step:     StepConfirm,
	}
}

// Handle feeds one chat message from actor into its session.
func (m *Machine) Handle(ctx context.Context, actor, message string) Reply {
	unlock := m.lock(actor)
	defer unlock()

	s, err := m.sessions.Get(ctx, actor)
	if err != nil {
		return Reply{Err: err}
	}

	trimmed := strings.TrimSpace(message)
	normalized := strings.ToLower(trimmed)

	if s.Step == StepConfirm {
		if !yesWords[normalized] {
			m.finish(ctx, actor)
			if m.metrics != nil {
				m.metrics.RecordOnboarding(OutcomeCancelled)
			}
			return Reply{Messages: []string{MsgCancelled}, Done: true, Step: StepConfirm}
		}
		s.Step = StepFirstName
		return m.save(ctx, s, MsgStart, MsgAskFirstName)
	}

	if rule, ok := stepRules[s.Step]; ok {
		if err := validate.Var(normalized, rule); err != nil {
			return Reply{Messages: []string{retryMessage(s.Step)}, Step: s.Step}
		}
	}

	switch s.Step {
	case StepFirstName:
		s.FirstName = trimmed
		s.Step = StepLastName
		return m.save(ctx, s, "First Name: "+trimmed, MsgAskLastName)
	case StepLastName:
		s.LastName = trimmed
		s.Step = StepEmail
		return m.save(ctx, s, "Last Name: "+trimmed, MsgAskEmail)
	case StepEmail:
		s.Email = trimmed
		s.Step = StepPassword
		return m.save(ctx, s, "Email: "+trimmed, MsgAskPassword)
	case StepPassword:
		return m.complete(ctx, s, trimmed)
	default:
		m.finish(ctx, actor)
		return Reply{Done: true, Step: s.Step, Err: fmt.Errorf("session for %s at unexpected step %s", actor, s.Step)}
	}
}

func (m *Machine) complete(ctx context.Context, s *Session, password string) Reply {
	reply := Reply{Messages: []string{MsgPasswordSaved, MsgFinalizing}, Step: StepDone, Done: true}

	acct, err := m.creator.CreatePatientAccount(ctx, Application{
		Username:  s.Actor,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Password:  password,
	})
	m.finish(ctx, s.Actor)

	if err != nil {
		m.logger.Warn("chat registration failed", "actor", s.Actor, "session_id", s.ID, "error", err)
		reply.Messages = append(reply.Messages, MsgFailed)
		reply.Err = err
		return reply
	}

	m.logger.Info("chat registration complete", "actor", s.Actor, "session_id", s.ID, "user_id", acct.UserID)
	reply.Messages = append(reply.Messages, MsgComplete, "Welcome "+s.FirstName+"!", MsgLoginHint)
	reply.Account = &acct
	return reply
}

func (m *Machine) save(ctx context.Context, s *Session, messages ...string) Reply {
	s.UpdatedAt = m.now().UTC()
	if err := m.sessions.Put(ctx, s); err != nil {
		m.logger.Error("failed to save onboarding session", "actor", s.Actor, "error", err)
		return Reply{Step: s.Step, Err: err}
	}
	return Reply{Messages: messages, Step: s.Step}
}

func (m *Machine) finish(ctx context.Context, actor string) {
	if err := m.sessions.Delete(ctx, actor); err != nil {
		m.logger.Error("failed to remove onboarding session", "actor", actor, "error", err)
	}
}

// lock serialises input per actor and returns the matching unlock.
func (m *Machine) lock(actor string) func() {
	m.mu.Lock()
	l, ok := m.locks[actor]
	if !ok {
		l = &actorLock{}
		m.locks[actor] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, actor)
		}
		m.mu.Unlock()
	}
}

func retryMessage(step Step) string {
	switch step {
	case StepEmail:
		return MsgBadEmail
	case StepPassword:
		return MsgShortPassword
	default:
		return MsgNameTooShort
	}
}
