package onboarding

import (
	"context"
	"time"
)

// Step is a position in the chat onboarding machine.
type Step int

const (
	StepConfirm Step = iota
	StepFirstName
	StepLastName
	StepEmail
	StepPassword
	StepDone
)

var stepNames = [...]string{"confirm", "first_name", "last_name", "email", "password", "done"}

// String returns the step name.
func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// Session is one actor's in-progress onboarding. It never holds the
// password.
type Session struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Step      Step      `json:"step"`
	FirstName string    `json:"first_name,omitempty"`
	LastName  string    `json:"last_name,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionStore holds at most one session per actor.
type SessionStore interface {
	// Create stores s if the actor has no session, else ErrSessionExists.
	Create(ctx context.Context, s *Session) error

	// Get returns the actor's session or ErrNoSession.
	Get(ctx context.Context, actor string) (*Session, error)

	// Put replaces the actor's session.
	Put(ctx context.Context, s *Session) error

	// Delete removes the actor's session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, actor string) error

	// Sweep removes expired sessions and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
}
