package identity

import (
	"context"
	"errors"
	"log/slog"

	"mercator-hq/wardgate/pkg/audit"
)

// LoginObserver receives one observation per authentication attempt.
type LoginObserver interface {
	RecordLogin(result string)
}

// Login results reported to LoginObserver.
const (
	LoginSuccess  = "success"
	LoginFailure  = "failure"
	LoginNotFound = "not_found"
)

// Authenticator resolves actors and verifies their passwords.
type Authenticator struct {
	store      Store
	sink       audit.Sink
	bcryptCost int
	observer   LoginObserver
	logger     *slog.Logger
}

// NewAuthenticator creates an authenticator over store. Failed password
// checks are recorded to sink.
func NewAuthenticator(store Store, sink audit.Sink, bcryptCost int) *Authenticator {
	if sink == nil {
		sink = audit.Discard
	}
	return &Authenticator{
		store:      store,
		sink:       sink,
		bcryptCost: bcryptCost,
		logger:     slog.Default().With("component", "identity.authenticator"),
	}
}

// WithObserver attaches a login observer and returns a.
func (a *Authenticator) WithObserver(o LoginObserver) *Authenticator {
	a.observer = o
	return a
}

// Resolve delegates to the underlying store.
func (a *Authenticator) Resolve(ctx context.Context, username string) (*Identity, error) {
	return a.store.Resolve(ctx, username)
}

// Authenticate resolves username and verifies password. An unknown user
// yields ErrNotFound with no audit entry; a wrong password yields
// ErrAuthFailure and one LOGIN_FAIL entry.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	id, err := a.store.Resolve(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.observe(LoginNotFound)
		}
		return nil, err
	}

	if !Verify(id, password) {
		a.sink.Record(ctx, audit.Entry{
			ActorID:   id.ID,
			ActorName: id.Username,
			Action:    audit.ActionLoginFail,
			Resource:  audit.ResourceUsers,
			Detail:    "Invalid password",
		})
		a.observe(LoginFailure)
		a.logger.Info("login failed", "username", id.Username)
		return nil, ErrAuthFailure
	}

	if NeedsRehash(id.PasswordHash) {
		a.upgrade(ctx, id, password)
	}

	a.observe(LoginSuccess)
	a.logger.Info("login succeeded", "username", id.Username, "role", id.Role.String())
	return id, nil
}

// upgrade replaces a legacy hash with bcrypt. Failures are logged only.
func (a *Authenticator) upgrade(ctx context.Context, id *Identity, password string) {
	updater, ok := a.store.(PasswordUpdater)
	if !ok {
		return
	}
	hash, err := HashPassword(password, a.bcryptCost)
	if err != nil {
		a.logger.Warn("failed to hash password for upgrade", "username", id.Username, "error", err)
		return
	}
	if err := updater.UpdatePasswordHash(ctx, id.ID, hash); err != nil {
		a.logger.Warn("failed to upgrade legacy password hash", "username", id.Username, "error", err)
		return
	}
	id.PasswordHash = hash
	a.logger.Info("upgraded legacy password hash", "username", id.Username)
}

func (a *Authenticator) observe(result string) {
	if a.observer != nil {
		a.observer.RecordLogin(result)
	}
}
