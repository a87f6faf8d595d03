// Package admin implements user provisioning for the admin_db role.
//
// Conflicts and invalid input are reported with the same typed errors the
// onboarding flow uses (*onboarding.ConflictError and
// *onboarding.ValidationError) so callers handle both paths uniformly.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
)

var (
	// ErrUnauthorized indicates the acting identity is not admin_db.
	ErrUnauthorized = errors.New("admin role required")

	// ErrUserNotFound indicates the user to delete does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// NewUser describes a user to provision.
type NewUser struct {
	Username string
	Password string
	Email    string
	FullName string
	Role     string
}

// UserRecord is a validated NewUser ready to persist.
type UserRecord struct {
	Username     string
	PasswordHash string
	Email        string
	FullName     string
	Role         identity.Role
}

// UserStore persists users. CreateUser returns *onboarding.ConflictError for
// duplicates and *onboarding.ValidationError when the role is not in the
// Roles table. DeleteUser returns ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, user UserRecord) (int64, error)
	DeleteUser(ctx context.Context, username string) (int64, error)
}

// Service performs audited user administration.
type Service struct {
	store      UserStore
	sink       audit.Sink
	bcryptCost int
	logger     *slog.Logger
}

// NewService creates an admin service.
func NewService(store UserStore, sink audit.Sink, bcryptCost int) *Service {
	if sink == nil {
		sink = audit.Discard
	}
	return &Service{
		store:      store,
		sink:       sink,
		bcryptCost: bcryptCost,
		logger:     slog.Default().With("component", "admin"),
	}
}

// CreateUser provisions a user on behalf of actor and returns its id.
func (s *Service) CreateUser(ctx context.Context, actor *identity.Identity, user NewUser) (int64, error) {
	if !authorized(actor) {
		return 0, ErrUnauthorized
	}

	user.Username = strings.TrimSpace(user.Username)
	user.Email = strings.TrimSpace(user.Email)
	user.FullName = strings.TrimSpace(user.FullName)

	if user.Username == "" {
		return 0, onboarding.NewValidationError("username", "must not be empty")
	}
	if user.Password == "" {
		return 0, onboarding.NewValidationError("password", "must not be empty")
	}
	role, ok := identity.ParseRole(strings.TrimSpace(user.Role))
	if !ok {
		return 0, onboarding.NewValidationError("role", fmt.Sprintf("unknown role %q", user.Role))
	}

	hash, err := identity.HashPassword(user.Password, s.bcryptCost)
	if err != nil {
		return 0, onboarding.NewPersistenceError("hash_password", err)
	}

	id, err := s.store.CreateUser(ctx, UserRecord{
		Username:     user.Username,
		PasswordHash: hash,
		Email:        user.Email,
		FullName:     user.FullName,
		Role:         role,
	})
	if err != nil {
		s.logger.Warn("user creation failed", "username", user.Username, "error", err)
		return 0, err
	}

	s.sink.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Action:    audit.ActionAdminCreate,
		Resource:  audit.ResourceUsers,
		Detail:    "Created " + user.Username,
	})
	s.logger.Info("user created", "username", user.Username, "role", role, "by", actor.Username)
	return id, nil
}

// DeleteUser removes username and its role assignment on behalf of actor.
func (s *Service) DeleteUser(ctx context.Context, actor *identity.Identity, username string) error {
	if !authorized(actor) {
		return ErrUnauthorized
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return onboarding.NewValidationError("username", "must not be empty")
	}

	if _, err := s.store.DeleteUser(ctx, username); err != nil {
		return err
	}

	s.sink.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Action:    audit.ActionAdminDelete,
		Resource:  audit.ResourceUsers,
		Detail:    "Deleted " + username,
	})
	s.logger.Info("user deleted", "username", username, "by", actor.Username)
	return nil
}

func authorized(actor *identity.Identity) bool {
	return actor != nil && actor.Role == identity.RoleAdminDB
}
