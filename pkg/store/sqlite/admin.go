package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mercator-hq/wardgate/pkg/admin"
	"mercator-hq/wardgate/pkg/onboarding"
)

// CreateUser implements admin.UserStore.
func (s *Store) CreateUser(ctx context.Context, user admin.UserRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, onboarding.NewPersistenceError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if exists, err := rowExists(ctx, tx, `SELECT 1 FROM Users WHERE username = ?`, user.Username); err != nil {
		return 0, onboarding.NewPersistenceError("check_username", err)
	} else if exists {
		return 0, onboarding.NewConflictError("username", user.Username)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO Users (username, password_hash, email, full_name, is_active)
		VALUES (?, ?, ?, ?, 1)`,
		user.Username, user.PasswordHash, user.Email, user.FullName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if violatedColumn(err) == "email" {
				return 0, onboarding.NewConflictError("email", user.Email)
			}
			return 0, onboarding.NewConflictError("username", user.Username)
		}
		return 0, onboarding.NewPersistenceError("insert_user", err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return 0, onboarding.NewPersistenceError("insert_user", err)
	}

	roleID, err := lookupRoleID(ctx, tx, user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, onboarding.NewValidationError("role", fmt.Sprintf("role %q not found in Roles", user.Role))
	}
	if err != nil {
		return 0, onboarding.NewPersistenceError("lookup_role", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO UserRoles (user_id, role_id) VALUES (?, ?)`, userID, roleID); err != nil {
		return 0, onboarding.NewPersistenceError("assign_role", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, onboarding.NewPersistenceError("commit", err)
	}
	return userID, nil
}

// DeleteUser implements admin.UserStore. The role assignment is removed
// with the user; audit rows are untouched.
func (s *Store) DeleteUser(ctx context.Context, username string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, onboarding.NewPersistenceError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID int64
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM Users WHERE username = ?`, username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, admin.ErrUserNotFound
	}
	if err != nil {
		return 0, onboarding.NewPersistenceError("lookup_user", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM UserRoles WHERE user_id = ?`, userID); err != nil {
		return 0, onboarding.NewPersistenceError("delete_role", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM Users WHERE user_id = ?`, userID); err != nil {
		return 0, onboarding.NewPersistenceError("delete_user", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, onboarding.NewPersistenceError("commit", err)
	}
	return userID, nil
}

var _ admin.UserStore = (*Store)(nil)
