package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mercator-hq/wardgate/pkg/identity"
)

const resolveIdentity = `
SELECT u.user_id, u.username, u.password_hash, u.email, u.full_name, r.name
FROM Users u
JOIN UserRoles ur ON u.user_id = ur.user_id
JOIN Roles r ON ur.role_id = r.role_id
WHERE u.username = ? AND u.is_active = 1`

// Resolve implements identity.Store.
func (s *Store) Resolve(ctx context.Context, username string) (*identity.Identity, error) {
	var (
		id       identity.Identity
		roleName string
	)
	err := s.db.QueryRowContext(ctx, resolveIdentity, username).Scan(
		&id.ID, &id.Username, &id.PasswordHash, &id.Email, &id.FullName, &roleName,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, identity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	// Out-of-enumeration names are kept verbatim.
	id.Role, _ = identity.ParseRole(roleName)
	return &id, nil
}

// UpdatePasswordHash implements identity.PasswordUpdater.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID int64, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE Users SET password_hash = ? WHERE user_id = ?`, hash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return identity.ErrNotFound
	}
	return nil
}

var (
	_ identity.Store           = (*Store)(nil)
	_ identity.PasswordUpdater = (*Store)(nil)
)
