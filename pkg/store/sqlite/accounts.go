package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
)

// CreatePatientAccount implements onboarding.AccountStore. The Patient row,
// the Users row and the role assignment are written in one transaction;
// nothing is left behind on failure.
func (s *Store) CreatePatientAccount(ctx context.Context, acct onboarding.PatientAccount) (onboarding.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if exists, err := rowExists(ctx, tx, `SELECT 1 FROM Users WHERE username = ?`, acct.Username); err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("check_username", err)
	} else if exists {
		return onboarding.Account{}, onboarding.NewConflictError("username", acct.Username)
	}

	if exists, err := rowExists(ctx, tx, `
		SELECT 1 FROM Users WHERE email = ?
		UNION ALL
		SELECT 1 FROM Patients WHERE email = ?`, acct.Email, acct.Email); err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("check_email", err)
	} else if exists {
		return onboarding.Account{}, onboarding.NewConflictError("email", acct.Email)
	}

	roleID, err := lookupRoleID(ctx, tx, identity.RolePatient)
	if errors.Is(err, sql.ErrNoRows) {
		return onboarding.Account{}, onboarding.NewConfigError("patient role not found in Roles")
	}
	if err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("lookup_role", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO Patients (first_name, last_name, email, dob, ssn, phone, address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		acct.FirstName, acct.LastName, acct.Email, acct.DOB,
		nullable(acct.SSN), nullable(acct.Phone), nullable(acct.Address),
	)
	if err != nil {
		return onboarding.Account{}, s.accountError("insert_patient", acct, err)
	}
	patientID, err := res.LastInsertId()
	if err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("insert_patient", err)
	}

	res, err = tx.ExecContext(ctx, `
		INSERT INTO Users (username, password_hash, email, full_name, is_active)
		VALUES (?, ?, ?, ?, 1)`,
		acct.Username, acct.PasswordHash, acct.Email, acct.FirstName+" "+acct.LastName,
	)
	if err != nil {
		return onboarding.Account{}, s.accountError("insert_user", acct, err)
	}
	userID, err := res.LastInsertId()
	if err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("insert_user", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO UserRoles (user_id, role_id) VALUES (?, ?)`, userID, roleID); err != nil {
		return onboarding.Account{}, onboarding.NewPersistenceError("assign_role", err)
	}

	if err := tx.Commit(); err != nil {
		return onboarding.Account{}, s.accountError("commit", acct, err)
	}

	s.logger.Info("patient account created",
		"username", acct.Username,
		"patient_id", patientID,
		"user_id", userID,
	)
	return onboarding.Account{PatientID: patientID, UserID: userID}, nil
}

// accountError maps a write failure to a ConflictError when a UNIQUE
// constraint lost a race, and to a PersistenceError otherwise.
func (s *Store) accountError(op string, acct onboarding.PatientAccount, err error) error {
	if isUniqueViolation(err) {
		if violatedColumn(err) == "email" {
			return onboarding.NewConflictError("email", acct.Email)
		}
		return onboarding.NewConflictError("username", acct.Username)
	}
	s.logger.Error("patient account transaction failed", "operation", op, "error", err)
	return onboarding.NewPersistenceError(op, err)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func rowExists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query+` LIMIT 1`, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func lookupRoleID(ctx context.Context, q querier, role identity.Role) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT role_id FROM Roles WHERE name = ?`, string(role)).Scan(&id)
	return id, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ onboarding.AccountStore = (*Store)(nil)
