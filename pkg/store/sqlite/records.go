package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"mercator-hq/wardgate/pkg/records"
)

const patientColumns = `patient_id, first_name, last_name, COALESCE(email, ''), dob,
	COALESCE(ssn, ''), COALESCE(phone, ''), COALESCE(address, '')`

// Patient implements records.Store.
func (s *Store) Patient(ctx context.Context, id int64) (*records.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM Patients WHERE patient_id = ?`, id)
	return scanPatient(row)
}

// PatientByEmail implements records.Store.
func (s *Store) PatientByEmail(ctx context.Context, email string) (*records.Patient, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+patientColumns+` FROM Patients WHERE email = ? ORDER BY patient_id LIMIT 1`, email)
	return scanPatient(row)
}

func scanPatient(row *sql.Row) (*records.Patient, error) {
	var p records.Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Email, &p.DOB, &p.SSN, &p.Phone, &p.Address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read patient: %w", err)
	}
	return &p, nil
}

// Treatments implements records.Store. The slice is empty, not nil, when the
// patient has no treatments.
func (s *Store) Treatments(ctx context.Context, patientID int64) ([]records.Treatment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT patient_id, description, status
		FROM Treatments
		WHERE patient_id = ?
		ORDER BY treatment_id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("read treatments: %w", err)
	}
	defer rows.Close()

	out := []records.Treatment{}
	for rows.Next() {
		var t records.Treatment
		if err := rows.Scan(&t.PatientID, &t.Description, &t.Status); err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read treatments: %w", err)
	}
	return out, nil
}

// DoctorByEmail implements records.Store.
func (s *Store) DoctorByEmail(ctx context.Context, email string) (*records.Staff, error) {
	var d records.Staff
	err := s.db.QueryRowContext(ctx, `
		SELECT doctor_id, first_name, last_name, specialty, email
		FROM Doctors WHERE email = ?`, email,
	).Scan(&d.ID, &d.FirstName, &d.LastName, &d.Department, &d.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read doctor: %w", err)
	}
	return &d, nil
}

var _ records.Store = (*Store)(nil)
