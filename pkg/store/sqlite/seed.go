package sqlite

import (
	"context"
	"fmt"
)

// InsertPatient adds a patient row and returns its id. Empty optional
// fields are stored as NULL.
func (s *Store) InsertPatient(ctx context.Context, first, last, email, dob, ssn, phone, address string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO Patients (first_name, last_name, email, dob, ssn, phone, address)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		first, last, nullable(email), dob, nullable(ssn), nullable(phone), nullable(address),
	)
	if err != nil {
		return 0, fmt.Errorf("insert patient: %w", err)
	}
	return res.LastInsertId()
}

// InsertDoctor adds a Doctors row.
func (s *Store) InsertDoctor(ctx context.Context, first, last, specialty, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO Doctors (first_name, last_name, specialty, email) VALUES (?, ?, ?, ?)`,
		first, last, specialty, email,
	)
	if err != nil {
		return 0, fmt.Errorf("insert doctor: %w", err)
	}
	return res.LastInsertId()
}

// InsertNurse adds a Nurses row.
func (s *Store) InsertNurse(ctx context.Context, first, last, department, email string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO Nurses (first_name, last_name, department, email) VALUES (?, ?, ?, ?)`,
		first, last, department, email,
	)
	if err != nil {
		return 0, fmt.Errorf("insert nurse: %w", err)
	}
	return res.LastInsertId()
}

// InsertTreatment adds a treatment line for patientID.
func (s *Store) InsertTreatment(ctx context.Context, patientID int64, description, status string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO Treatments (patient_id, description, status) VALUES (?, ?, ?)`,
		patientID, description, status,
	); err != nil {
		return fmt.Errorf("insert treatment: %w", err)
	}
	return nil
}

// CountRows returns the number of rows in table. table must be one of the
// schema tables.
func (s *Store) CountRows(ctx context.Context, table string) (int64, error) {
	if _, ok := expectedColumns[table]; !ok {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
