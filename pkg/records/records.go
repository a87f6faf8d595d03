// Package records defines the read-only clinical data the access engine
// projects into role-scoped views.
package records

import (
	"context"
	"errors"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Patient is a patient demographic record. Optional columns are empty when
// absent.
type Patient struct {
	ID        int64  `json:"patient_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	DOB       string `json:"dob"`
	SSN       string `json:"ssn,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

// FullName returns "First Last".
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Treatment is one line of a patient's treatment history.
type Treatment struct {
	PatientID   int64  `json:"patient_id"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// Staff is a clinical staff member (doctor or nurse).
type Staff struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Email      string `json:"email"`
}

// Store reads clinical records. Lookups that match nothing return
// ErrNotFound.
type Store interface {
	Patient(ctx context.Context, id int64) (*Patient, error)
	PatientByEmail(ctx context.Context, email string) (*Patient, error)
	Treatments(ctx context.Context, patientID int64) ([]Treatment, error)
	DoctorByEmail(ctx context.Context, email string) (*Staff, error)
}
