package onboarding

import "context"

// Application is the data collected from an actor who wants a patient
// account. SSN, Phone and Address are optional.
type Application struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	Gender    string
	SSN       string
	Phone     string
	Address   string
}

// FullName returns "First Last".
func (a Application) FullName() string {
	return a.FirstName + " " + a.LastName
}

// Account identifies the rows created for a new patient.
type Account struct {
	PatientID int64
	UserID    int64
}

// PatientAccount is a validated application ready to persist.
type PatientAccount struct {
	Username     string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	DOB          string
	SSN          string
	Phone        string
	Address      string
}

// AccountStore persists a patient and its login identity atomically.
// Implementations return *ConflictError, *ConfigError or *PersistenceError.
type AccountStore interface {
	CreatePatientAccount(ctx context.Context, acct PatientAccount) (Account, error)
}
