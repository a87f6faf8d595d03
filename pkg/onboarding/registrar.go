package onboarding

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
)

// DefaultDOB is stored for patients who registered without a date of birth.
const DefaultDOB = "2004-05-01"

// Onboarding outcomes reported to Metrics.
const (
	OutcomeRegistered = "registered"
	OutcomeConflict   = "conflict"
	OutcomeInvalid    = "invalid"
	OutcomeFailed     = "failed"
	OutcomeCancelled  = "cancelled"
)

// Metrics receives one observation per finished onboarding attempt.
type Metrics interface {
	RecordOnboarding(outcome string)
}

// AccountCreator is the persistence contract both surfaces call.
type AccountCreator interface {
	CreatePatientAccount(ctx context.Context, app Application) (Account, error)
}

// RegistrarConfig contains registrar settings.
type RegistrarConfig struct {
	// BcryptCost is the cost used for new password hashes. Zero selects
	// bcrypt.DefaultCost.
	BcryptCost int

	// DefaultDOB is stored as the patient's date of birth.
	// Default: "2004-05-01"
	DefaultDOB string
}

// Registrar validates applications, hashes the password, persists the
// account and audits the registration.
type Registrar struct {
	store   AccountStore
	sink    audit.Sink
	config  RegistrarConfig
	metrics Metrics
	tracer  *tracing.Tracer
	logger  *slog.Logger
}

// NewRegistrar creates a registrar over store.
func NewRegistrar(store AccountStore, sink audit.Sink, config RegistrarConfig) *Registrar {
	if sink == nil {
		sink = audit.Discard
	}
	if config.DefaultDOB == "" {
		config.DefaultDOB = DefaultDOB
	}
	return &Registrar{
		store:  store,
		sink:   sink,
		config: config,
		logger: slog.Default().With("component", "onboarding.registrar"),
	}
}

// WithMetrics attaches a metrics observer and returns r.
func (r *Registrar) WithMetrics(m Metrics) *Registrar {
	r.metrics = m
	return r
}

// WithTracer records one span per account creation and returns r.
func (r *Registrar) WithTracer(t *tracing.Tracer) *Registrar {
	r.tracer = t
	return r
}

// CreatePatientAccount implements AccountCreator. It returns
// *ValidationError, *ConflictError, *ConfigError or *PersistenceError.
func (r *Registrar) CreatePatientAccount(ctx context.Context, app Application) (Account, error) {
	ctx, span := r.tracer.Start(ctx, "onboarding.create_account")
	defer span.End()
	span.SetAttributes(tracing.AttrActor.String(strings.TrimSpace(app.Username)))

	acct, outcome, err := r.create(ctx, app)
	r.observe(outcome)
	span.SetAttributes(tracing.AttrOnboardOutcome.String(outcome))
	tracing.SetStatus(span, err)
	return acct, err
}

func (r *Registrar) create(ctx context.Context, app Application) (Account, string, error) {
	app.Username = strings.TrimSpace(app.Username)
	app.FirstName = strings.TrimSpace(app.FirstName)
	app.LastName = strings.TrimSpace(app.LastName)
	app.Email = strings.TrimSpace(app.Email)
	app.Password = strings.TrimSpace(app.Password)

	if app.Username == "" {
		return Account{}, OutcomeInvalid, NewValidationError("username", "is required")
	}
	if err := ValidateApplication(app); err != nil {
		return Account{}, OutcomeInvalid, err
	}

	hash, err := identity.HashPassword(app.Password, r.config.BcryptCost)
	if err != nil {
		return Account{}, OutcomeFailed, NewPersistenceError("hash_password", err)
	}

	acct, err := r.store.CreatePatientAccount(ctx, PatientAccount{
		Username:     app.Username,
		FirstName:    app.FirstName,
		LastName:     app.LastName,
		Email:        app.Email,
		PasswordHash: hash,
		DOB:          r.config.DefaultDOB,
		SSN:          strings.TrimSpace(app.SSN),
		Phone:        strings.TrimSpace(app.Phone),
		Address:      strings.TrimSpace(app.Address),
	})
	if err != nil {
		outcome := OutcomeFailed
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			outcome = OutcomeConflict
		}
		r.logger.Warn("patient registration failed", "username", app.Username, "error", err)
		return Account{}, outcome, err
	}

	r.sink.Record(ctx, audit.Entry{
		ActorID:   acct.UserID,
		ActorName: app.Username,
		Action:    audit.ActionRegister,
		Resource:  audit.ResourceUsers,
		Detail:    "New patient registered: " + app.FullName(),
	})
	r.logger.Info("patient registered",
		"username", app.Username,
		"patient_id", acct.PatientID,
		"user_id", acct.UserID,
	)
	return acct, OutcomeRegistered, nil
}

func (r *Registrar) observe(outcome string) {
	if r.metrics != nil {
		r.metrics.RecordOnboarding(outcome)
	}
}

var _ AccountCreator = (*Registrar)(nil)
