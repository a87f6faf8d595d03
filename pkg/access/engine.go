package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/records"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
)

// Metrics receives one observation per decision.
type Metrics interface {
	RecordDecision(role, action string, duration time.Duration)
}

// Request is the input to a role policy. Patient is always set.
type Request struct {
	Identity  *identity.Identity
	PatientID int64
	Patient   *records.Patient
}

// policy evaluates one role's branch of the table.
type policy func(e *Engine, ctx context.Context, req Request) View

// policies is keyed by role. Roles without an entry, including roles
// outside the enumeration, get denyInsufficient.
var policies = map[identity.Role]policy{
	identity.RoleDoctor:     (*Engine).doctorView,
	identity.RoleNurse:      (*Engine).nurseView,
	identity.RoleAdminDB:    (*Engine).adminView,
	identity.RoleETLService: (*Engine).complianceView,
	identity.RolePatient:    (*Engine).patientView,
}

// Engine is the access decision engine.
type Engine struct {
	records records.Store
	sink    audit.Sink
	metrics Metrics
	tracer  *tracing.Tracer
	logger  *slog.Logger
}

// NewEngine creates an engine reading from store and auditing to sink.
func NewEngine(store records.Store, sink audit.Sink) *Engine {
	if sink == nil {
		sink = audit.Discard
	}
	return &Engine{
		records: store,
		sink:    sink,
		logger:  slog.Default().With("component", "access.engine"),
	}
}

// WithMetrics attaches a metrics observer and returns e.
func (e *Engine) WithMetrics(m Metrics) *Engine {
	e.metrics = m
	return e
}

// WithTracer records one span per decision and returns e.
func (e *Engine) WithTracer(t *tracing.Tracer) *Engine {
	e.tracer = t
	return e
}

// Decide returns the view id may have of patientID and writes the audit
// entry describing the decision. Audit failures never change the view.
func (e *Engine) Decide(ctx context.Context, id *identity.Identity, patientID int64) View {
	start := time.Now()
	if id == nil {
		id = &identity.Identity{}
	}

	ctx, span := e.tracer.Start(ctx, "access.decide")
	defer span.End()
	span.SetAttributes(tracing.Actor(id.Username, id.Role.String())...)
	span.SetAttributes(tracing.AttrPatientID.Int64(patientID))

	view := e.evaluate(ctx, id, patientID)
	view.PatientID = patientID

	span.SetAttributes(
		tracing.AttrViewKind.String(view.Kind.String()),
		tracing.AttrGranted.Bool(view.Granted()),
		tracing.AttrAuditAction.String(string(view.Action)),
	)

	if view.Action != "" {
		e.sink.Record(ctx, audit.Entry{
			ActorID:   id.ID,
			ActorName: id.Username,
			Action:    view.Action,
			Resource:  audit.ResourcePatients,
			Detail:    view.Detail,
		})
	}

	if e.metrics != nil {
		action := string(view.Action)
		if action == "" {
			action = "none"
		}
		e.metrics.RecordDecision(id.Role.String(), action, time.Since(start))
	}

	e.logger.Debug("access decision",
		"username", id.Username,
		"role", id.Role.String(),
		"patient_id", patientID,
		"kind", view.Kind.String(),
		"granted", view.Granted(),
		"action", view.Action,
	)
	return view
}

func (e *Engine) evaluate(ctx context.Context, id *identity.Identity, patientID int64) View {
	patient, err := e.records.Patient(ctx, patientID)
	if errors.Is(err, records.ErrNotFound) {
		return View{
			Kind:   KindNotFound,
			Action: audit.ActionReadFail,
			Detail: fmt.Sprintf("Invalid ID %d", patientID),
		}
	}
	if err != nil {
		return e.lookupFailed(patientID, "patient", err)
	}

	p, ok := policies[id.Role]
	if !ok {
		p = (*Engine).denyInsufficient
	}
	return p(e, ctx, Request{Identity: id, PatientID: patientID, Patient: patient})
}

func (e *Engine) doctorView(ctx context.Context, req Request) View {
	if _, err := e.records.DoctorByEmail(ctx, req.Identity.Email); err != nil {
		if errors.Is(err, records.ErrNotFound) {
			return View{
				Kind:   KindError,
				Reason: ReasonNoStaffRecord,
				Action: audit.ActionAccessDenied,
				Detail: fmt.Sprintf("Doctor role without staff record attempted read of ID %d", req.PatientID),
			}
		}
		return e.lookupFailed(req.PatientID, "staff", err)
	}

	treatments, err := e.records.Treatments(ctx, req.PatientID)
	if err != nil {
		return e.lookupFailed(req.PatientID, "treatments", err)
	}
	descriptions := make([]string, 0, len(treatments))
	for _, t := range treatments {
		descriptions = append(descriptions, t.Description)
	}

	return View{
		Kind:       KindFull,
		FirstName:  req.Patient.FirstName,
		LastName:   req.Patient.LastName,
		SSN:        orNotAvailable(req.Patient.SSN),
		Treatments: descriptions,
		Action:     audit.ActionReadSensitive,
		Detail:     fmt.Sprintf("Viewed full record ID %d", req.PatientID),
	}
}

func (e *Engine) nurseView(ctx context.Context, req Request) View {
	return View{
		Kind:                 KindMasked,
		FirstName:            req.Patient.FirstName,
		LastName:             req.Patient.LastName,
		SSN:                  MaskSSN(req.Patient.SSN),
		TreatmentsRestricted: true,
		Action:               audit.ActionReadPartial,
		Detail:               fmt.Sprintf("Viewed masked record ID %d", req.PatientID),
	}
}

func (e *Engine) adminView(ctx context.Context, req Request) View {
	return View{
		Kind:   KindExistence,
		Action: audit.ActionAccessAttempt,
		Detail: "Admin accessed patient view",
	}
}

// complianceView denies the etl_service role without an audit entry.
func (e *Engine) complianceView(ctx context.Context, req Request) View {
	return View{Kind: KindDenied, Reason: ReasonCompliance}
}

func (e *Engine) patientView(ctx context.Context, req Request) View {
	own, err := e.records.PatientByEmail(ctx, req.Identity.Email)
	if err != nil && !errors.Is(err, records.ErrNotFound) {
		return e.lookupFailed(req.PatientID, "own record", err)
	}
	if own == nil || own.ID != req.PatientID {
		return View{
			Kind:   KindDenied,
			Reason: ReasonNotOwner,
			Action: audit.ActionAccessDenied,
			Detail: fmt.Sprintf("Patient attempted to view other record ID %d", req.PatientID),
		}
	}
	return View{
		Kind:      KindOwn,
		FirstName: req.Patient.FirstName,
		LastName:  req.Patient.LastName,
		Email:     req.Patient.Email,
		Phone:     orNotAvailable(req.Patient.Phone),
		Action:    audit.ActionReadOwn,
		Detail:    fmt.Sprintf("Patient viewed own record ID %d", req.PatientID),
	}
}

func (e *Engine) denyInsufficient(ctx context.Context, req Request) View {
	return View{
		Kind:   KindDenied,
		Reason: ReasonInsufficientRole,
		Action: audit.ActionAccessDenied,
		Detail: fmt.Sprintf("Role '%s' attempted unauthorized read.", req.Identity.Role.String()),
	}
}

func (e *Engine) lookupFailed(patientID int64, what string, err error) View {
	e.logger.Error("record lookup failed", "patient_id", patientID, "lookup", what, "error", err)
	return View{
		Kind:   KindError,
		Reason: ReasonLookupFailed,
		Action: audit.ActionReadFail,
		Detail: fmt.Sprintf("Lookup failed for ID %d", patientID),
	}
}

// MaskSSN keeps the last four characters of ssn behind the fixed mask
// "***-**-". An empty ssn yields NotAvailable.
func MaskSSN(ssn string) string {
	ssn = strings.TrimSpace(ssn)
	if ssn == "" {
		return NotAvailable
	}
	if len(ssn) > 4 {
		ssn = ssn[len(ssn)-4:]
	}
	return "***-**-" + ssn
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotAvailable
	}
	return s
}
