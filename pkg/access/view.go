package access

import "mercator-hq/wardgate/pkg/audit"

// Kind classifies a View.
type Kind int

const (
	// KindFull is the unmasked doctor view.
	KindFull Kind = iota + 1
	// KindMasked is the nurse view: masked ssn, restricted treatments.
	KindMasked
	// KindExistence confirms the record exists and nothing else.
	KindExistence
	// KindOwn is a patient's view of their own demographics.
	KindOwn
	// KindDenied carries no patient data; see Reason.
	KindDenied
	// KindNotFound means the patient id does not exist.
	KindNotFound
	// KindError means the decision could not be completed; see Reason.
	KindError
)

var kindNames = map[Kind]string{
	KindFull:      "full",
	KindMasked:    "masked",
	KindExistence: "existence",
	KindOwn:       "own",
	KindDenied:    "denied",
	KindNotFound:  "not_found",
	KindError:     "error",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Reason explains a KindDenied or KindError view.
type Reason string

const (
	ReasonCompliance       Reason = "compliance_role"
	ReasonNotOwner         Reason = "not_owner"
	ReasonInsufficientRole Reason = "insufficient_role"
	ReasonNoStaffRecord    Reason = "no_staff_record"
	ReasonLookupFailed     Reason = "lookup_failed"
)

// NotAvailable is shown for absent optional fields.
const NotAvailable = "N/A"

// View is the role-scoped projection of one patient record.
type View struct {
	Kind      Kind   `json:"kind"`
	Reason    Reason `json:"reason,omitempty"`
	PatientID int64  `json:"patient_id"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`

	// SSN is unmasked for KindFull, masked for KindMasked, NotAvailable
	// when absent.
	SSN string `json:"ssn,omitempty"`

	// Treatments lists descriptions for KindFull. Empty means none.
	Treatments []string `json:"treatments,omitempty"`

	// TreatmentsRestricted is set when treatments exist but are withheld.
	TreatmentsRestricted bool `json:"treatments_restricted,omitempty"`

	// Action and Detail describe the audit entry written for this view.
	// Action is empty when the decision is not audited.
	Action audit.Action `json:"action,omitempty"`
	Detail string       `json:"detail,omitempty"`
}

// Granted reports whether the view carries patient data.
func (v View) Granted() bool {
	switch v.Kind {
	case KindFull, KindMasked, KindExistence, KindOwn:
		return true
	}
	return false
}
