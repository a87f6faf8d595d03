package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys. Usernames are recorded, patient data never is.
const (
	AttrActor          = attribute.Key("wardgate.actor")
	AttrRole           = attribute.Key("wardgate.role")
	AttrPatientID      = attribute.Key("wardgate.patient_id")
	AttrViewKind       = attribute.Key("wardgate.access.kind")
	AttrGranted        = attribute.Key("wardgate.access.granted")
	AttrAuditAction    = attribute.Key("wardgate.audit.action")
	AttrZoneOutcome    = attribute.Key("wardgate.zone.outcome")
	AttrDoor           = attribute.Key("wardgate.zone.door")
	AttrEventKind      = attribute.Key("wardgate.event.kind")
	AttrEventCount     = attribute.Key("wardgate.event.count")
	AttrOnboardStep    = attribute.Key("wardgate.onboarding.step")
	AttrOnboardOutcome = attribute.Key("wardgate.onboarding.outcome")
)

// Actor returns the actor and role attributes.
func Actor(username, role string) []attribute.KeyValue {
	return []attribute.KeyValue{
		AttrActor.String(username),
		AttrRole.String(role),
	}
}
