// Package render formats access views as the single-line messages shown on
// the console and in world chat.
package render

import (
	"fmt"
	"strings"

	"mercator-hq/wardgate/pkg/access"
)

// Text returns the user-facing line for v.
func Text(v access.View) string {
	switch v.Kind {
	case access.KindFull:
		tx := "None"
		if len(v.Treatments) > 0 {
			tx = strings.Join(v.Treatments, ", ")
		}
		return fmt.Sprintf("DR VIEW: %s %s | SSN: %s | Tx: %s", v.FirstName, v.LastName, v.SSN, tx)

	case access.KindMasked:
		return fmt.Sprintf("NURSE VIEW: %s %s | SSN: %s | Tx: [RESTRICTED]", v.FirstName, v.LastName, v.SSN)

	case access.KindExistence:
		return fmt.Sprintf("ADMIN VIEW: Patient ID %d exists. Clinical Data Access: DENIED.", v.PatientID)

	case access.KindOwn:
		return fmt.Sprintf("YOUR RECORD: %s %s | Email: %s | Phone: %s", v.FirstName, v.LastName, v.Email, v.Phone)

	case access.KindDenied:
		switch v.Reason {
		case access.ReasonCompliance:
			return "ACCESS DENIED: Compliance role has no clinical privileges."
		case access.ReasonNotOwner:
			return "ACCESS DENIED: You can only view your own medical records."
		default:
			return "ACCESS DENIED: Insufficient Privileges."
		}

	case access.KindNotFound:
		return "Error: Patient record not found."

	case access.KindError:
		if v.Reason == access.ReasonNoStaffRecord {
			return "ERROR: User has Doctor role but no HR record found."
		}
		return "Error: Record lookup failed."
	}
	return "Error: Record lookup failed."
}
