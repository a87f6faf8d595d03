// Package access decides what a resolved identity may see of one patient
// record.
//
// Decide looks the patient up first, then dispatches on the identity's role
// through a policy table. Each policy returns a structured View: its Kind,
// an optional Reason, the projected fields and the audit action and detail
// describing the decision. The engine writes that audit entry, so every
// branch produces exactly one entry, except etl_service which is denied
// silently.
//
// Views carry no presentation. The render subpackage turns them into the
// console and world chat strings.
package access
