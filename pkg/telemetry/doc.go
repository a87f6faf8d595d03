// Package telemetry groups wardgate's observability packages.
//
//   - logging: slog setup with PII redaction and session/actor context
//   - metrics: Prometheus collector for access, identity and storage events
//   - health: liveness and readiness checks served next to /metrics
//
// Patient identifiers, email addresses and phone numbers appear in audit
// details and user input; with telemetry.logging.redact_pii enabled they
// are masked before any log line is written.
package telemetry
