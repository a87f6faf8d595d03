// Package logging configures the process-wide slog logger.
//
// Setup installs a JSON or text handler at the configured level. Two
// wrappers sit in front of it:
//
//   - the session and actor stored with WithSession and WithActor are added
//     to every record logged through a *Context method;
//   - with RedactPII set, attributes named like ssn, email, phone or
//     password are masked, and string values are scrubbed of SSN, email and
//     phone patterns.
//
// Components keep using slog.Default().With("component", ...) and inherit
// the installed handler.
//
//	logging.Setup(logging.Config{Level: "info", Format: "json", RedactPII: true})
//	ctx = logging.WithSession(ctx, sessionID)
//	slog.InfoContext(ctx, "console login", "username", "dr_house")
package logging
