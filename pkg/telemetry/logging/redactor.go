package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redactor masks personally identifiable information in log attributes.
// Sensitive keys are masked whatever their value; other string values are
// scrubbed of anything that looks like an SSN, email address or phone
// number.
type Redactor struct {
	patterns []redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Pattern names.
const (
	PatternEmail    = "email"
	PatternSSN      = "ssn"
	PatternPhone    = "phone"
	PatternPassword = "password"
)

// Masked replaces the value of a sensitive key.
const Masked = "***"

var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"ssn", "social_security",
	"email", "phone",
	"secret", "token",
}

// NewRedactor creates a Redactor with the built-in patterns. The SSN
// pattern runs before the phone pattern so that 123-45-6789 is reported as
// an SSN.
func NewRedactor() *Redactor {
	return &Redactor{patterns: []redactPattern{
		{
			name:        PatternPassword,
			regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)[:=]\s*\S+`),
			replacement: "$1: " + Masked,
		},
		{
			name:        PatternEmail,
			regex:       regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
			replacement: "***@***",
		},
		{
			name:        PatternSSN,
			regex:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			replacement: "***-**-****",
		},
		{
			name:        PatternPhone,
			regex:       regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
			replacement: "***-***-****",
		},
	}}
}

// RedactString scrubs value of every pattern match.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && (a.Key == slog.TimeKey || a.Key == slog.LevelKey || a.Key == slog.SourceKey) {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, Masked)
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

// IsSensitiveKey reports whether an attribute key names PII or a secret.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// RedactEmail redacts an email address partially (shows first char and domain).
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}
	if len(parts[0]) == 0 {
		return "***@" + parts[1]
	}
	return string(parts[0][0]) + "***@" + parts[1]
}
