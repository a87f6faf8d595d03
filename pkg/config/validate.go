package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "world.address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateAudit(&cfg.Audit)...)
	errs = append(errs, validateSecurity(&cfg.Security)...)
	errs = append(errs, validateOnboarding(&cfg.Onboarding)...)
	errs = append(errs, validateWorld(&cfg.World)...)
	errs = append(errs, validateBackup(&cfg.Backup)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateDatabase validates database configuration.
func validateDatabase(cfg *DatabaseConfig) []FieldError {
	var errs []FieldError

	switch cfg.Driver {
	case "sqlite", "sqlite3":
	case "":
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: "driver is required",
		})
	default:
		errs = append(errs, FieldError{
			Field:   "database.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.Driver),
		})
	}

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "database.path",
			Message: "database path is required",
		})
	}
	if cfg.MaxOpenConns < 0 {
		errs = append(errs, FieldError{
			Field:   "database.max_open_conns",
			Message: "max open connections must be non-negative",
		})
	}
	if cfg.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "database.busy_timeout",
			Message: "busy timeout must be positive",
		})
	}

	return errs
}

// validateAudit validates audit configuration.
func validateAudit(cfg *AuditConfig) []FieldError {
	var errs []FieldError

	if Bool(cfg.Async, DefaultAuditAsync) && cfg.AsyncBuffer <= 0 {
		errs = append(errs, FieldError{
			Field:   "audit.async_buffer",
			Message: "async buffer must be positive when async recording is enabled",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.MaxDetailLength < 0 {
		errs = append(errs, FieldError{
			Field:   "audit.max_detail_length",
			Message: "max detail length must be non-negative",
		})
	}

	return errs
}

// validateSecurity validates security configuration.
func validateSecurity(cfg *SecurityConfig) []FieldError {
	var errs []FieldError

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, FieldError{
			Field:   "security.bcrypt_cost",
			Message: fmt.Sprintf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost),
		})
	}

	return errs
}

// validateOnboarding validates onboarding configuration.
func validateOnboarding(cfg *OnboardingConfig) []FieldError {
	var errs []FieldError

	if _, err := time.Parse(time.DateOnly, cfg.DefaultDOB); err != nil {
		errs = append(errs, FieldError{
			Field:   "onboarding.default_dob",
			Message: fmt.Sprintf("invalid date %q: must be YYYY-MM-DD", cfg.DefaultDOB),
		})
	}

	switch cfg.SessionBackend {
	case "memory":
	case "redis":
		if cfg.Redis.Address == "" {
			errs = append(errs, FieldError{
				Field:   "onboarding.redis.address",
				Message: "redis address is required when session backend is redis",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "onboarding.session_backend",
			Message: fmt.Sprintf("invalid session backend %q: must be 'memory' or 'redis'", cfg.SessionBackend),
		})
	}

	if cfg.SessionTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "onboarding.session_ttl",
			Message: "session TTL must be positive",
		})
	}
	if cfg.Redis.DB < 0 {
		errs = append(errs, FieldError{
			Field:   "onboarding.redis.db",
			Message: "redis db must be non-negative",
		})
	}

	return errs
}

// validateWorld validates world configuration.
func validateWorld(cfg *WorldConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.Address); err != nil {
		errs = append(errs, FieldError{
			Field:   "world.address",
			Message: fmt.Sprintf("invalid address %q: must be host:port", cfg.Address),
		})
	}
	if cfg.DialTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "world.dial_timeout",
			Message: "dial timeout must be positive",
		})
	}
	if cfg.IOTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "world.io_timeout",
			Message: "io timeout must be positive",
		})
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "world.poll_interval",
			Message: "poll interval must be positive",
		})
	}
	if cfg.DoorCloseDelay < 0 {
		errs = append(errs, FieldError{
			Field:   "world.door_close_delay",
			Message: "door close delay must be non-negative",
		})
	}
	if cfg.PatientID <= 0 {
		errs = append(errs, FieldError{
			Field:   "world.patient_id",
			Message: "patient id must be positive",
		})
	}
	if len(cfg.Doors) == 0 {
		errs = append(errs, FieldError{
			Field:   "world.doors",
			Message: "at least one door segment is required",
		})
	}
	if cfg.Terminal != nil {
		for i, d := range cfg.Doors {
			if d == *cfg.Terminal {
				errs = append(errs, FieldError{
					Field:   fmt.Sprintf("world.doors[%d]", i),
					Message: "door segment overlaps the terminal",
				})
			}
		}
	}

	return errs
}

// validateBackup validates backup configuration.
func validateBackup(cfg *BackupConfig) []FieldError {
	var errs []FieldError

	if cfg.Dir == "" {
		errs = append(errs, FieldError{
			Field:   "backup.dir",
			Message: "backup directory is required",
		})
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "backup.schedule",
			Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Schedule, err),
		})
	}
	if cfg.ServiceAccount == "" {
		errs = append(errs, FieldError{
			Field:   "backup.service_account",
			Message: "service account is required",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with / when metrics are enabled",
			})
		}
		if _, _, err := net.SplitHostPort(cfg.Metrics.ListenAddress); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.listen_address",
				Message: fmt.Sprintf("invalid listen address %q", cfg.Metrics.ListenAddress),
			})
		}
	}

	switch cfg.Tracing.Sampler {
	case "always", "never":
	case "ratio":
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %v", cfg.Tracing.SampleRatio),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Tracing.Endpoint); err != nil {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: fmt.Sprintf("invalid collector endpoint %q", cfg.Tracing.Endpoint),
			})
		}
	}

	return errs
}
