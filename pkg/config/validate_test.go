package config

import (
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Config)
		errorField string
	}{
		{
			name:       "unknown driver",
			mutate:     func(c *Config) { c.Database.Driver = "postgres" },
			errorField: "database.driver",
		},
		{
			name:       "negative busy timeout",
			mutate:     func(c *Config) { c.Database.BusyTimeout = -1 },
			errorField: "database.busy_timeout",
		},
		{
			name:       "async without buffer",
			mutate:     func(c *Config) { c.Audit.AsyncBuffer = -1 },
			errorField: "audit.async_buffer",
		},
		{
			name:       "bcrypt cost too low",
			mutate:     func(c *Config) { c.Security.BcryptCost = 2 },
			errorField: "security.bcrypt_cost",
		},
		{
			name:       "bcrypt cost too high",
			mutate:     func(c *Config) { c.Security.BcryptCost = 40 },
			errorField: "security.bcrypt_cost",
		},
		{
			name:       "malformed default dob",
			mutate:     func(c *Config) { c.Onboarding.DefaultDOB = "01/05/2004" },
			errorField: "onboarding.default_dob",
		},
		{
			name:       "unknown session backend",
			mutate:     func(c *Config) { c.Onboarding.SessionBackend = "etcd" },
			errorField: "onboarding.session_backend",
		},
		{
			name: "redis backend without address",
			mutate: func(c *Config) {
				c.Onboarding.SessionBackend = "redis"
				c.Onboarding.Redis.Address = ""
			},
			errorField: "onboarding.redis.address",
		},
		{
			name:       "world address without port",
			mutate:     func(c *Config) { c.World.Address = "localhost" },
			errorField: "world.address",
		},
		{
			name:       "zero poll interval",
			mutate:     func(c *Config) { c.World.PollInterval = 0 },
			errorField: "world.poll_interval",
		},
		{
			name:       "no doors",
			mutate:     func(c *Config) { c.World.Doors = nil },
			errorField: "world.doors",
		},
		{
			name:       "door on terminal",
			mutate:     func(c *Config) { c.World.Doors = append(c.World.Doors, DefaultTerminal) },
			errorField: "world.doors[2]",
		},
		{
			name:       "malformed cron schedule",
			mutate:     func(c *Config) { c.Backup.Schedule = "every night" },
			errorField: "backup.schedule",
		},
		{
			name:       "empty service account",
			mutate:     func(c *Config) { c.Backup.ServiceAccount = "" },
			errorField: "backup.service_account",
		},
		{
			name:       "unknown log level",
			mutate:     func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			errorField: "telemetry.logging.level",
		},
		{
			name:       "unknown log format",
			mutate:     func(c *Config) { c.Telemetry.Logging.Format = "xml" },
			errorField: "telemetry.logging.format",
		},
		{
			name: "relative metrics path",
			mutate: func(c *Config) {
				c.Telemetry.Metrics.Enabled = true
				c.Telemetry.Metrics.Path = "metrics"
			},
			errorField: "telemetry.metrics.path",
		},
		{
			name:       "unknown sampler",
			mutate:     func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			errorField: "telemetry.tracing.sampler",
		},
		{
			name:       "sample ratio above one",
			mutate:     func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 },
			errorField: "telemetry.tracing.sample_ratio",
		},
		{
			name: "tracing endpoint without port",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = "collector"
			},
			errorField: "telemetry.tracing.endpoint",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.errorField)
			}

			verr := err.(ValidationError)
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.errorField {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected error for field %q, got errors: %v", tt.errorField, verr.Errors)
			}
		})
	}
}

func TestValidate_SQLite3DriverAccepted(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "sqlite3"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected sqlite3 driver to be accepted, got %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      ValidationError
		contains string
	}{
		{
			name:     "empty errors",
			err:      ValidationError{Errors: []FieldError{}},
			contains: "configuration validation failed",
		},
		{
			name: "single error",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "world.address", Message: "required"},
				},
			},
			contains: "world.address",
		},
		{
			name: "multiple errors",
			err: ValidationError{
				Errors: []FieldError{
					{Field: "world.address", Message: "required"},
					{Field: "backup.dir", Message: "required"},
				},
			},
			contains: "2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			if !strings.Contains(errMsg, tt.contains) {
				t.Errorf("expected error message to contain %q, got: %s", tt.contains, errMsg)
			}
		})
	}
}
