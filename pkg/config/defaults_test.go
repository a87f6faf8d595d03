package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"database.driver", cfg.Database.Driver, DefaultDatabaseDriver},
		{"database.max_open_conns", cfg.Database.MaxOpenConns, DefaultDatabaseMaxOpenConns},
		{"database.busy_timeout", cfg.Database.BusyTimeout, DefaultDatabaseBusyTimeout},
		{"database.create_schema", Bool(cfg.Database.CreateSchema, false), true},
		{"audit.enabled", Bool(cfg.Audit.Enabled, false), true},
		{"audit.async", Bool(cfg.Audit.Async, false), true},
		{"audit.async_buffer", cfg.Audit.AsyncBuffer, DefaultAuditAsyncBuffer},
		{"audit.max_detail_length", cfg.Audit.MaxDetailLength, DefaultAuditMaxDetailLength},
		{"security.bcrypt_cost", cfg.Security.BcryptCost, DefaultBcryptCost},
		{"onboarding.default_dob", cfg.Onboarding.DefaultDOB, "2004-05-01"},
		{"onboarding.session_backend", cfg.Onboarding.SessionBackend, "memory"},
		{"onboarding.session_ttl", cfg.Onboarding.SessionTTL, 10 * time.Minute},
		{"onboarding.redis.address", cfg.Onboarding.Redis.Address, "localhost:6379"},
		{"onboarding.redis.key_prefix", cfg.Onboarding.Redis.KeyPrefix, "wardgate:onboarding:"},
		{"world.address", cfg.World.Address, "localhost:4711"},
		{"world.poll_interval", cfg.World.PollInterval, 200 * time.Millisecond},
		{"world.door_close_delay", cfg.World.DoorCloseDelay, 120 * time.Millisecond},
		{"world.patient_id", cfg.World.PatientID, int64(1)},
		{"backup.dir", cfg.Backup.Dir, "backups"},
		{"backup.schedule", cfg.Backup.Schedule, "0 3 * * *"},
		{"backup.service_account", cfg.Backup.ServiceAccount, "etl_service"},
		{"telemetry.logging.level", cfg.Telemetry.Logging.Level, "info"},
		{"telemetry.logging.format", cfg.Telemetry.Logging.Format, "text"},
		{"telemetry.logging.redact_pii", Bool(cfg.Telemetry.Logging.RedactPII, false), true},
		{"telemetry.metrics.enabled", cfg.Telemetry.Metrics.Enabled, false},
		{"telemetry.metrics.path", cfg.Telemetry.Metrics.Path, "/metrics"},
		{"telemetry.tracing.enabled", cfg.Telemetry.Tracing.Enabled, false},
		{"telemetry.tracing.sampler", cfg.Telemetry.Tracing.Sampler, "ratio"},
		{"telemetry.tracing.sample_ratio", cfg.Telemetry.Tracing.SampleRatio, 0.1},
		{"telemetry.tracing.service_name", cfg.Telemetry.Tracing.ServiceName, "wardgate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	off := false
	cfg := &Config{
		Database: DatabaseConfig{Path: "/var/lib/ward.db"},
		Audit:    AuditConfig{Async: &off},
		World: WorldConfig{
			Terminal: &Position{X: 1, Y: 2, Z: 3},
			Doors:    []Position{{X: 9, Y: 9, Z: 9}},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Database.Path != "/var/lib/ward.db" {
		t.Errorf("database path overwritten: %q", cfg.Database.Path)
	}
	if Bool(cfg.Audit.Async, true) {
		t.Error("explicit audit.async=false overwritten")
	}
	if *cfg.World.Terminal != (Position{X: 1, Y: 2, Z: 3}) {
		t.Errorf("terminal overwritten: %v", *cfg.World.Terminal)
	}
	if len(cfg.World.Doors) != 1 {
		t.Errorf("doors overwritten: %v", cfg.World.Doors)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	first := *cfg
	ApplyDefaults(cfg)

	if cfg.Database != first.Database {
		t.Errorf("database section changed on second pass")
	}
	if cfg.Onboarding != first.Onboarding {
		t.Errorf("onboarding section changed on second pass")
	}
	if cfg.Backup != first.Backup {
		t.Errorf("backup section changed on second pass")
	}
}
