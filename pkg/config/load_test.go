package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wardgate.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "/tmp/hospital.db"
onboarding:
  session_backend: "redis"
  redis:
    address: "redis:6379"
    db: 2
world:
  address: "mc.local:4711"
  poll_interval: 500ms
  terminal: {x: 10, y: 20, z: 30}
  doors:
    - {x: 40, y: 20, z: 30}
backup:
  schedule: "*/15 * * * *"
telemetry:
  logging:
    level: "debug"
    format: "json"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Database.Path != "/tmp/hospital.db" {
		t.Errorf("expected database path %q, got %q", "/tmp/hospital.db", cfg.Database.Path)
	}
	if cfg.Onboarding.SessionBackend != "redis" || cfg.Onboarding.Redis.DB != 2 {
		t.Errorf("unexpected onboarding section: %+v", cfg.Onboarding)
	}
	if cfg.World.PollInterval != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", cfg.World.PollInterval)
	}
	if *cfg.World.Terminal != (Position{X: 10, Y: 20, Z: 30}) {
		t.Errorf("unexpected terminal: %v", *cfg.World.Terminal)
	}
	if len(cfg.World.Doors) != 1 || cfg.World.Doors[0] != (Position{X: 40, Y: 20, Z: 30}) {
		t.Errorf("unexpected doors: %v", cfg.World.Doors)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}

	// Untouched sections fall back to defaults.
	if cfg.Backup.ServiceAccount != DefaultBackupServiceAccount {
		t.Errorf("expected default service account, got %q", cfg.Backup.ServiceAccount)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "world: [unclosed\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for malformed YAML")
	}
	if !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
onboarding:
  session_backend: "etcd"
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if verr.Errors[0].Field != "onboarding.session_backend" {
		t.Errorf("expected onboarding.session_backend error, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
database:
  path: "file.db"
world:
  address: "file:4711"
`)

	t.Setenv("WARDGATE_DATABASE_PATH", "env.db")
	t.Setenv("WARDGATE_WORLD_POLL_INTERVAL", "1s")
	t.Setenv("WARDGATE_WORLD_PATIENT_ID", "7")
	t.Setenv("WARDGATE_AUDIT_ASYNC", "false")
	t.Setenv("WARDGATE_ONBOARDING_REDIS_ADDRESS", "cache:6380")
	t.Setenv("WARDGATE_TELEMETRY_METRICS_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}

	if cfg.Database.Path != "env.db" {
		t.Errorf("expected database path from env, got %q", cfg.Database.Path)
	}
	if cfg.World.Address != "file:4711" {
		t.Errorf("expected world address from file, got %q", cfg.World.Address)
	}
	if cfg.World.PollInterval != time.Second {
		t.Errorf("expected poll interval 1s, got %v", cfg.World.PollInterval)
	}
	if cfg.World.PatientID != 7 {
		t.Errorf("expected patient id 7, got %d", cfg.World.PatientID)
	}
	if Bool(cfg.Audit.Async, true) {
		t.Error("expected audit.async=false from env")
	}
	if cfg.Onboarding.Redis.Address != "cache:6380" {
		t.Errorf("expected redis address from env, got %q", cfg.Onboarding.Redis.Address)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics enabled from env")
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("WARDGATE_SECURITY_BCRYPT_COST", "12")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() failed: %v", err)
	}
	if cfg.Security.BcryptCost != 12 {
		t.Errorf("expected bcrypt cost 12, got %d", cfg.Security.BcryptCost)
	}
	if cfg.Database.Path != DefaultDatabasePath {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
}

func TestLoadConfigWithEnvOverrides_InvalidEnvValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "malformed duration", key: "WARDGATE_WORLD_POLL_INTERVAL", value: "soon"},
		{name: "malformed integer", key: "WARDGATE_WORLD_PATIENT_ID", value: "first"},
		{name: "malformed boolean", key: "WARDGATE_AUDIT_ENABLED", value: "maybe"},
		{name: "invalid after override", key: "WARDGATE_TELEMETRY_LOGGING_LEVEL", value: "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			if _, err := LoadConfigWithEnvOverrides(""); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
