package config

import "time"

// Config is the root configuration structure for wardgate.
type Config struct {
	// Database configures the hospital SQLite database.
	Database DatabaseConfig `yaml:"database" envPrefix:"DATABASE_"`

	// Audit configures the audit recorder.
	Audit AuditConfig `yaml:"audit" envPrefix:"AUDIT_"`

	// Security configures password hashing.
	Security SecurityConfig `yaml:"security" envPrefix:"SECURITY_"`

	// Onboarding configures patient registration and its session store.
	Onboarding OnboardingConfig `yaml:"onboarding" envPrefix:"ONBOARDING_"`

	// World configures the game-world bridge and the hospital layout.
	World WorldConfig `yaml:"world" envPrefix:"WORLD_"`

	// Backup configures database backups.
	Backup BackupConfig `yaml:"backup" envPrefix:"BACKUP_"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	// Driver is the database/sql driver name.
	// Options: "sqlite" (modernc.org/sqlite, pure Go), "sqlite3" (mattn/go-sqlite3, cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver" env:"DRIVER"`

	// Path is the database file.
	// Default: "hospital_mc.db"
	Path string `yaml:"path" env:"PATH"`

	// MaxOpenConns bounds the connection pool.
	// Default: 1
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`

	// BusyTimeout is how long a writer waits for a lock.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`

	// CreateSchema creates missing tables and seeds roles on startup.
	// Default: true
	CreateSchema *bool `yaml:"create_schema" env:"CREATE_SCHEMA"`
}

// AuditConfig configures the audit recorder.
type AuditConfig struct {
	// Enabled turns audit recording on.
	// Default: true
	Enabled *bool `yaml:"enabled" env:"ENABLED"`

	// Async writes entries from a background worker.
	// Default: true
	Async *bool `yaml:"async" env:"ASYNC"`

	// AsyncBuffer is the queue size in async mode. Entries beyond it are
	// dropped.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer" env:"ASYNC_BUFFER"`

	// WriteTimeout bounds one storage write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// MaxDetailLength truncates the detail column. Zero disables truncation.
	// Default: 500
	MaxDetailLength int `yaml:"max_detail_length" env:"MAX_DETAIL_LENGTH"`
}

// SecurityConfig configures credential handling.
type SecurityConfig struct {
	// BcryptCost is the cost of new password hashes.
	// Default: 10
	BcryptCost int `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// OnboardingConfig configures registration.
type OnboardingConfig struct {
	// DefaultDOB is stored as the date of birth of new patients.
	// Default: "2004-05-01"
	DefaultDOB string `yaml:"default_dob" env:"DEFAULT_DOB"`

	// SessionBackend selects the session store.
	// Options: "memory", "redis"
	// Default: "memory"
	SessionBackend string `yaml:"session_backend" env:"SESSION_BACKEND"`

	// SessionTTL expires abandoned sessions.
	// Default: 10m
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`

	// Redis configures the redis session store.
	Redis RedisConfig `yaml:"redis" envPrefix:"REDIS_"`
}

// RedisConfig configures the redis connection.
type RedisConfig struct {
	// Address is host:port.
	// Default: "localhost:6379"
	Address string `yaml:"address" env:"ADDRESS"`

	// Password authenticates the connection.
	Password string `yaml:"password" env:"PASSWORD"`

	// DB is the logical database number.
	// Default: 0
	DB int `yaml:"db" env:"DB"`

	// KeyPrefix namespaces session keys.
	// Default: "wardgate:onboarding:"
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`

	// DialTimeout bounds the startup ping.
	// Default: 3s
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
}

// WorldConfig configures the world bridge and layout. The layout fields
// are hot-reloaded by the world command.
type WorldConfig struct {
	// Address is the Minecraft-Pi API endpoint.
	// Default: "localhost:4711"
	Address string `yaml:"address" env:"ADDRESS"`

	// DialTimeout bounds the connection attempt.
	// Default: 5s
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`

	// IOTimeout bounds one request/response exchange.
	// Default: 5s
	IOTimeout time.Duration `yaml:"io_timeout" env:"IO_TIMEOUT"`

	// PollInterval is the delay between two event polls.
	// Default: 200ms
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`

	// DoorCloseDelay is the wait before a denied door is closed.
	// Default: 120ms
	DoorCloseDelay time.Duration `yaml:"door_close_delay" env:"DOOR_CLOSE_DELAY"`

	// PatientID is the record shown at the terminal.
	// Default: 1
	PatientID int64 `yaml:"patient_id" env:"PATIENT_ID"`

	// Terminal is the records terminal position.
	// Default: {x: 76, y: 11, z: 48}
	Terminal *Position `yaml:"terminal"`

	// Doors are the ward door segments.
	// Default: [{x: 106, y: 11, z: 38}, {x: 106, y: 11, z: 37}]
	Doors []Position `yaml:"doors"`
}

// Position is a block position.
type Position struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// BackupConfig configures backups.
type BackupConfig struct {
	// Dir is the backup directory.
	// Default: "backups"
	Dir string `yaml:"dir" env:"DIR"`

	// Schedule is a standard cron expression for `backup schedule`.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule" env:"SCHEDULE"`

	// ServiceAccount is the etl_service user scheduled backups run as.
	// Default: "etl_service"
	ServiceAccount string `yaml:"service_account" env:"SERVICE_ACCOUNT"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is the handler format.
	// Options: "json", "text"
	// Default: "text"
	Format string `yaml:"format" env:"FORMAT"`

	// RedactPII masks ssn, email, phone and password attributes.
	// Default: true
	RedactPII *bool `yaml:"redact_pii" env:"REDACT_PII"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled exposes metrics over HTTP.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// ListenAddress is the metrics listener.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`

	// Path is the metrics HTTP path.
	// Default: "/metrics"
	Path string `yaml:"path" env:"PATH"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled exports spans.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Sampler is the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler" env:"SAMPLER"`

	// SampleRatio is the fraction of traces sampled by the "ratio" sampler.
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// Endpoint is the OTLP gRPC collector.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds one export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// ServiceName is the service.name resource attribute.
	// Default: "wardgate"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}

// Bool returns *b, or def when b is nil.
func Bool(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}
