package config

import "time"

// Default values for configuration fields.
const (
	// Database defaults
	DefaultDatabaseDriver       = "sqlite"
	DefaultDatabasePath         = "hospital_mc.db"
	DefaultDatabaseMaxOpenConns = 1
	DefaultDatabaseBusyTimeout  = 5 * time.Second
	DefaultDatabaseCreateSchema = true

	// Audit defaults
	DefaultAuditEnabled         = true
	DefaultAuditAsync           = true
	DefaultAuditAsyncBuffer     = 1000
	DefaultAuditWriteTimeout    = 5 * time.Second
	DefaultAuditMaxDetailLength = 500

	// Security defaults
	DefaultBcryptCost = 10

	// Onboarding defaults
	DefaultOnboardingDOB    = "2004-05-01"
	DefaultSessionBackend   = "memory"
	DefaultSessionTTL       = 10 * time.Minute
	DefaultRedisAddress     = "localhost:6379"
	DefaultRedisKeyPrefix   = "wardgate:onboarding:"
	DefaultRedisDialTimeout = 3 * time.Second

	// World defaults
	DefaultWorldAddress        = "localhost:4711"
	DefaultWorldDialTimeout    = 5 * time.Second
	DefaultWorldIOTimeout      = 5 * time.Second
	DefaultWorldPollInterval   = 200 * time.Millisecond
	DefaultWorldDoorCloseDelay = 120 * time.Millisecond
	DefaultWorldPatientID      = int64(1)

	// Backup defaults
	DefaultBackupDir            = "backups"
	DefaultBackupSchedule       = "0 3 * * *"
	DefaultBackupServiceAccount = "etl_service"

	// Telemetry defaults
	DefaultLoggingLevel         = "info"
	DefaultLoggingFormat        = "text"
	DefaultLoggingRedactPII     = true
	DefaultMetricsListenAddress = "127.0.0.1:9090"
	DefaultMetricsPath          = "/metrics"
	DefaultTracingSampler       = "ratio"
	DefaultTracingSampleRatio   = 0.1
	DefaultTracingEndpoint      = "localhost:4317"
	DefaultTracingTimeout       = 10 * time.Second
	DefaultTracingServiceName   = "wardgate"
)

// DefaultTerminal is the records terminal of the reference map.
var DefaultTerminal = Position{X: 76, Y: 11, Z: 48}

// DefaultDoors are the ward door segments of the reference map.
var DefaultDoors = []Position{{X: 106, Y: 11, Z: 38}, {X: 106, Y: 11, Z: 37}}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values; unset boolean
// pointers receive their default. This function is idempotent.
func ApplyDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDatabaseDriver
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDatabasePath
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDatabaseMaxOpenConns
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = DefaultDatabaseBusyTimeout
	}
	setBool(&cfg.Database.CreateSchema, DefaultDatabaseCreateSchema)

	// Audit defaults
	setBool(&cfg.Audit.Enabled, DefaultAuditEnabled)
	setBool(&cfg.Audit.Async, DefaultAuditAsync)
	if cfg.Audit.AsyncBuffer == 0 {
		cfg.Audit.AsyncBuffer = DefaultAuditAsyncBuffer
	}
	if cfg.Audit.WriteTimeout == 0 {
		cfg.Audit.WriteTimeout = DefaultAuditWriteTimeout
	}
	if cfg.Audit.MaxDetailLength == 0 {
		cfg.Audit.MaxDetailLength = DefaultAuditMaxDetailLength
	}

	// Security defaults
	if cfg.Security.BcryptCost == 0 {
		cfg.Security.BcryptCost = DefaultBcryptCost
	}

	// Onboarding defaults
	if cfg.Onboarding.DefaultDOB == "" {
		cfg.Onboarding.DefaultDOB = DefaultOnboardingDOB
	}
	if cfg.Onboarding.SessionBackend == "" {
		cfg.Onboarding.SessionBackend = DefaultSessionBackend
	}
	if cfg.Onboarding.SessionTTL == 0 {
		cfg.Onboarding.SessionTTL = DefaultSessionTTL
	}
	if cfg.Onboarding.Redis.Address == "" {
		cfg.Onboarding.Redis.Address = DefaultRedisAddress
	}
	if cfg.Onboarding.Redis.KeyPrefix == "" {
		cfg.Onboarding.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Onboarding.Redis.DialTimeout == 0 {
		cfg.Onboarding.Redis.DialTimeout = DefaultRedisDialTimeout
	}

	// World defaults
	if cfg.World.Address == "" {
		cfg.World.Address = DefaultWorldAddress
	}
	if cfg.World.DialTimeout == 0 {
		cfg.World.DialTimeout = DefaultWorldDialTimeout
	}
	if cfg.World.IOTimeout == 0 {
		cfg.World.IOTimeout = DefaultWorldIOTimeout
	}
	if cfg.World.PollInterval == 0 {
		cfg.World.PollInterval = DefaultWorldPollInterval
	}
	if cfg.World.DoorCloseDelay == 0 {
		cfg.World.DoorCloseDelay = DefaultWorldDoorCloseDelay
	}
	if cfg.World.PatientID == 0 {
		cfg.World.PatientID = DefaultWorldPatientID
	}
	if cfg.World.Terminal == nil {
		t := DefaultTerminal
		cfg.World.Terminal = &t
	}
	if cfg.World.Doors == nil {
		cfg.World.Doors = append([]Position(nil), DefaultDoors...)
	}

	// Backup defaults
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = DefaultBackupDir
	}
	if cfg.Backup.Schedule == "" {
		cfg.Backup.Schedule = DefaultBackupSchedule
	}
	if cfg.Backup.ServiceAccount == "" {
		cfg.Backup.ServiceAccount = DefaultBackupServiceAccount
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	setBool(&cfg.Telemetry.Logging.RedactPII, DefaultLoggingRedactPII)
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == DefaultTracingSampler {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func setBool(dst **bool, def bool) {
	if *dst == nil {
		v := def
		*dst = &v
	}
}
