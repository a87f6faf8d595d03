package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/wardgate/pkg/access"
	"mercator-hq/wardgate/pkg/audit/recorder"
	"mercator-hq/wardgate/pkg/audit/storage"
	"mercator-hq/wardgate/pkg/cli"
	"mercator-hq/wardgate/pkg/config"
	"mercator-hq/wardgate/pkg/dispatch"
	"mercator-hq/wardgate/pkg/identity"
	"mercator-hq/wardgate/pkg/onboarding"
	"mercator-hq/wardgate/pkg/store/sqlite"
	"mercator-hq/wardgate/pkg/telemetry/health"
	"mercator-hq/wardgate/pkg/telemetry/logging"
	"mercator-hq/wardgate/pkg/telemetry/metrics"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
	"mercator-hq/wardgate/pkg/world"
)

// app holds the components every database-backed command shares.
type app struct {
	cfg      *config.Config
	store    *sqlite.Store
	audit    *storage.SQLiteStorage
	recorder *recorder.Recorder
	metrics  *metrics.Collector
	tracer   *tracing.Tracer
	health   *health.Checker
}

// loadConfig initializes the global configuration from --config and the
// environment, applies the --log-level override and installs the logger.
func loadConfig() (*config.Config, error) {
	if err := config.Initialize(cfgFile); err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()
	if cfg == nil {
		return nil, cli.NewConfigError("", "configuration not loaded")
	}

	if logLevel != "" {
		if _, err := logging.ParseLevel(logLevel); err != nil {
			return nil, cli.NewConfigError("log-level", err.Error())
		}
		cfg.Telemetry.Logging.Level = logLevel
	}

	if _, err := logging.Setup(loggingConfig(cfg.Telemetry.Logging)); err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	return cfg, nil
}

// newApp loads the configuration, opens the database and starts the audit
// recorder. Close releases them in reverse order.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, storeConfig(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		_ = store.Close()
		return nil, cli.NewConfigError("telemetry.tracing", err.Error())
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
	auditStorage := storage.NewSQLiteStorage(store.DB())
	rec := recorder.NewRecorder(auditStorage, recorderConfig(cfg.Audit)).WithMetrics(collector).WithTracer(tracer)

	checker := health.New(2 * time.Second)
	checker.Register("database", health.PingCheck(store.DB()))

	slog.Debug("database opened",
		"driver", store.Driver(),
		"path", cfg.Database.Path,
		"audit_async", config.Bool(cfg.Audit.Async, config.DefaultAuditAsync),
		"tracing", tracer.Enabled(),
	)

	return &app{
		cfg:      cfg,
		store:    store,
		audit:    auditStorage,
		recorder: rec,
		metrics:  collector,
		tracer:   tracer,
		health:   checker,
	}, nil
}

// Close flushes the audit trail and pending spans, then closes the
// database.
func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		slog.Warn("audit recorder close failed", "error", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tracer.Shutdown(ctx); err != nil {
		slog.Warn("tracer shutdown failed", "error", err)
	}
	if err := a.store.Close(); err != nil {
		slog.Warn("database close failed", "error", err)
	}
}

func (a *app) authenticator() *identity.Authenticator {
	return identity.NewAuthenticator(a.store, a.recorder, a.cfg.Security.BcryptCost).WithObserver(a.metrics)
}

func (a *app) engine() *access.Engine {
	return access.NewEngine(a.store, a.recorder).WithMetrics(a.metrics).WithTracer(a.tracer)
}

func (a *app) registrar() *onboarding.Registrar {
	return onboarding.NewRegistrar(a.store, a.recorder, onboarding.RegistrarConfig{
		BcryptCost: a.cfg.Security.BcryptCost,
		DefaultDOB: a.cfg.Onboarding.DefaultDOB,
	}).WithMetrics(a.metrics).WithTracer(a.tracer)
}

// login authenticates username for a one-shot command. The password is
// prompted for on a terminal and read from the first line of stdin
// otherwise. A failed login is audited and returned as cli.ErrDenied.
func (a *app) login(ctx context.Context, username string) (*identity.Identity, error) {
	if username == "" {
		return nil, cli.NewConfigError("user", "--user is required")
	}
	password, err := cli.ReadPassword(os.Stdin, os.Stderr, fmt.Sprintf("Password for %s: ", username))
	if err != nil {
		return nil, err
	}

	id, err := a.authenticator().Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, identity.ErrAuthFailure) || errors.Is(err, identity.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials for %s", cli.ErrDenied, username)
		}
		return nil, err
	}
	return id, nil
}

// denied wraps an authorization failure so that it exits with ExitDenied.
func denied(err error) error {
	return fmt.Errorf("%w: %v", cli.ErrDenied, err)
}

// serveTelemetry exposes metrics and the health endpoints until ctx is done.
// It does nothing when metrics are disabled.
func (a *app) serveTelemetry(ctx context.Context) {
	go func() {
		err := a.metrics.Serve(ctx, func(mux *http.ServeMux) {
			health.Mount(mux, a.health, versionInfo())
		})
		if err != nil {
			slog.Error("telemetry endpoint failed", "error", err)
		}
	}()
}

// sessionStore builds the onboarding session store. The redis client is
// nil for the memory backend; otherwise the caller closes it.
func sessionStore(ctx context.Context, cfg config.OnboardingConfig) (onboarding.SessionStore, *redis.Client, error) {
	switch cfg.SessionBackend {
	case "redis":
		client := redis.NewClient(redisOptions(cfg.Redis))
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Redis.DialTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
		}
		store := onboarding.NewRedisStore(client, cfg.Redis.KeyPrefix, cfg.SessionTTL)
		n, err := store.Reset(ctx)
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to clear stale onboarding sessions: %w", err)
		}
		if n > 0 {
			slog.Info("stale onboarding sessions cleared", "count", n, "prefix", cfg.Redis.KeyPrefix)
		}
		return store, client, nil
	default:
		return onboarding.NewMemoryStore(cfg.SessionTTL), nil, nil
	}
}

func redisCheck(client *redis.Client) health.CheckFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// sweepSessions removes expired onboarding sessions every interval until
// ctx is done.
func sweepSessions(ctx context.Context, sessions onboarding.SessionStore, interval time.Duration) {
	logger := slog.Default().With("component", "onboarding.sweeper")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.Sweep(ctx)
			if err != nil {
				logger.Warn("session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired onboarding sessions removed", "count", n)
			}
		}
	}
}

func loggingConfig(cfg config.LoggingConfig) logging.Config {
	return logging.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		RedactPII: config.Bool(cfg.RedactPII, config.DefaultLoggingRedactPII),
		Writer:    os.Stderr,
	}
}

func storeConfig(cfg config.DatabaseConfig) *sqlite.Config {
	return &sqlite.Config{
		Driver:       cfg.Driver,
		Path:         cfg.Path,
		MaxOpenConns: cfg.MaxOpenConns,
		BusyTimeout:  cfg.BusyTimeout,
		CreateSchema: config.Bool(cfg.CreateSchema, config.DefaultDatabaseCreateSchema),
	}
}

func recorderConfig(cfg config.AuditConfig) *recorder.Config {
	rc := recorder.DefaultConfig()
	rc.Enabled = config.Bool(cfg.Enabled, config.DefaultAuditEnabled)
	rc.Async = config.Bool(cfg.Async, config.DefaultAuditAsync)
	rc.AsyncBuffer = cfg.AsyncBuffer
	rc.WriteTimeout = cfg.WriteTimeout
	rc.MaxDetailLength = cfg.MaxDetailLength
	return rc
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	}
}

func layoutFromConfig(cfg config.WorldConfig) dispatch.Layout {
	l := dispatch.DefaultLayout()
	if cfg.Terminal != nil {
		l.Terminal = toPos(*cfg.Terminal)
	}
	if len(cfg.Doors) > 0 {
		l.Doors = make([]world.Pos, len(cfg.Doors))
		for i, d := range cfg.Doors {
			l.Doors[i] = toPos(d)
		}
	}
	if cfg.PatientID > 0 {
		l.PatientID = cfg.PatientID
	}
	return l
}

func toPos(p config.Position) world.Pos {
	return world.Pos{X: p.X, Y: p.Y, Z: p.Z}
}
