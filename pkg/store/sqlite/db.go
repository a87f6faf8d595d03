// Package sqlite is the relational backend for identities, clinical
// records, patient accounts, user administration and hot backups.
//
// Two drivers are supported: the pure-Go modernc.org/sqlite (driver name
// "sqlite", the default) and the cgo github.com/mattn/go-sqlite3 (driver
// name "sqlite3"). Both are opened with foreign keys enforced and a busy
// timeout; write transactions take the database lock up front.
//
// The schema is fixed and versioned. Open creates missing tables when
// CreateSchema is set, seeds the role reference data and then verifies that
// every table carries the expected columns.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Config.Driver.
const (
	DriverModernc = "sqlite"
	DriverMattn   = "sqlite3"
)

// Config contains configuration for the SQLite store.
type Config struct {
	// Driver selects the database/sql driver.
	// Default: "sqlite"
	Driver string

	// Path is the database file path.
	Path string

	// MaxOpenConns bounds the connection pool.
	// Default: 1
	MaxOpenConns int

	// BusyTimeout is how long a connection waits on a locked database.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// CreateSchema creates missing tables on open.
	// Default: true
	CreateSchema bool
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:       DriverModernc,
		Path:         "hospital_mc.db",
		MaxOpenConns: 1,
		BusyTimeout:  5 * time.Second,
		CreateSchema: true,
	}
}

// Store is the SQLite-backed hospital store.
type Store struct {
	db     *sql.DB
	config *Config
	logger *slog.Logger
}

// Open opens, pings, provisions and verifies the database. Any failure is
// returned and the handle is closed.
func Open(ctx context.Context, config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if strings.TrimSpace(config.Path) == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if config.Driver == "" {
		config.Driver = DriverModernc
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 1
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5 * time.Second
	}

	dsn, err := buildDSN(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	s := &Store{db: db, config: config, logger: logger}

	if config.CreateSchema {
		if err := s.createSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.VerifySchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite store opened",
		"driver", config.Driver,
		"path", config.Path,
		"max_open_conns", config.MaxOpenConns,
	)
	return s, nil
}

// buildDSN returns the driver-specific connection string for config.
func buildDSN(config *Config) (string, error) {
	path := filepath.Clean(config.Path)
	busy := config.BusyTimeout.Milliseconds()

	switch config.Driver {
	case DriverModernc:
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_txlock=immediate", path, busy), nil
	case DriverMattn:
		return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=%d&_txlock=immediate", path, busy), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", config.Driver)
	}
}

// DB returns the underlying handle for components that share it, such as
// the audit storage.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Driver returns the configured driver name.
func (s *Store) Driver() string {
	return s.config.Driver
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// createSchema creates missing tables, records the schema version and seeds
// the role reference data in one transaction.
func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, insertSchemaVersion, SchemaVersion); err != nil {
		return fmt.Errorf("insert schema version: %w", err)
	}
	for _, r := range roleIDs {
		if _, err := tx.ExecContext(ctx, seedRole, r.ID, r.Name); err != nil {
			return fmt.Errorf("seed role %s: %w", r.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	s.logger.Debug("database schema created", "version", SchemaVersion)
	return nil
}

// SchemaMismatchError reports tables or columns missing from the database.
type SchemaMismatchError struct {
	Missing []string // "Table" or "Table.column"
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	return "schema mismatch: missing " + strings.Join(e.Missing, ", ")
}

// VerifySchema checks the schema version and that every expected column
// exists.
func (s *Store) VerifySchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if version != SchemaVersion {
		return fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version)
	}

	var missing []string
	for _, table := range sortedTables() {
		cols, err := s.tableColumns(ctx, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			missing = append(missing, table)
			continue
		}
		for _, want := range expectedColumns[table] {
			if !cols[want] {
				missing = append(missing, table+"."+want)
			}
		}
	}
	if len(missing) > 0 {
		return &SchemaMismatchError{Missing: missing}
	}
	return nil
}

// tableColumns returns the set of column names of table.
func (s *Store) tableColumns(ctx context.Context, table string) (map[string]bool, error) {
	// table comes from expectedColumns, never from input.
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info %s: %w", table, err)
		}
		cols[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	return cols, nil
}

// Tables returns the verified tables in dependency order.
func Tables() []string {
	return sortedTables()
}

func sortedTables() []string {
	return []string{"Roles", "Users", "UserRoles", "Patients", "Doctors", "Nurses", "Treatments", "AuditLogs"}
}
