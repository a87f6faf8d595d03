// Package backup writes timestamped hot copies of the hospital database on
// behalf of the compliance service account, on demand or on a cron
// schedule.
package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/identity"
)

// FileTimeFormat is the timestamp layout used in backup file names.
const FileTimeFormat = "2006-01-02_15-04-05"

// DefaultDir is the directory backups are written to.
const DefaultDir = "backups"

// ErrUnauthorized indicates the actor is not the compliance service.
var ErrUnauthorized = errors.New("only etl_service may perform backups")

// Target is a database that can copy itself to a new file.
type Target interface {
	BackupTo(ctx context.Context, dest string) error
}

// Metrics receives one observation per backup attempt.
type Metrics interface {
	RecordBackup(result string, duration time.Duration)
}

// Config contains backup settings.
type Config struct {
	// Dir is the directory backups are written to.
	// Default: "backups"
	Dir string

	// Schedule is a standard cron expression. Empty disables scheduling.
	Schedule string

	// ServiceAccount is the username scheduled backups run as.
	ServiceAccount string
}

// Service performs audited backups.
type Service struct {
	target  Target
	sink    audit.Sink
	config  Config
	metrics Metrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a backup service for target.
func NewService(target Target, sink audit.Sink, config Config) *Service {
	if sink == nil {
		sink = audit.Discard
	}
	if config.Dir == "" {
		config.Dir = DefaultDir
	}
	return &Service{
		target: target,
		sink:   sink,
		config: config,
		now:    time.Now,
		logger: slog.Default().With("component", "backup"),
	}
}

// WithMetrics attaches a metrics observer and returns s.
func (s *Service) WithMetrics(m Metrics) *Service {
	s.metrics = m
	return s
}

// FileName returns the backup file name for t.
func FileName(t time.Time) string {
	return "hospital_backup_" + t.Format(FileTimeFormat) + ".db"
}

// Run writes a backup for actor, who must hold etl_service, and returns
// its path.
func (s *Service) Run(ctx context.Context, actor *identity.Identity) (string, error) {
	if actor == nil || actor.Role != identity.RoleETLService {
		return "", ErrUnauthorized
	}

	start := s.now()
	dest := filepath.Join(s.config.Dir, FileName(start))
	s.logger.Info("starting hot backup", "dest", dest, "by", actor.Username)

	if err := s.target.BackupTo(ctx, dest); err != nil {
		s.observe("failed", start)
		s.logger.Error("backup failed", "dest", dest, "error", err)
		return "", fmt.Errorf("backup to %s: %w", dest, err)
	}
	s.observe("success", start)

	s.sink.Record(ctx, audit.Entry{
		ActorID:   actor.ID,
		ActorName: actor.Username,
		Action:    audit.ActionBackup,
		Resource:  audit.ResourceDatabase,
		Detail:    "Backup written to " + dest,
	})
	s.logger.Info("backup successful", "dest", dest, "duration", s.now().Sub(start))
	return dest, nil
}

func (s *Service) observe(result string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordBackup(result, s.now().Sub(start))
	}
}
