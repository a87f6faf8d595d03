package backup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/wardgate/pkg/identity"
)

// Scheduler runs backups on the configured cron schedule as the configured
// service account. The account is resolved on every run so that a revoked
// role stops scheduled backups.
type Scheduler struct {
	service *Service
	ids     identity.Store
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler for service.
func NewScheduler(service *Service, ids identity.Store) *Scheduler {
	return &Scheduler{
		service: service,
		ids:     ids,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "backup.scheduler"),
	}
}

// Start schedules backups. An empty schedule does nothing.
//
// Common cron expressions:
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.service.config.Schedule
	if schedule == "" {
		s.logger.Info("backup schedule not configured, skipping scheduler")
		return nil
	}
	if s.service.config.ServiceAccount == "" {
		return fmt.Errorf("backup schedule requires a service account")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule backups: %w", err)
	}
	s.cron.Start()
	s.running = true

	s.logger.Info("backup scheduler started",
		"schedule", schedule,
		"service_account", s.service.config.ServiceAccount,
		"dir", s.service.config.Dir,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce resolves the service account and performs one backup. Failures
// are logged.
func (s *Scheduler) RunOnce(ctx context.Context) {
	account := s.service.config.ServiceAccount
	actor, err := s.ids.Resolve(ctx, account)
	if err != nil {
		s.logger.Error("scheduled backup skipped: service account unavailable",
			"service_account", account,
			"error", err,
		)
		return
	}
	if _, err := s.service.Run(ctx, actor); err != nil {
		s.logger.Error("scheduled backup failed", "error", err)
	}
}

// Stop stops the scheduler and waits for a running backup to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("backup scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled backup time, or nil.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
