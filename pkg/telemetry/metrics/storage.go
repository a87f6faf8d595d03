package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorageMetrics tracks audit writes and database backups.
//
// Metrics:
//   - wardgate_audit_writes_total: audit entries by write result
//   - wardgate_backup_runs_total: backup runs by result
//   - wardgate_backup_duration_seconds: backup duration
//   - wardgate_backup_last_success_timestamp_seconds: time of the last good backup
type StorageMetrics struct {
	auditWritesTotal *prometheus.CounterVec
	backupsTotal     *prometheus.CounterVec
	backupDuration   prometheus.Histogram
	backupLastOK     prometheus.Gauge
}

// NewStorageMetrics creates and registers storage metrics.
func NewStorageMetrics(registry *prometheus.Registry) *StorageMetrics {
	sm := &StorageMetrics{
		auditWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "audit",
				Name:      "writes_total",
				Help:      "Total number of audit entries by write result",
			},
			[]string{"result"},
		),

		backupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "runs_total",
				Help:      "Total number of database backup runs",
			},
			[]string{"result"},
		),

		backupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "duration_seconds",
				Help:      "Duration of a database backup in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
		),

		backupLastOK: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Subsystem: "backup",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful backup",
			},
		),
	}

	registry.MustRegister(sm.auditWritesTotal, sm.backupsTotal, sm.backupDuration, sm.backupLastOK)

	return sm
}

// RecordAuditWrite records one audit write.
func (sm *StorageMetrics) RecordAuditWrite(result string) {
	sm.auditWritesTotal.WithLabelValues(result).Inc()
}

// RecordBackup records one backup run. Only successful runs move the
// last-success gauge.
func (sm *StorageMetrics) RecordBackup(result string, duration time.Duration) {
	sm.backupsTotal.WithLabelValues(result).Inc()
	sm.backupDuration.Observe(duration.Seconds())
	if result == "success" {
		sm.backupLastOK.SetToCurrentTime()
	}
}
