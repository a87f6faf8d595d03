package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/wardgate/pkg/config"
)

// Namespace prefixes every wardgate metric.
const Namespace = "wardgate"

// OtherLabel replaces label values beyond the cardinality limit.
const OtherLabel = "other"

// Collector owns the wardgate Prometheus metrics. It satisfies the metrics
// observer interfaces of the access engine, zone guard, onboarding
// registrar, authenticator, audit recorder and backup service, so one
// instance is handed to each of them.
//
// Role names come from the database and are kept verbatim, so the role
// label is bounded by a cardinality limiter.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	accessMetrics   *AccessMetrics
	identityMetrics *IdentityMetrics
	storageMetrics  *StorageMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registered on registry. If registry is
// nil, a new one is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		accessMetrics:      NewAccessMetrics(registry),
		identityMetrics:    NewIdentityMetrics(registry),
		storageMetrics:     NewStorageMetrics(registry),
		cardinalityLimiter: NewCardinalityLimiter(64),
	}
}

// RecordDecision records one access decision. action is the audit action
// the decision produced (READ_SUCCESS, ACCESS_DENIED, READ_FAIL).
func (c *Collector) RecordDecision(role, action string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("role:%s", role)) {
		role = OtherLabel
	}
	c.accessMetrics.RecordDecision(role, action, duration)
}

// RecordZoneDecision records one door interaction (grant or deny).
func (c *Collector) RecordZoneDecision(outcome string) {
	if !c.config.Enabled {
		return
	}

	c.accessMetrics.RecordZone(outcome)
}

// RecordLogin records one authentication attempt.
func (c *Collector) RecordLogin(result string) {
	if !c.config.Enabled {
		return
	}

	c.identityMetrics.RecordLogin(result)
}

// RecordOnboarding records the outcome of one registration attempt.
func (c *Collector) RecordOnboarding(outcome string) {
	if !c.config.Enabled {
		return
	}

	c.identityMetrics.RecordOnboarding(outcome)
}

// RecordAuditWrite records one audit entry write (written, dropped, failed).
func (c *Collector) RecordAuditWrite(result string) {
	if !c.config.Enabled {
		return
	}

	c.storageMetrics.RecordAuditWrite(result)
}

// RecordBackup records one backup run.
func (c *Collector) RecordBackup(result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.storageMetrics.RecordBackup(result, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
