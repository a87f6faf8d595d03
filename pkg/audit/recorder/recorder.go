package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/wardgate/pkg/audit"
	"mercator-hq/wardgate/pkg/telemetry/tracing"
)

// Write results reported to Metrics.
const (
	ResultStored  = "stored"
	ResultFailed  = "failed"
	ResultDropped = "dropped"
)

// Metrics receives one observation per entry handled by the recorder.
type Metrics interface {
	RecordAuditWrite(result string)
}

// Config contains configuration for the audit recorder.
type Config struct {
	// Enabled enables audit recording. Disabled recorders drop every entry.
	Enabled bool

	// Async enables background writes through a buffered channel.
	// Default: true
	Async bool

	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int

	// EnqueueTimeout is how long Record waits for buffer space before
	// dropping the entry. Zero never waits.
	// Default: 0
	EnqueueTimeout time.Duration

	// WriteTimeout is the timeout for writing one entry to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration

	// MaxDetailLength truncates the detail field. Zero disables truncation.
	// Default: 500
	MaxDetailLength int
}

// DefaultConfig returns the default recorder configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		Async:           true,
		AsyncBuffer:     1000,
		EnqueueTimeout:  0,
		WriteTimeout:    5 * time.Second,
		MaxDetailLength: 500,
	}
}

// Recorder is a best-effort audit.Sink.
type Recorder struct {
	storage audit.Storage
	config  *Config
	metrics Metrics
	tracer  *tracing.Tracer
	logger  *slog.Logger
	now     func() time.Time

	entries chan queued
	done    chan struct{}
	wg      sync.WaitGroup

	// closeMu guards closed; Record holds it for reading while enqueueing so
	// Close cannot race an in-flight send.
	closeMu sync.RWMutex
	closed  bool

	pendingMu   sync.Mutex
	pendingCond *sync.Cond
	pending     int
}

// queued is an entry waiting for the worker with the span it was recorded
// under.
type queued struct {
	entry  *audit.Entry
	parent trace.SpanContext
}

// NewRecorder creates a recorder writing to storage. A nil config selects
// DefaultConfig.
func NewRecorder(storage audit.Storage, config *Config) *Recorder {
	if config == nil {
		config = DefaultConfig()
	}
	if config.AsyncBuffer <= 0 {
		config.AsyncBuffer = 1
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}

	r := &Recorder{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "audit.recorder"),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	r.pendingCond = sync.NewCond(&r.pendingMu)

	if config.Async {
		r.entries = make(chan queued, config.AsyncBuffer)
		r.wg.Add(1)
		go r.worker()
	}

	r.logger.Info("audit recorder initialized",
		"enabled", config.Enabled,
		"async", config.Async,
		"async_buffer", config.AsyncBuffer,
		"write_timeout", config.WriteTimeout,
	)

	return r
}

// WithMetrics attaches a metrics observer and returns r.
func (r *Recorder) WithMetrics(m Metrics) *Recorder {
	r.metrics = m
	return r
}

// WithTracer records one span per storage write and returns r. The span is
// a child of the span active when the entry was recorded.
func (r *Recorder) WithTracer(t *tracing.Tracer) *Recorder {
	r.tracer = t
	return r
}

// Record implements audit.Sink.
func (r *Recorder) Record(ctx context.Context, entry audit.Entry) {
	if !r.config.Enabled {
		return
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now().UTC()
	}
	entry.Detail = TruncateString(entry.Detail, r.config.MaxDetailLength)

	if !entry.Action.Valid() {
		r.logger.Warn("audit entry outside taxonomy",
			"action", entry.Action,
			"actor", entry.ActorName,
		)
	}

	q := queued{entry: &entry, parent: trace.SpanContextFromContext(ctx)}
	if !r.config.Async {
		r.writeEntry(q)
		return
	}

	if err := r.enqueue(q); err != nil {
		r.logger.Error("audit entry dropped",
			"action", entry.Action,
			"actor", entry.ActorName,
			"resource", entry.Resource,
			"error", err,
		)
		r.observe(ResultDropped)
	}
}

// enqueue places entry on the async channel or reports why it could not.
func (r *Recorder) enqueue(q queued) error {
	entry := q.entry
	r.closeMu.RLock()
	defer r.closeMu.RUnlock()

	if r.closed {
		return audit.NewRecorderError(entry.Action, context.Canceled)
	}

	r.addPending(1)

	if r.config.EnqueueTimeout <= 0 {
		select {
		case r.entries <- q:
			return nil
		default:
			r.addPending(-1)
			return audit.NewRecorderError(entry.Action, errBufferFull)
		}
	}

	timer := time.NewTimer(r.config.EnqueueTimeout)
	defer timer.Stop()
	select {
	case r.entries <- q:
		return nil
	case <-timer.C:
		r.addPending(-1)
		return audit.NewRecorderError(entry.Action, context.DeadlineExceeded)
	}
}

// Flush blocks until every entry accepted so far has been written or has
// failed. In sync mode it returns immediately.
func (r *Recorder) Flush() {
	r.pendingMu.Lock()
	for r.pending > 0 {
		r.pendingCond.Wait()
	}
	r.pendingMu.Unlock()
}

// Close stops accepting entries, drains the channel and waits for the
// worker to exit. It is safe to call more than once.
func (r *Recorder) Close() error {
	r.closeMu.Lock()
	if r.closed {
		r.closeMu.Unlock()
		return nil
	}
	r.closed = true
	close(r.done)
	r.closeMu.Unlock()

	r.logger.Info("shutting down audit recorder")
	r.wg.Wait()
	r.logger.Info("audit recorder shut down complete")
	return nil
}

// worker drains the channel until Close, then drains what is left.
func (r *Recorder) worker() {
	defer r.wg.Done()

	for {
		select {
		case q := <-r.entries:
			r.writeEntry(q)
			r.addPending(-1)

		case <-r.done:
			r.logger.Info("draining audit channel before shutdown",
				"pending_count", len(r.entries),
			)
			for {
				select {
				case q := <-r.entries:
					r.writeEntry(q)
					r.addPending(-1)
				default:
					return
				}
			}
		}
	}
}

// writeEntry writes a single entry to storage, logging any failure. The
// write is bounded by WriteTimeout, never by the recording caller's
// context.
func (r *Recorder) writeEntry(q queued) {
	entry := q.entry
	ctx, cancel := context.WithTimeout(trace.ContextWithSpanContext(context.Background(), q.parent), r.config.WriteTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "audit.write")
	defer span.End()
	span.SetAttributes(
		tracing.AttrAuditAction.String(string(entry.Action)),
		tracing.AttrActor.String(entry.ActorName),
	)

	start := time.Now()
	if err := r.storage.Store(ctx, entry); err != nil {
		tracing.SetStatus(span, err)
		r.logger.Error("failed to store audit entry",
			"action", entry.Action,
			"actor", entry.ActorName,
			"resource", entry.Resource,
			"error", err,
		)
		r.observe(ResultFailed)
		return
	}
	r.observe(ResultStored)

	duration := time.Since(start)
	r.logger.Debug("audit entry recorded",
		"id", entry.ID,
		"action", entry.Action,
		"actor", entry.ActorName,
		"duration_ms", duration.Milliseconds(),
	)

	if duration > r.config.WriteTimeout/2 {
		r.logger.Warn("slow audit write",
			"action", entry.Action,
			"duration_ms", duration.Milliseconds(),
			"threshold_ms", (r.config.WriteTimeout / 2).Milliseconds(),
		)
	}
}

func (r *Recorder) addPending(delta int) {
	r.pendingMu.Lock()
	r.pending += delta
	if r.pending <= 0 {
		r.pending = 0
		r.pendingCond.Broadcast()
	}
	r.pendingMu.Unlock()
}

func (r *Recorder) observe(result string) {
	if r.metrics != nil {
		r.metrics.RecordAuditWrite(result)
	}
}

var _ audit.Sink = (*Recorder)(nil)
