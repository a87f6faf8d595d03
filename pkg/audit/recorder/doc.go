// Package recorder provides the best-effort audit.Sink used by every
// decision path.
//
// # Recording Modes
//
// In async mode (the default) Record stamps the entry, enqueues it on a
// buffered channel and returns; a single worker drains the channel into
// storage. When the buffer is full the entry is dropped after EnqueueTimeout
// (zero means immediately), logged and counted. In sync mode Record writes
// inline and logs any storage error.
//
// In both modes Record never returns an error and never panics on storage
// failure, so audit problems cannot alter an access decision.
//
// # Basic Usage
//
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	rec.Record(ctx, audit.Entry{Action: audit.ActionReadOwn, ...})
//
//	// Wait for queued entries (tests, shutdown)
//	rec.Flush()
//
// The timestamp is taken when Record is called, not when the worker writes,
// so timestamp order matches decision order.
package recorder
