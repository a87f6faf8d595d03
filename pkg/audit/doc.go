// Package audit defines the append-only decision trail.
//
// Every access decision, zone decision, failed login, registration and
// administrative action produces exactly one Entry. Entries are never updated
// or deleted; the Storage interface deliberately has no mutation beyond Store.
//
// # Architecture
//
//  1. Sink - what decision code writes to (Record returns nothing)
//  2. Recorder - best-effort Sink, sync or async (see package recorder)
//  3. Storage - persists and queries entries (see package storage)
//
// Write failures are logged and counted by the recorder and never reach the
// caller, so a broken audit backend cannot change a decision.
//
// # Basic Usage
//
//	store := storage.NewSQLiteStorage(db)
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	rec.Record(ctx, audit.Entry{
//	    ActorID:   id.ID,
//	    ActorName: id.Username,
//	    Action:    audit.ActionReadSensitive,
//	    Resource:  audit.ResourcePatients,
//	    Detail:    "Viewed full record ID 1",
//	})
package audit
