// Package storage provides audit.Storage backends.
//
// SQLiteStorage writes to the AuditLogs table of the hospital database and
// shares its *sql.DB with the rest of the store; it never creates or drops
// tables. MemoryStorage is intended for tests.
package storage
