package audit

import (
	"context"
	"io"
	"strings"
	"time"
)

// Action is a member of the closed audit taxonomy.
type Action string

const (
	ActionReadSensitive  Action = "READ_SENSITIVE"
	ActionReadPartial    Action = "READ_PARTIAL"
	ActionReadOwn        Action = "READ_OWN"
	ActionReadFail       Action = "READ_FAIL"
	ActionAccessAttempt  Action = "ACCESS_ATTEMPT"
	ActionAccessDenied   Action = "ACCESS_DENIED"
	ActionPhysicalGrant  Action = "PHYSICAL_GRANT"
	ActionPhysicalDeny   Action = "PHYSICAL_DENY"
	ActionLoginFail      Action = "LOGIN_FAIL"
	ActionRegister       Action = "REGISTER"
	ActionAdminCreate    Action = "ADMIN_CREATE"
	ActionAdminDelete    Action = "ADMIN_DELETE"
	ActionBackup         Action = "BACKUP"
	ActionReportGenerate Action = "REPORT_GENERATE"
)

// Actions lists the full taxonomy.
var Actions = []Action{
	ActionReadSensitive,
	ActionReadPartial,
	ActionReadOwn,
	ActionReadFail,
	ActionAccessAttempt,
	ActionAccessDenied,
	ActionPhysicalGrant,
	ActionPhysicalDeny,
	ActionLoginFail,
	ActionRegister,
	ActionAdminCreate,
	ActionAdminDelete,
	ActionBackup,
	ActionReportGenerate,
}

// Valid reports whether a belongs to the taxonomy.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// IsClinicalRead reports whether a records a read of clinical data.
func (a Action) IsClinicalRead() bool {
	return strings.HasPrefix(string(a), "READ")
}

// Resource names used in the resource column.
const (
	ResourcePatients = "Patients"
	ResourceUsers    = "Users"
	ResourceWardDoor = "WardDoor"
	ResourceDatabase = "Database"
	ResourceAuditLog = "AuditLogs"
)

// Entry is one immutable audit record.
type Entry struct {
	ID        int64     `json:"id"`
	ActorID   int64     `json:"actor_id"`
	ActorName string    `json:"actor_name"`
	Action    Action    `json:"action"`
	Resource  string    `json:"resource"`
	Detail    string    `json:"detail"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink receives audit entries from decision code. Implementations must not
// block the caller on storage and must not report storage failures.
type Sink interface {
	Record(ctx context.Context, entry Entry)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, entry Entry)

// Record calls f(ctx, entry).
func (f SinkFunc) Record(ctx context.Context, entry Entry) {
	f(ctx, entry)
}

// Discard is a Sink that drops every entry.
var Discard Sink = SinkFunc(func(context.Context, Entry) {})

// Query defines filter parameters for reading entries back.
type Query struct {
	// Time range (inclusive)
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Filters
	ActorName    string   `json:"actor_name,omitempty"`
	ActorID      *int64   `json:"actor_id,omitempty"`
	Actions      []Action `json:"actions,omitempty"`
	ActionPrefix string   `json:"action_prefix,omitempty"`
	Resource     string   `json:"resource,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// SortOrder is "asc" or "desc" by timestamp. Default: "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Matches reports whether e satisfies the query filters. Pagination and
// ordering are not considered.
func (q *Query) Matches(e *Entry) bool {
	if q == nil {
		return true
	}
	if q.StartTime != nil && e.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && e.Timestamp.After(*q.EndTime) {
		return false
	}
	if q.ActorName != "" && e.ActorName != q.ActorName {
		return false
	}
	if q.ActorID != nil && e.ActorID != *q.ActorID {
		return false
	}
	if len(q.Actions) > 0 {
		found := false
		for _, a := range q.Actions {
			if e.Action == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.ActionPrefix != "" && !strings.HasPrefix(string(e.Action), q.ActionPrefix) {
		return false
	}
	if q.Resource != "" && e.Resource != q.Resource {
		return false
	}
	return true
}

// RoleCount is the number of entries written by actors holding Role.
type RoleCount struct {
	Role  string `json:"role"`
	Count int64  `json:"count"`
}

// Storage persists audit entries. Implementations must be safe for
// concurrent use. There is no update or delete: the trail is append-only.
type Storage interface {
	// Store appends an entry.
	Store(ctx context.Context, entry *Entry) error

	// Query returns entries matching the filters, newest first by default.
	Query(ctx context.Context, query *Query) ([]*Entry, error)

	// Count returns the number of entries matching the filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes entries to w in a specific format.
type Exporter interface {
	Export(ctx context.Context, entries []*Entry, w io.Writer) error
}
