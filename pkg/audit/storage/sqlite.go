package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"mercator-hq/wardgate/pkg/audit"
)

// TimeFormat is the fixed-width UTC layout used for the timestamp column so
// that lexical order equals chronological order.
const TimeFormat = "2006-01-02 15:04:05.000000"

// SQLiteStorage implements audit.Storage on the AuditLogs table.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage wraps an open database whose schema already contains
// AuditLogs. The caller owns db; Close does not close it.
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{db: db}
}

// Store appends entry to AuditLogs and sets entry.ID.
func (s *SQLiteStorage) Store(ctx context.Context, entry *audit.Entry) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	var actorID any
	if entry.ActorID > 0 {
		actorID = entry.ActorID
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO AuditLogs (user_id, actor_name, action, table_name, details, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		actorID, entry.ActorName, string(entry.Action), entry.Resource, entry.Detail,
		ts.UTC().Format(TimeFormat),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// Query retrieves entries matching the query filters.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Entry, error) {
	if query == nil {
		query = &audit.Query{}
	}

	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT log_id, user_id, actor_name, action, table_name, details, timestamp FROM AuditLogs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += fmt.Sprintf(" ORDER BY timestamp %s, log_id %s", order, order)

	limit := -1
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	entries := []*audit.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	return entries, nil
}

// Count returns the number of entries matching the query filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	if query == nil {
		query = &audit.Query{}
	}

	whereClause, args := buildWhereClause(query)
	sqlQuery := "SELECT COUNT(*) FROM AuditLogs"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// CountByRole returns the number of entries per role of the acting user.
// Entries whose actor no longer exists are not counted.
func (s *SQLiteStorage) CountByRole(ctx context.Context) ([]audit.RoleCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.name, COUNT(l.log_id)
		FROM AuditLogs l
		JOIN UserRoles ur ON l.user_id = ur.user_id
		JOIN Roles r ON ur.role_id = r.role_id
		GROUP BY r.name
		ORDER BY r.name`)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "count_by_role", err)
	}
	defer rows.Close()

	counts := []audit.RoleCount{}
	for rows.Next() {
		var rc audit.RoleCount
		if err := rows.Scan(&rc.Role, &rc.Count); err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		counts = append(counts, rc)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "count_by_role", err)
	}
	return counts, nil
}

// Close is a no-op; the shared database is closed by its owner.
func (s *SQLiteStorage) Close() error {
	return nil
}

// buildWhereClause builds a SQL WHERE clause (without the keyword) and its
// arguments from the query filters.
func buildWhereClause(query *audit.Query) (string, []any) {
	var conditions []string
	var args []any

	if query.StartTime != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, query.StartTime.UTC().Format(TimeFormat))
	}
	if query.EndTime != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, query.EndTime.UTC().Format(TimeFormat))
	}
	if query.ActorName != "" {
		conditions = append(conditions, "actor_name = ?")
		args = append(args, query.ActorName)
	}
	if query.ActorID != nil {
		conditions = append(conditions, "user_id = ?")
		args = append(args, *query.ActorID)
	}
	if len(query.Actions) > 0 {
		placeholders := make([]string, len(query.Actions))
		for i, a := range query.Actions {
			placeholders[i] = "?"
			args = append(args, string(a))
		}
		conditions = append(conditions, "action IN ("+strings.Join(placeholders, ", ")+")")
	}
	if query.ActionPrefix != "" {
		conditions = append(conditions, "action LIKE ?")
		args = append(args, query.ActionPrefix+"%")
	}
	if query.Resource != "" {
		conditions = append(conditions, "table_name = ?")
		args = append(args, query.Resource)
	}

	return strings.Join(conditions, " AND "), args
}

func scanEntry(rows *sql.Rows) (*audit.Entry, error) {
	var (
		entry   audit.Entry
		actorID sql.NullInt64
		actor   sql.NullString
		details sql.NullString
		action  string
		ts      string
	)
	if err := rows.Scan(&entry.ID, &actorID, &actor, &action, &entry.Resource, &details, &ts); err != nil {
		return nil, err
	}

	entry.ActorID = actorID.Int64
	entry.ActorName = actor.String
	entry.Detail = details.String
	entry.Action = audit.Action(action)

	parsed, err := parseTimestamp(ts)
	if err != nil {
		return nil, err
	}
	entry.Timestamp = parsed
	return &entry, nil
}

// parseTimestamp accepts TimeFormat and the second-resolution layout written
// by SQLite's datetime('now').
func parseTimestamp(ts string) (time.Time, error) {
	for _, layout := range []string{TimeFormat, time.DateTime} {
		if parsed, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: unrecognised layout", ts)
}

var _ audit.Storage = (*SQLiteStorage)(nil)
