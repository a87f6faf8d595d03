package sqlite

import (
	"errors"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var modErr *msqlite.Error
	if errors.As(err, &modErr) {
		switch modErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return isMattnUniqueViolation(err)
}

// violatedColumn returns the column named in a UNIQUE constraint message,
// for example "email" from "UNIQUE constraint failed: Users.email".
func violatedColumn(err error) string {
	msg := err.Error()
	idx := strings.LastIndex(msg, "constraint failed: ")
	if idx < 0 {
		return ""
	}
	target := msg[idx+len("constraint failed: "):]
	if comma := strings.IndexByte(target, ','); comma >= 0 {
		target = target[:comma]
	}
	// modernc appends the extended code, as in "Users.email (2067)".
	if fields := strings.Fields(target); len(fields) > 0 {
		target = fields[0]
	}
	if dot := strings.IndexByte(target, '.'); dot >= 0 {
		target = target[dot+1:]
	}
	return target
}
