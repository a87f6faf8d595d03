//go:build !cgo

package sqlite

// go-sqlite3 cannot open a database without cgo, so it never returns errors.
func isMattnUniqueViolation(error) bool { return false }
