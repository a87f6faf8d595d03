package identity

import "errors"

var (
	// ErrNotFound indicates no active identity matches the requested name.
	ErrNotFound = errors.New("identity not found")

	// ErrAuthFailure indicates the supplied credential did not match.
	ErrAuthFailure = errors.New("authentication failed")
)
