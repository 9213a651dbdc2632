package interfaces

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared by all repository backends
var (
	// ErrNotFound is returned when a record does not exist, including
	// ownership-scoped mutations targeting a story owned by another user.
	ErrNotFound = goerr.New("record not found")

	// ErrAlreadyExists is returned when a unique key (session token or
	// external subject) is already taken. Callers regenerate session tokens
	// on this error, or re-read by subject for concurrent merges.
	ErrAlreadyExists = goerr.New("record already exists")
)
