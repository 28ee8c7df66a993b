package storage

import "errors"

// Common storage errors
var (
	// ErrUserNotFound indicates that user was not found in storage
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates that a user with this email already exists
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrSessionNotFound indicates that no session exists for (principal, client)
	ErrSessionNotFound = errors.New("session not found")

	// ErrDuplicateSession indicates that (principal, client) is already taken
	ErrDuplicateSession = errors.New("session already exists")

	// ErrConflict indicates that a compare-and-swap lost against a concurrent writer:
	// the stored token hash no longer equals the expected one
	ErrConflict = errors.New("session token changed concurrently")
)
