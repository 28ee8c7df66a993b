package session

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSession is the single denial callers should surface to clients.
	// ErrUnknownSession, ErrExpired and ErrTokenMismatch all wrap it.
	ErrInvalidSession = errors.New("invalid session")

	// ErrUnknownSession means no session exists for (principal, client).
	ErrUnknownSession = fmt.Errorf("%w: unknown session", ErrInvalidSession)

	// ErrExpired means the session exists but its expiry has passed.
	ErrExpired = fmt.Errorf("%w: session expired", ErrInvalidSession)

	// ErrTokenMismatch means the presented token is not the current one.
	ErrTokenMismatch = fmt.Errorf("%w: token mismatch", ErrInvalidSession)

	// ErrRaceLost means the token was valid but a concurrent request rotated
	// it first. The client should retry with the token the winner received.
	ErrRaceLost = errors.New("session rotated concurrently")

	// ErrInvalidCredentials is returned for any failed login, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConfig is returned for an invalid Config.
	ErrConfig = errors.New("invalid session config")
)
