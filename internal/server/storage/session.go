package storage

import (
	"context"
	"time"

	"github.com/iudanet/tokenauth/internal/models"
)

//go:generate moq -out session_mock.go . SessionStorage

// SessionStorage defines interface for device session persistence.
//
// Implementations must be safe for concurrent use and must make every
// mutation durable before returning. CompareAndSwapToken is the only way to
// change a stored token hash.
type SessionStorage interface {
	// CreateSession stores a new device session
	// Returns ErrDuplicateSession if (PrincipalID, ClientID) already exists
	CreateSession(ctx context.Context, session *models.DeviceSession) error

	// GetSession retrieves a session, expired or not
	// Returns ErrSessionNotFound if it doesn't exist
	GetSession(ctx context.Context, principalID, clientID string) (*models.DeviceSession, error)

	// CompareAndSwapToken atomically replaces the token hash and expiry, and sets
	// last_used_at, only if the stored hash still equals expectedHash.
	// Returns ErrConflict if the hash changed, ErrSessionNotFound if the session is gone
	CompareAndSwapToken(ctx context.Context, principalID, clientID, expectedHash, newHash string, newExpiry, usedAt time.Time) error

	// DeleteSession removes a session (sign-out)
	// Returns ErrSessionNotFound if it doesn't exist
	DeleteSession(ctx context.Context, principalID, clientID string) error

	// ListSessions returns all sessions of a principal, expired included,
	// ordered by last use, most recent first
	ListSessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error)

	// DeleteSessions removes all sessions of a principal
	// Returns number of deleted sessions
	DeleteSessions(ctx context.Context, principalID string) (int, error)

	// DeleteExpiredSessions removes every session with expires_at <= now
	// Returns number of deleted sessions
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Ping checks that the backend is reachable
	Ping(ctx context.Context) error
}
