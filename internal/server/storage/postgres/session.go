package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

const sessionColumns = `principal_id, client_id, token_hash, expires_at, last_used_at, created_at`

// CreateSession stores a new device session
func (s *Storage) CreateSession(ctx context.Context, session *models.DeviceSession) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO device_sessions (`+sessionColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		session.PrincipalID, session.ClientID, session.TokenHash,
		session.ExpiresAt, session.LastUsedAt, session.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateSession
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by (principal, client)
func (s *Storage) GetSession(ctx context.Context, principalID, clientID string) (*models.DeviceSession, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM device_sessions WHERE principal_id = $1 AND client_id = $2`,
		principalID, clientID,
	)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// CompareAndSwapToken replaces the token hash if it still equals expectedHash.
// The row lock taken by UPDATE serialises concurrent swaps; the loser
// re-evaluates the predicate against the committed hash and matches nothing.
func (s *Storage) CompareAndSwapToken(ctx context.Context, principalID, clientID, expectedHash, newHash string, newExpiry, usedAt time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE device_sessions
		SET token_hash = $1, expires_at = $2, last_used_at = $3
		WHERE principal_id = $4 AND client_id = $5 AND token_hash = $6`,
		newHash, newExpiry, usedAt, principalID, clientID, expectedHash,
	)
	if err != nil {
		return fmt.Errorf("failed to swap session token: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM device_sessions WHERE principal_id = $1 AND client_id = $2)`,
		principalID, clientID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return storage.ErrSessionNotFound
	}
	return storage.ErrConflict
}

// DeleteSession removes a session
func (s *Storage) DeleteSession(ctx context.Context, principalID, clientID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM device_sessions WHERE principal_id = $1 AND client_id = $2`,
		principalID, clientID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// ListSessions returns all sessions of a principal, most recently used first
func (s *Storage) ListSessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM device_sessions WHERE principal_id = $1 ORDER BY last_used_at DESC`,
		principalID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.DeviceSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return sessions, nil
}

// DeleteSessions removes all sessions of a principal
func (s *Storage) DeleteSessions(ctx context.Context, principalID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_sessions WHERE principal_id = $1`, principalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// DeleteExpiredSessions removes sessions with expires_at <= now
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanSession(row pgx.Row) (*models.DeviceSession, error) {
	var session models.DeviceSession
	if err := row.Scan(
		&session.PrincipalID,
		&session.ClientID,
		&session.TokenHash,
		&session.ExpiresAt,
		&session.LastUsedAt,
		&session.CreatedAt,
	); err != nil {
		return nil, err
	}
	session.ExpiresAt = session.ExpiresAt.UTC()
	session.LastUsedAt = session.LastUsedAt.UTC()
	session.CreatedAt = session.CreatedAt.UTC()
	return &session, nil
}
