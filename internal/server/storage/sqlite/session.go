package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

const sessionColumns = `principal_id, client_id, token_hash, expires_at, last_used_at, created_at`

// CreateSession stores a new device session
func (s *Storage) CreateSession(ctx context.Context, session *models.DeviceSession) error {
	query := `
		INSERT INTO device_sessions (` + sessionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.PrincipalID,
		session.ClientID,
		session.TokenHash,
		toUnix(session.ExpiresAt),
		toUnix(session.LastUsedAt),
		toUnix(session.CreatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return storage.ErrDuplicateSession
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by (principal, client)
func (s *Storage) GetSession(ctx context.Context, principalID, clientID string) (*models.DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE principal_id = ? AND client_id = ?
	`

	session, err := scanSession(s.db.QueryRowContext(ctx, query, principalID, clientID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return session, nil
}

// CompareAndSwapToken replaces the token hash if it still equals expectedHash.
// The conditional UPDATE is the atomic step; the follow-up SELECT only
// classifies a miss.
func (s *Storage) CompareAndSwapToken(ctx context.Context, principalID, clientID, expectedHash, newHash string, newExpiry, usedAt time.Time) error {
	query := `
		UPDATE device_sessions
		SET token_hash = ?, expires_at = ?, last_used_at = ?
		WHERE principal_id = ? AND client_id = ? AND token_hash = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		newHash, toUnix(newExpiry), toUnix(usedAt),
		principalID, clientID, expectedHash,
	)
	if err != nil {
		return fmt.Errorf("failed to swap session token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM device_sessions WHERE principal_id = ? AND client_id = ?`,
		principalID, clientID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	return storage.ErrConflict
}

// DeleteSession removes a session
func (s *Storage) DeleteSession(ctx context.Context, principalID, clientID string) error {
	query := `DELETE FROM device_sessions WHERE principal_id = ? AND client_id = ?`

	n, err := s.execCount(ctx, query, principalID, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if n == 0 {
		return storage.ErrSessionNotFound
	}

	return nil
}

// ListSessions returns all sessions of a principal
func (s *Storage) ListSessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM device_sessions
		WHERE principal_id = ?
		ORDER BY last_used_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

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
	n, err := s.execCount(ctx, `DELETE FROM device_sessions WHERE principal_id = ?`, principalID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return n, nil
}

// DeleteExpiredSessions removes sessions with expires_at <= now
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	n, err := s.execCount(ctx, `DELETE FROM device_sessions WHERE expires_at <= ?`, toUnix(now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return n, nil
}

func (s *Storage) execCount(ctx context.Context, query string, args ...any) (int, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.DeviceSession, error) {
	var (
		session                          models.DeviceSession
		expiresAt, lastUsedAt, createdAt int64
	)

	if err := row.Scan(
		&session.PrincipalID,
		&session.ClientID,
		&session.TokenHash,
		&expiresAt,
		&lastUsedAt,
		&createdAt,
	); err != nil {
		return nil, err
	}

	session.ExpiresAt = fromUnix(expiresAt)
	session.LastUsedAt = fromUnix(lastUsedAt)
	session.CreatedAt = fromUnix(createdAt)

	return &session, nil
}
