package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

const (
	fieldTokenHash  = "token_hash"
	fieldExpiresAt  = "expires_at"
	fieldLastUsedAt = "last_used_at"
	fieldCreatedAt  = "created_at"
)

// CreateSession stores a new device session
func (s *Storage) CreateSession(ctx context.Context, session *models.DeviceSession) error {
	key := s.sessionKey(session.PrincipalID, session.ClientID)

	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return storage.ErrDuplicateSession
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldTokenHash, session.TokenHash,
				fieldExpiresAt, session.ExpiresAt.UnixNano(),
				fieldLastUsedAt, session.LastUsedAt.UnixNano(),
				fieldCreatedAt, session.CreatedAt.UnixNano(),
			)
			pipe.PExpireAt(ctx, key, session.ExpiresAt.Add(s.retention))
			pipe.SAdd(ctx, s.indexKey(session.PrincipalID), session.ClientID)
			pipe.ZAdd(ctx, s.expiryKey(), goredis.Z{
				Score:  expiryScore(session.ExpiresAt),
				Member: expiryMember(session.PrincipalID, session.ClientID),
			})
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrDuplicateSession):
		return err
	case errors.Is(err, goredis.TxFailedErr):
		// someone created or touched the key between EXISTS and EXEC
		return storage.ErrDuplicateSession
	default:
		return fmt.Errorf("failed to create session: %w", err)
	}
}

// GetSession retrieves a session by (principal, client)
func (s *Storage) GetSession(ctx context.Context, principalID, clientID string) (*models.DeviceSession, error) {
	fields, err := s.client.HGetAll(ctx, s.sessionKey(principalID, clientID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, storage.ErrSessionNotFound
	}

	return decodeSession(principalID, clientID, fields)
}

// CompareAndSwapToken replaces the token hash if it still equals expectedHash.
// WATCH turns a concurrent write between the read and EXEC into a conflict.
func (s *Storage) CompareAndSwapToken(ctx context.Context, principalID, clientID, expectedHash, newHash string, newExpiry, usedAt time.Time) error {
	key := s.sessionKey(principalID, clientID)

	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.HGet(ctx, key, fieldTokenHash).Result()
		if errors.Is(err, goredis.Nil) {
			return storage.ErrSessionNotFound
		}
		if err != nil {
			return err
		}
		if current != expectedHash {
			return storage.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, key,
				fieldTokenHash, newHash,
				fieldExpiresAt, newExpiry.UnixNano(),
				fieldLastUsedAt, usedAt.UnixNano(),
			)
			pipe.PExpireAt(ctx, key, newExpiry.Add(s.retention))
			pipe.ZAdd(ctx, s.expiryKey(), goredis.Z{
				Score:  expiryScore(newExpiry),
				Member: expiryMember(principalID, clientID),
			})
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrSessionNotFound), errors.Is(err, storage.ErrConflict):
		return err
	case errors.Is(err, goredis.TxFailedErr):
		return storage.ErrConflict
	default:
		return fmt.Errorf("failed to swap session token: %w", err)
	}
}

// DeleteSession removes a session
func (s *Storage) DeleteSession(ctx context.Context, principalID, clientID string) error {
	var del *goredis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		del = pipe.Del(ctx, s.sessionKey(principalID, clientID))
		pipe.SRem(ctx, s.indexKey(principalID), clientID)
		pipe.ZRem(ctx, s.expiryKey(), expiryMember(principalID, clientID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if del.Val() == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// ListSessions returns all sessions of a principal, most recently used first.
// Index entries whose hash already expired are pruned on the way.
func (s *Storage) ListSessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error) {
	clientIDs, err := s.client.SMembers(ctx, s.indexKey(principalID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	cmds := make([]*goredis.MapStringStringCmd, len(clientIDs))
	_, err = s.client.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for i, clientID := range clientIDs {
			cmds[i] = pipe.HGetAll(ctx, s.sessionKey(principalID, clientID))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load sessions: %w", err)
	}

	sessions := make([]*models.DeviceSession, 0, len(clientIDs))
	var stale []any
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, clientIDs[i])
			continue
		}
		session, err := decodeSession(principalID, clientIDs[i], fields)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if len(stale) > 0 {
		_ = s.client.SRem(ctx, s.indexKey(principalID), stale...).Err()
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastUsedAt.After(sessions[j].LastUsedAt)
	})

	return sessions, nil
}

// DeleteSessions removes all sessions of a principal
func (s *Storage) DeleteSessions(ctx context.Context, principalID string) (int, error) {
	clientIDs, err := s.client.SMembers(ctx, s.indexKey(principalID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(clientIDs) == 0 {
		return 0, nil
	}

	dels := make([]*goredis.IntCmd, len(clientIDs))
	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		members := make([]any, len(clientIDs))
		for i, clientID := range clientIDs {
			dels[i] = pipe.Del(ctx, s.sessionKey(principalID, clientID))
			members[i] = expiryMember(principalID, clientID)
		}
		pipe.ZRem(ctx, s.expiryKey(), members...)
		pipe.Del(ctx, s.indexKey(principalID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}

	var n int
	for _, del := range dels {
		n += int(del.Val())
	}
	return n, nil
}

// DeleteExpiredSessions removes sessions with expires_at <= now
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	members, err := s.client.ZRangeByScore(ctx, s.expiryKey(), &goredis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired sessions: %w", err)
	}

	var n int
	for _, member := range members {
		principalID, clientID, ok := splitExpiryMember(member)
		if !ok {
			_ = s.client.ZRem(ctx, s.expiryKey(), member).Err()
			continue
		}

		deleted, err := s.deleteIfExpired(ctx, principalID, clientID, now)
		if err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}

	return n, nil
}

// deleteIfExpired re-checks the exact expiry under WATCH, since the score
// only has millisecond resolution and a rotation may have extended it.
func (s *Storage) deleteIfExpired(ctx context.Context, principalID, clientID string, now time.Time) (bool, error) {
	key := s.sessionKey(principalID, clientID)
	member := expiryMember(principalID, clientID)

	var deleted bool
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		raw, err := tx.HGet(ctx, key, fieldExpiresAt).Result()
		switch {
		case errors.Is(err, goredis.Nil):
			// hash already gone through TTL, drop the leftovers
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.ZRem(ctx, s.expiryKey(), member)
				pipe.SRem(ctx, s.indexKey(principalID), clientID)
				return nil
			})
			return err
		case err != nil:
			return err
		}

		expiresAt, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt expires_at for %s: %w", key, err)
		}
		if now.Before(time.Unix(0, expiresAt)) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.ZRem(ctx, s.expiryKey(), member)
			pipe.SRem(ctx, s.indexKey(principalID), clientID)
			return nil
		})
		if err == nil {
			deleted = true
		}
		return err
	}, key)

	if errors.Is(err, goredis.TxFailedErr) {
		// rotated concurrently, leave it for the next sweep
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete expired session: %w", err)
	}
	return deleted, nil
}

func decodeSession(principalID, clientID string, fields map[string]string) (*models.DeviceSession, error) {
	session := &models.DeviceSession{
		PrincipalID: principalID,
		ClientID:    clientID,
		TokenHash:   fields[fieldTokenHash],
	}

	for name, dst := range map[string]*time.Time{
		fieldExpiresAt:  &session.ExpiresAt,
		fieldLastUsedAt: &session.LastUsedAt,
		fieldCreatedAt:  &session.CreatedAt,
	} {
		n, err := strconv.ParseInt(fields[name], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt %s for session %s/%s: %w", name, principalID, clientID, err)
		}
		*dst = time.Unix(0, n).UTC()
	}

	return session, nil
}
