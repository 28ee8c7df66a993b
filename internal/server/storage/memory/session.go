package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

type sessionKey struct {
	principalID string
	clientID    string
}

type sessionEntry struct {
	session models.DeviceSession
	mu      sync.Mutex
	deleted bool // set under mu once the entry left the index
}

func (e *sessionEntry) snapshot() *models.DeviceSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return nil
	}
	s := e.session
	return &s
}

func (s *Storage) entry(principalID, clientID string) *sessionEntry {
	s.sessionsMu.RLock()
	defer s.sessionsMu.RUnlock()

	return s.sessions[sessionKey{principalID: principalID, clientID: clientID}]
}

// CreateSession stores a new device session
func (s *Storage) CreateSession(_ context.Context, session *models.DeviceSession) error {
	key := sessionKey{principalID: session.PrincipalID, clientID: session.ClientID}

	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	if _, exists := s.sessions[key]; exists {
		return storage.ErrDuplicateSession
	}
	s.sessions[key] = &sessionEntry{session: *session}

	return nil
}

// GetSession retrieves a session
func (s *Storage) GetSession(_ context.Context, principalID, clientID string) (*models.DeviceSession, error) {
	e := s.entry(principalID, clientID)
	if e == nil {
		return nil, storage.ErrSessionNotFound
	}

	snap := e.snapshot()
	if snap == nil {
		return nil, storage.ErrSessionNotFound
	}

	return snap, nil
}

// CompareAndSwapToken replaces the token hash if it still equals expectedHash
func (s *Storage) CompareAndSwapToken(_ context.Context, principalID, clientID, expectedHash, newHash string, newExpiry, usedAt time.Time) error {
	e := s.entry(principalID, clientID)
	if e == nil {
		return storage.ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return storage.ErrSessionNotFound
	}
	if e.session.TokenHash != expectedHash {
		return storage.ErrConflict
	}

	e.session.TokenHash = newHash
	e.session.ExpiresAt = newExpiry
	e.session.LastUsedAt = usedAt

	return nil
}

// DeleteSession removes a session
func (s *Storage) DeleteSession(_ context.Context, principalID, clientID string) error {
	key := sessionKey{principalID: principalID, clientID: clientID}

	s.sessionsMu.Lock()
	e, ok := s.sessions[key]
	if ok {
		delete(s.sessions, key)
	}
	s.sessionsMu.Unlock()

	if !ok {
		return storage.ErrSessionNotFound
	}

	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()

	return nil
}

// ListSessions returns all sessions of a principal, most recently used first
func (s *Storage) ListSessions(_ context.Context, principalID string) ([]*models.DeviceSession, error) {
	s.sessionsMu.RLock()
	entries := make([]*sessionEntry, 0)
	for key, e := range s.sessions {
		if key.principalID == principalID {
			entries = append(entries, e)
		}
	}
	s.sessionsMu.RUnlock()

	result := make([]*models.DeviceSession, 0, len(entries))
	for _, e := range entries {
		if snap := e.snapshot(); snap != nil {
			result = append(result, snap)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUsedAt.After(result[j].LastUsedAt)
	})

	return result, nil
}

// DeleteSessions removes all sessions of a principal
func (s *Storage) DeleteSessions(_ context.Context, principalID string) (int, error) {
	return s.deleteWhere(func(key sessionKey, _ *sessionEntry) bool {
		return key.principalID == principalID
	}), nil
}

// DeleteExpiredSessions removes sessions with expires_at <= now
func (s *Storage) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	return s.deleteWhere(func(_ sessionKey, e *sessionEntry) bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.session.IsExpired(now)
	}), nil
}

func (s *Storage) deleteWhere(match func(sessionKey, *sessionEntry) bool) int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()

	deleted := 0
	for key, e := range s.sessions {
		if !match(key, e) {
			continue
		}
		delete(s.sessions, key)
		e.mu.Lock()
		e.deleted = true
		e.mu.Unlock()
		deleted++
	}

	return deleted
}
