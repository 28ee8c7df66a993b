package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

// Credentials is the triplet a client presents on every request.
type Credentials struct {
	// PrincipalID is the uid hint. It only selects the session to look up;
	// the token decides whether access is granted.
	PrincipalID string
	ClientID    string
	Token       string
}

// dummyHash stands in for the stored hash when the session does not exist,
// so the unknown and mismatch paths do the same work.
var dummyHash = crypto.HashToken("tokenauth-dummy-token")

// Manager is the entry point of the session core.
type Manager struct {
	store   storage.SessionStorage
	auth    Authenticator
	issuer  *Issuer
	logger  *slog.Logger
	now     func() time.Time
	issuing keyedMutex
	cfg     Config
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager validates cfg and builds a Manager. auth may be nil when Login
// is never called.
func NewManager(cfg Config, store storage.SessionStorage, auth Authenticator, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		store:   store,
		auth:    auth,
		cfg:     cfg,
		logger:  slog.Default(),
		now:     time.Now,
		issuing: keyedMutex{locks: make(map[string]*keyedLock)},
	}
	for _, opt := range opts {
		opt(m)
	}

	m.issuer = NewIssuer(store, cfg)
	m.issuer.now = m.now

	return m, nil
}

// Login authenticates login/secret and opens a new device session.
// Every authentication failure is reported as ErrInvalidCredentials.
func (m *Manager) Login(ctx context.Context, login, secret string) (Issued, error) {
	if m.auth == nil {
		return Issued{}, errors.New("session: no authenticator configured")
	}

	principalID, err := m.auth.Authenticate(ctx, login, secret)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			m.logger.WarnContext(ctx, "login failed: invalid credentials")
			return Issued{}, ErrInvalidCredentials
		}
		return Issued{}, fmt.Errorf("failed to authenticate: %w", err)
	}

	return m.Issue(ctx, principalID)
}

// Issue opens a new device session for an already authenticated principal.
//
// With MaxDevices set, issues for one principal are serialised within the
// process and the cap is checked again after the session is created, so
// concurrent logins through other instances sharing the store cannot leave
// more than MaxDevices sessions behind either.
func (m *Manager) Issue(ctx context.Context, principalID string) (Issued, error) {
	if m.cfg.MaxDevices > 0 {
		unlock := m.issuing.lock(principalID)
		defer unlock()

		if err := m.evict(ctx, principalID, "", m.cfg.MaxDevices-1); err != nil {
			return Issued{}, err
		}
	}

	issued, err := m.issuer.Create(ctx, principalID)
	if err != nil {
		return Issued{}, err
	}

	m.logger.InfoContext(ctx, "session created",
		slog.String("principal_id", principalID),
		slog.String("client_id", issued.ClientID))

	if m.cfg.MaxDevices > 0 {
		// the session exists already, so a failed trim is only logged
		if err := m.evict(ctx, principalID, issued.ClientID, m.cfg.MaxDevices-1); err != nil {
			m.logger.WarnContext(ctx, "failed to enforce device limit",
				slog.String("principal_id", principalID),
				slog.Any("error", err))
		}
	}

	return issued, nil
}

// evict deletes the least recently used sessions of principalID until at
// most keep remain besides keepClientID, which is never touched.
func (m *Manager) evict(ctx context.Context, principalID, keepClientID string, keep int) error {
	sessions, err := m.store.ListSessions(ctx, principalID)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	others := make([]*models.DeviceSession, 0, len(sessions))
	for _, s := range sessions {
		if s.ClientID != keepClientID {
			others = append(others, s)
		}
	}
	slices.SortStableFunc(others, byRecentUse)

	for _, s := range others[min(keep, len(others)):] {
		err := m.store.DeleteSession(ctx, principalID, s.ClientID)
		if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
			return fmt.Errorf("failed to evict session: %w", err)
		}
		m.logger.InfoContext(ctx, "session evicted",
			slog.String("principal_id", principalID),
			slog.String("client_id", s.ClientID))
	}

	return nil
}

// byRecentUse orders sessions most recently used first. Ties fall back to
// creation time and then client id, so every instance ranks them the same.
func byRecentUse(a, b *models.DeviceSession) int {
	if c := b.LastUsedAt.Compare(a.LastUsedAt); c != 0 {
		return c
	}
	if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(b.ClientID, a.ClientID)
}

// Validate checks c and, when it is the current token of a live session,
// rotates it. The returned Issued carries the token for the next request.
//
// Denials wrap ErrInvalidSession. ErrRaceLost means another request spent
// the same token first.
func (m *Manager) Validate(ctx context.Context, c Credentials) (Issued, error) {
	return m.validate(ctx, c, "token validated")
}

// Rotate is an explicit refresh. It runs the same checks as Validate.
func (m *Manager) Rotate(ctx context.Context, c Credentials) (Issued, error) {
	return m.validate(ctx, c, "token rotated")
}

func (m *Manager) validate(ctx context.Context, c Credentials, msg string) (Issued, error) {
	if c.PrincipalID == "" || c.ClientID == "" || c.Token == "" {
		return Issued{}, ErrUnknownSession
	}

	sess, err := m.store.GetSession(ctx, c.PrincipalID, c.ClientID)
	found := err == nil
	if err != nil && !errors.Is(err, storage.ErrSessionNotFound) {
		return Issued{}, fmt.Errorf("failed to load session: %w", err)
	}

	stored := dummyHash
	if found {
		stored = sess.TokenHash
	}
	match := crypto.TokenHashEqual(crypto.HashToken(c.Token), stored)

	log := m.logger.With(
		slog.String("principal_id", c.PrincipalID),
		slog.String("client_id", c.ClientID))

	if !found {
		log.DebugContext(ctx, "validation denied: unknown session")
		return Issued{}, ErrUnknownSession
	}
	if sess.IsExpired(m.now()) {
		log.DebugContext(ctx, "validation denied: session expired")
		return Issued{}, ErrExpired
	}
	if !match {
		log.WarnContext(ctx, "validation denied: token mismatch")
		return Issued{}, ErrTokenMismatch
	}

	issued, err := m.issuer.Rotate(ctx, sess)
	if err != nil {
		if errors.Is(err, ErrRaceLost) {
			log.InfoContext(ctx, "validation lost rotation race")
		}
		return Issued{}, err
	}

	log.DebugContext(ctx, msg)
	return issued, nil
}

// Revoke signs one device out. Returns storage.ErrSessionNotFound when there
// is nothing to revoke.
func (m *Manager) Revoke(ctx context.Context, principalID, clientID string) error {
	if err := m.store.DeleteSession(ctx, principalID, clientID); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	m.logger.InfoContext(ctx, "session revoked",
		slog.String("principal_id", principalID),
		slog.String("client_id", clientID))

	return nil
}

// RevokeAll signs every device of principalID out.
func (m *Manager) RevokeAll(ctx context.Context, principalID string) (int, error) {
	n, err := m.store.DeleteSessions(ctx, principalID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	m.logger.InfoContext(ctx, "all sessions revoked",
		slog.String("principal_id", principalID),
		slog.Int("count", n))

	return n, nil
}

// RevokeOthers signs every device of principalID out except keepClientID.
func (m *Manager) RevokeOthers(ctx context.Context, principalID, keepClientID string) (int, error) {
	sessions, err := m.store.ListSessions(ctx, principalID)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	var n int
	for _, s := range sessions {
		if s.ClientID == keepClientID {
			continue
		}
		err := m.store.DeleteSession(ctx, principalID, s.ClientID)
		if errors.Is(err, storage.ErrSessionNotFound) {
			continue
		}
		if err != nil {
			return n, fmt.Errorf("failed to revoke session: %w", err)
		}
		n++
	}

	m.logger.InfoContext(ctx, "other sessions revoked",
		slog.String("principal_id", principalID),
		slog.String("kept_client_id", keepClientID),
		slog.Int("count", n))

	return n, nil
}

// Sessions lists the live sessions of principalID, most recently used first.
func (m *Manager) Sessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error) {
	sessions, err := m.store.ListSessions(ctx, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	now := m.now()
	live := sessions[:0]
	for _, s := range sessions {
		if !s.IsExpired(now) {
			live = append(live, s)
		}
	}

	return live, nil
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	locks map[string]*keyedLock
	mu    sync.Mutex
}

type keyedLock struct {
	refs int
	mu   sync.Mutex
}

func (k *keyedMutex) lock(key string) (unlock func()) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
