package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
)

var testPasswordParams = crypto.PasswordParams{
	MemoryKiB:   8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type fakeClock struct {
	t  time.Time
	mu sync.Mutex
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SessionTTL = time.Hour
	cfg.MaxDevices = 0
	return cfg
}

// delegate returns a mock that forwards every call to s, so single methods
// can be overridden per test.
func delegate(s *memory.Storage) *storage.SessionStorageMock {
	return &storage.SessionStorageMock{
		CreateSessionFunc:         s.CreateSession,
		GetSessionFunc:            s.GetSession,
		CompareAndSwapTokenFunc:   s.CompareAndSwapToken,
		DeleteSessionFunc:         s.DeleteSession,
		ListSessionsFunc:          s.ListSessions,
		DeleteSessionsFunc:        s.DeleteSessions,
		DeleteExpiredSessionsFunc: s.DeleteExpiredSessions,
		PingFunc:                  s.Ping,
	}
}

type fixture struct {
	store   *memory.Storage
	clock   *fakeClock
	manager *Manager
	auth    *PasswordAuthenticator
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	store := memory.New()
	auth, err := NewPasswordAuthenticator(store, testPasswordParams)
	require.NoError(t, err)

	clock := newFakeClock()
	m, err := NewManager(cfg, store, auth, WithClock(clock.Now), WithLogger(discardLogger()))
	require.NoError(t, err)

	return &fixture{store: store, clock: clock, manager: m, auth: auth}
}

func (f *fixture) register(t *testing.T, email, password string) string {
	t.Helper()

	user, err := f.auth.Register(context.Background(), email, password)
	require.NoError(t, err)
	return user.ID
}

func creds(i Issued) Credentials {
	return Credentials{PrincipalID: i.PrincipalID, ClientID: i.ClientID, Token: i.Token}
}
