package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/storagetest"
)

// setupTestStorage creates an in-memory SQLite storage for testing
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()

	s, err := New(context.Background(), ":memory:")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// createPrincipal inserts a user so sessions satisfy the foreign key
func createPrincipal(t *testing.T, s storage.SessionStorage) string {
	t.Helper()

	st, ok := s.(*Storage)
	require.True(t, ok)

	user := storagetest.NewUser()
	require.NoError(t, st.CreateUser(context.Background(), user))

	return user.ID
}

func TestSessionStorage(t *testing.T) {
	storagetest.RunSessionStorageTests(t,
		func(t *testing.T) storage.SessionStorage { return setupTestStorage(t) },
		createPrincipal,
	)
}

func TestUserStorage(t *testing.T) {
	storagetest.RunUserStorageTests(t, func(t *testing.T) storage.UserStorage { return setupTestStorage(t) })
}

func TestStorage_New(t *testing.T) {
	tests := []struct {
		name    string
		dbPath  func(t *testing.T) string
		wantErr bool
	}{
		{
			name:   "in-memory database",
			dbPath: func(t *testing.T) string { return ":memory:" },
		},
		{
			name:   "file database",
			dbPath: func(t *testing.T) string { return filepath.Join(t.TempDir(), "sessions.db") },
		},
		{
			name:    "missing directory",
			dbPath:  func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope", "sessions.db") },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(context.Background(), tt.dbPath(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, s.Ping(context.Background()))
			assert.NoError(t, s.Close())
		})
	}
}

func TestStorage_RotationSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := New(ctx, path)
	require.NoError(t, err)

	principal := createPrincipal(t, s)
	sess := storagetest.NewSession(principal, "t1", time.Now().Add(time.Hour))
	require.NoError(t, s.CreateSession(ctx, sess))

	newExpiry := time.Now().Add(2 * time.Hour).UTC()
	require.NoError(t, s.CompareAndSwapToken(ctx, principal, sess.ClientID,
		crypto.HashToken("t1"), crypto.HashToken("t2"), newExpiry, time.Now()))
	require.NoError(t, s.Close())

	// migrations must be a no-op the second time
	s, err = New(ctx, path)
	require.NoError(t, err)
	defer func() {
		_ = s.Close()
	}()

	got, err := s.GetSession(ctx, principal, sess.ClientID)
	require.NoError(t, err)
	assert.Equal(t, crypto.HashToken("t2"), got.TokenHash)
	assert.True(t, newExpiry.Equal(got.ExpiresAt))
}

func TestStorage_DeleteUserCascadesSessions(t *testing.T) {
	ctx := context.Background()
	s := setupTestStorage(t)

	principal := createPrincipal(t, s)
	sess := storagetest.NewSession(principal, "t1", time.Now().Add(time.Hour))
	require.NoError(t, s.CreateSession(ctx, sess))

	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, principal)
	require.NoError(t, err)

	_, err = s.GetSession(ctx, principal, sess.ClientID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestStorage_SessionRequiresUser(t *testing.T) {
	s := setupTestStorage(t)

	sess := storagetest.NewSession("no-such-user", "t1", time.Now().Add(time.Hour))
	err := s.CreateSession(context.Background(), sess)
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrDuplicateSession)
}
