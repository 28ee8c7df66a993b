// Package storagetest holds the behaviour every storage backend must share.
// Backend packages call RunSessionStorageTests / RunUserStorageTests from
// their own tests with a constructor for a fresh, empty store.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

// now is truncated so every backend round-trips it exactly
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// NewSession builds a session for principalID with a random client id and the
// hash of token.
func NewSession(principalID, token string, expiresAt time.Time) *models.DeviceSession {
	ts := now()
	return &models.DeviceSession{
		PrincipalID: principalID,
		ClientID:    uuid.NewString(),
		TokenHash:   crypto.HashToken(token),
		ExpiresAt:   expiresAt,
		LastUsedAt:  ts,
		CreatedAt:   ts,
	}
}

// RunSessionStorageTests runs the SessionStorage contract against stores built by newStorage.
// principal returns a principal id that the store accepts (backends with a
// foreign key on users create the user first).
func RunSessionStorageTests(t *testing.T, newStorage func(t *testing.T) storage.SessionStorage, principal func(t *testing.T, s storage.SessionStorage) string) {
	t.Run("create then get round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)

		sess := NewSession(p, "t1", now().Add(time.Hour))
		require.NoError(t, s.CreateSession(ctx, sess))

		got, err := s.GetSession(ctx, p, sess.ClientID)
		require.NoError(t, err)
		assert.Equal(t, p, got.PrincipalID)
		assert.Equal(t, sess.ClientID, got.ClientID)
		assert.Equal(t, sess.TokenHash, got.TokenHash)
		assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt), "expires_at: want %s got %s", sess.ExpiresAt, got.ExpiresAt)
		assert.True(t, sess.LastUsedAt.Equal(got.LastUsedAt))
	})

	t.Run("duplicate create", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)

		sess := NewSession(p, "t1", now().Add(time.Hour))
		require.NoError(t, s.CreateSession(ctx, sess))

		dup := *sess
		dup.TokenHash = crypto.HashToken("t2")
		assert.ErrorIs(t, s.CreateSession(ctx, &dup), storage.ErrDuplicateSession)
	})

	t.Run("client id is scoped to the principal", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p1 := principal(t, s)
		p2 := principal(t, s)

		a := NewSession(p1, "t1", now().Add(time.Hour))
		b := NewSession(p2, "t2", now().Add(time.Hour))
		b.ClientID = a.ClientID

		require.NoError(t, s.CreateSession(ctx, a))
		require.NoError(t, s.CreateSession(ctx, b))

		got, err := s.GetSession(ctx, p2, a.ClientID)
		require.NoError(t, err)
		assert.Equal(t, b.TokenHash, got.TokenHash)
	})

	t.Run("get unknown session", func(t *testing.T) {
		s := newStorage(t)
		_, err := s.GetSession(context.Background(), "nobody", "nothing")
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	})

	t.Run("compare and swap", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)

		sess := NewSession(p, "t1", now().Add(time.Hour))
		require.NoError(t, s.CreateSession(ctx, sess))

		newExpiry := now().Add(2 * time.Hour)
		usedAt := now().Add(time.Minute)
		require.NoError(t, s.CompareAndSwapToken(ctx, p, sess.ClientID,
			crypto.HashToken("t1"), crypto.HashToken("t2"), newExpiry, usedAt))

		got, err := s.GetSession(ctx, p, sess.ClientID)
		require.NoError(t, err)
		assert.Equal(t, crypto.HashToken("t2"), got.TokenHash)
		assert.True(t, newExpiry.Equal(got.ExpiresAt))
		assert.True(t, usedAt.Equal(got.LastUsedAt))

		// the old hash is gone for good
		err = s.CompareAndSwapToken(ctx, p, sess.ClientID,
			crypto.HashToken("t1"), crypto.HashToken("t3"), newExpiry, usedAt)
		assert.ErrorIs(t, err, storage.ErrConflict)

		got, err = s.GetSession(ctx, p, sess.ClientID)
		require.NoError(t, err)
		assert.Equal(t, crypto.HashToken("t2"), got.TokenHash)
	})

	t.Run("compare and swap on missing session", func(t *testing.T) {
		s := newStorage(t)
		err := s.CompareAndSwapToken(context.Background(), "nobody", "nothing",
			crypto.HashToken("a"), crypto.HashToken("b"), now(), now())
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	})

	t.Run("concurrent compare and swap has one winner", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)

		sess := NewSession(p, "t1", now().Add(time.Hour))
		require.NoError(t, s.CreateSession(ctx, sess))

		const workers = 16
		var (
			wg        sync.WaitGroup
			wins      atomic.Int32
			conflicts atomic.Int32
			start     = make(chan struct{})
		)
		wg.Add(workers)
		for i := 0; i < workers; i++ {
			go func(i int) {
				defer wg.Done()
				<-start
				err := s.CompareAndSwapToken(ctx, p, sess.ClientID,
					sess.TokenHash, crypto.HashToken(fmt.Sprintf("next-%d", i)), now().Add(time.Hour), now())
				switch {
				case err == nil:
					wins.Add(1)
				case assert.ErrorIs(t, err, storage.ErrConflict):
					conflicts.Add(1)
				}
			}(i)
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(workers-1), conflicts.Load())
	})

	t.Run("delete is not idempotent", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)

		sess := NewSession(p, "t1", now().Add(time.Hour))
		require.NoError(t, s.CreateSession(ctx, sess))

		require.NoError(t, s.DeleteSession(ctx, p, sess.ClientID))
		assert.ErrorIs(t, s.DeleteSession(ctx, p, sess.ClientID), storage.ErrSessionNotFound)

		_, err := s.GetSession(ctx, p, sess.ClientID)
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)

		err = s.CompareAndSwapToken(ctx, p, sess.ClientID, sess.TokenHash, crypto.HashToken("x"), now(), now())
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	})

	t.Run("list and delete all", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)
		other := principal(t, s)

		older := NewSession(p, "t1", now().Add(time.Hour))
		older.LastUsedAt = now().Add(-time.Hour)
		newer := NewSession(p, "t2", now().Add(time.Hour))
		foreign := NewSession(other, "t3", now().Add(time.Hour))
		for _, sess := range []*models.DeviceSession{older, newer, foreign} {
			require.NoError(t, s.CreateSession(ctx, sess))
		}

		list, err := s.ListSessions(ctx, p)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ClientID, list[0].ClientID)
		assert.Equal(t, older.ClientID, list[1].ClientID)

		n, err := s.DeleteSessions(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list, err = s.ListSessions(ctx, p)
		require.NoError(t, err)
		assert.Empty(t, list)

		_, err = s.GetSession(ctx, other, foreign.ClientID)
		assert.NoError(t, err)
	})

	t.Run("delete expired", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		p := principal(t, s)
		cutoff := now()

		expired := NewSession(p, "t1", cutoff.Add(-time.Minute))
		boundary := NewSession(p, "t2", cutoff)
		alive := NewSession(p, "t3", cutoff.Add(time.Minute))
		for _, sess := range []*models.DeviceSession{expired, boundary, alive} {
			require.NoError(t, s.CreateSession(ctx, sess))
		}

		n, err := s.DeleteExpiredSessions(ctx, cutoff)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list, err := s.ListSessions(ctx, p)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, alive.ClientID, list[0].ClientID)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStorage(t).Ping(context.Background()))
	})
}

// NewUser builds a user with a random id and email.
func NewUser() *models.User {
	ts := now()
	id := uuid.NewString()
	return &models.User{
		ID:           id,
		Email:        id[:8] + "@example.com",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHQ$a2V5a2V5",
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

// RunUserStorageTests runs the UserStorage contract against stores built by newStorage.
func RunUserStorageTests(t *testing.T, newStorage func(t *testing.T) storage.UserStorage) {
	t.Run("create and fetch", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		u := NewUser()
		require.NoError(t, s.CreateUser(ctx, u))

		byID, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.Email, byID.Email)
		assert.Equal(t, u.PasswordHash, byID.PasswordHash)

		byEmail, err := s.GetUserByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		u := NewUser()
		u.Email = "Mixed.Case@Example.com"
		require.NoError(t, s.CreateUser(ctx, u))

		got, err := s.GetUserByEmail(ctx, "MIXED.case@example.COM")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		dup := NewUser()
		dup.Email = "mixed.case@example.com"
		assert.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrUserAlreadyExists)
	})

	t.Run("missing user", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)

		_, err := s.GetUserByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		_, err = s.GetUserByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		err = s.UpdatePassword(ctx, uuid.NewString(), "hash", now())
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("update password", func(t *testing.T) {
		ctx := context.Background()
		s := newStorage(t)
		u := NewUser()
		require.NoError(t, s.CreateUser(ctx, u))

		changedAt := now().Add(time.Minute)
		require.NoError(t, s.UpdatePassword(ctx, u.ID, "new-hash", changedAt))

		got, err := s.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)
		assert.True(t, changedAt.Equal(got.UpdatedAt))
	})
}
