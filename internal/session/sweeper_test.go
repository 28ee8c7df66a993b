package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
)

func TestSweeper_SweepOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testConfig())
	uid := f.register(t, "olga@example.com", "password1")

	old, err := f.manager.Issue(ctx, uid)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)
	fresh, err := f.manager.Issue(ctx, uid)
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)

	sweeper := NewSweeper(f.store, time.Hour, discardLogger())
	sweeper.now = f.clock.Now

	n, err := sweeper.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = f.store.GetSession(ctx, uid, old.ClientID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, err = f.store.GetSession(ctx, uid, fresh.ClientID)
	assert.NoError(t, err)
}

func TestSweeper_RunStopsWithContext(t *testing.T) {
	var calls atomic.Int32
	store := delegate(memory.New())
	store.DeleteExpiredSessionsFunc = func(context.Context, time.Time) (int, error) {
		calls.Add(1)
		return 0, nil
	}

	sweeper := NewSweeper(store, 5*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_DisabledInterval(t *testing.T) {
	store := &storage.SessionStorageMock{}
	sweeper := NewSweeper(store, 0, discardLogger())

	sweeper.Run(context.Background())
	assert.Empty(t, store.DeleteExpiredSessionsCalls())
}
