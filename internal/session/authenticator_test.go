package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
)

func newTestAuthenticator(t *testing.T) (*PasswordAuthenticator, *memory.Storage) {
	t.Helper()

	store := memory.New()
	auth, err := NewPasswordAuthenticator(store, testPasswordParams)
	require.NoError(t, err)
	return auth, store
}

func TestPasswordAuthenticator_Register(t *testing.T) {
	ctx := context.Background()
	auth, store := newTestAuthenticator(t)

	user, err := auth.Register(ctx, "  Lee@Example.com ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "lee@example.com", user.Email)
	assert.NotEmpty(t, user.ID)
	assert.NotContains(t, user.PasswordHash, "password1")

	stored, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	ok, err := crypto.VerifyPassword("password1", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = auth.Register(ctx, "LEE@example.com", "password2")
	assert.ErrorIs(t, err, storage.ErrUserAlreadyExists)
}

func TestPasswordAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthenticator(t)

	user, err := auth.Register(ctx, "mia@example.com", "password1")
	require.NoError(t, err)

	tests := []struct {
		wantErr  error
		name     string
		email    string
		password string
		wantID   string
	}{
		{name: "valid", email: "mia@example.com", password: "password1", wantID: user.ID},
		{name: "email case ignored", email: "MIA@example.com", password: "password1", wantID: user.ID},
		{name: "wrong password", email: "mia@example.com", password: "nope-nope", wantErr: ErrInvalidCredentials},
		{name: "unknown email", email: "ghost@example.com", password: "password1", wantErr: ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Authenticate(ctx, tt.email, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, id)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestPasswordAuthenticator_ChangePassword(t *testing.T) {
	ctx := context.Background()
	auth, _ := newTestAuthenticator(t)

	user, err := auth.Register(ctx, "ned@example.com", "password1")
	require.NoError(t, err)

	err = auth.ChangePassword(ctx, user.ID, "wrong-password", "password2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, auth.ChangePassword(ctx, user.ID, "password1", "password2"))

	_, err = auth.Authenticate(ctx, "ned@example.com", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	id, err := auth.Authenticate(ctx, "ned@example.com", "password2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	err = auth.ChangePassword(ctx, "missing-user", "password2", "password3")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
