package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing the rotating credentials on client.
// Every successful response carries a new access-token, so SaveAuth is called
// after each authenticated request and must be durable before it returns.
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing the previous triplet
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	// Returns ErrAuthNotFound if no auth data exists
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated checks if credentials exist and have not expired at now
	IsAuthenticated(ctx context.Context, now time.Time) (bool, error)
}

// AuthData represents the uid/client/access-token triplet in storage.
// The token is a bearer secret: the database file is created with 0600.
type AuthData struct {
	Server      string `json:"server"`
	Email       string `json:"email"`
	UID         string `json:"uid"`
	Client      string `json:"client"`
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Expired reports whether the token is past its expiry at now.
// A zero ExpiresAt means the server did not send one.
func (a *AuthData) Expired(now time.Time) bool {
	return a.ExpiresAt != 0 && !now.Before(time.Unix(a.ExpiresAt, 0))
}
