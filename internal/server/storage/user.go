package storage

import (
	"context"
	"time"

	"github.com/iudanet/tokenauth/internal/models"
)

// UserStorage defines interface for principal persistence
type UserStorage interface {
	// CreateUser creates a new user
	// Returns ErrUserAlreadyExists if the email is taken (case-insensitive)
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves user by email, compared case-insensitively
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves user by ID
	// Returns ErrUserNotFound if user doesn't exist
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdatePassword replaces the stored password hash
	// Returns ErrUserNotFound if user doesn't exist
	UpdatePassword(ctx context.Context, userID, passwordHash string, updatedAt time.Time) error
}
