package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/validation"
)

// Authenticator verifies a login secret and names the principal it belongs to.
// Implementations return ErrInvalidCredentials for any rejected attempt.
type Authenticator interface {
	Authenticate(ctx context.Context, login, secret string) (principalID string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, login, secret string) (string, error)

// Authenticate calls f.
func (f AuthenticatorFunc) Authenticate(ctx context.Context, login, secret string) (string, error) {
	return f(ctx, login, secret)
}

// PasswordAuthenticator authenticates email/password pairs against
// storage.UserStorage and owns password hashing for registration and changes.
type PasswordAuthenticator struct {
	users     storage.UserStorage
	now       func() time.Time
	dummyHash string
	params    crypto.PasswordParams
}

// NewPasswordAuthenticator prepares a dummy hash with params so that an unknown
// email costs as much as a wrong password.
func NewPasswordAuthenticator(users storage.UserStorage, params crypto.PasswordParams) (*PasswordAuthenticator, error) {
	dummy, err := crypto.HashPassword("tokenauth-dummy-password", params)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &PasswordAuthenticator{
		users:     users,
		params:    params,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Authenticate implements Authenticator.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (string, error) {
	user, err := a.users.GetUserByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			_, _ = crypto.VerifyPassword(password, a.dummyHash)
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := crypto.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return "", ErrInvalidCredentials
	}

	return user.ID, nil
}

// Register creates a user. Returns storage.ErrUserAlreadyExists when the
// email is taken.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, password string) (*models.User, error) {
	hash, err := crypto.HashPassword(password, a.params)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := a.now().UTC()
	user := &models.User{
		ID:           uuid.New().String(),
		Email:        validation.NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := a.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// ChangePassword replaces the password of userID after checking current.
// A wrong current password yields ErrInvalidCredentials.
func (a *PasswordAuthenticator) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := crypto.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrInvalidCredentials
	}

	hash, err := crypto.HashPassword(next, a.params)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := a.users.UpdatePassword(ctx, userID, hash, a.now().UTC()); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}
