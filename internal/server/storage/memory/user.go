package memory

import (
	"context"
	"strings"
	"time"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
)

type userRecord struct {
	user models.User
}

// CreateUser creates a new user
func (s *Storage) CreateUser(_ context.Context, user *models.User) error {
	email := strings.ToLower(user.Email)

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	if _, exists := s.emailIndex[email]; exists {
		return storage.ErrUserAlreadyExists
	}
	if _, exists := s.users[user.ID]; exists {
		return storage.ErrUserAlreadyExists
	}

	rec := &userRecord{user: *user}
	rec.user.Email = email
	s.users[user.ID] = rec
	s.emailIndex[email] = user.ID

	return nil
}

// GetUserByEmail retrieves user by email
func (s *Storage) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	id, ok := s.emailIndex[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	u := s.users[id].user
	return &u, nil
}

// GetUserByID retrieves user by ID
func (s *Storage) GetUserByID(_ context.Context, userID string) (*models.User, error) {
	s.usersMu.RLock()
	defer s.usersMu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	u := rec.user
	return &u, nil
}

// UpdatePassword replaces the stored password hash
func (s *Storage) UpdatePassword(_ context.Context, userID, passwordHash string, updatedAt time.Time) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	rec, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	rec.user.PasswordHash = passwordHash
	rec.user.UpdatedAt = updatedAt

	return nil
}
