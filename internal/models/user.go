package models

import "time"

// User is an authenticated principal.
type User struct {
	CreatedAt    time.Time `json:"created_at"` // registration time
	UpdatedAt    time.Time `json:"updated_at"` // last password change
	ID           string    `json:"id"`         // UUID of the user
	Email        string    `json:"email"`      // lower-cased, unique
	PasswordHash string    `json:"-"`          // Argon2id PHC string, never serialized
}
