package api

import "time"

// RegisterRequest представляет запрос на регистрацию нового пользователя
type RegisterRequest struct {
	Email                string `json:"email" validate:"required,email,max=254"`
	Password             string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// LoginRequest представляет запрос на вход по email и паролю
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// ChangePasswordRequest представляет запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword      string `json:"current_password" validate:"required,max=128"`
	Password             string `json:"password" validate:"required,min=8,max=128,nefield=CurrentPassword"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// UserResponse представляет данные пользователя в ответах
type UserResponse struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Email     string    `json:"email"`
}

// AuthResponse возвращается при регистрации, входе и проверке токена.
// Сами токены передаются только в заголовках
type AuthResponse struct {
	Data    UserResponse `json:"data"`
	Success bool         `json:"success"`
}

// SessionResponse описывает одну сессию устройства
type SessionResponse struct {
	ExpiresAt  time.Time `json:"expires_at"`
	LastUsedAt time.Time `json:"last_used_at"`
	CreatedAt  time.Time `json:"created_at"`
	ClientID   string    `json:"client"`
	Current    bool      `json:"current"`
}

// SessionsResponse список сессий пользователя
type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// MessageResponse представляет простой ответ с сообщением
type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// RevokedResponse ответ на смену пароля: сколько других сессий завершено
type RevokedResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked"`
}

// HealthResponse ответ /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
