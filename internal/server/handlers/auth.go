package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/session"
	"github.com/iudanet/tokenauth/internal/validation"
	"github.com/iudanet/tokenauth/pkg/api"
)

// SessionManager операции над сессиями устройств, нужные HTTP слою
type SessionManager interface {
	Login(ctx context.Context, login, secret string) (session.Issued, error)
	Issue(ctx context.Context, principalID string) (session.Issued, error)
	Revoke(ctx context.Context, principalID, clientID string) error
	RevokeOthers(ctx context.Context, principalID, keepClientID string) (int, error)
	Sessions(ctx context.Context, principalID string) ([]*models.DeviceSession, error)
}

// Accounts регистрация и смена пароля
type Accounts interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

// UserReader чтение пользователя по ID
type UserReader interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler обрабатывает регистрацию, вход, выход и проверку токена
type AuthHandler struct {
	logger   *slog.Logger
	sessions SessionManager
	accounts Accounts
	users    UserReader
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, sessions SessionManager, accounts Accounts, users UserReader) *AuthHandler {
	return &AuthHandler{
		logger:   logger,
		sessions: sessions,
		accounts: accounts,
		users:    users,
	}
}

// Register обрабатывает POST /auth
// Регистрация нового пользователя и сразу вход с нового устройства
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		sendError(w, h.logger, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	user, err := h.accounts.Register(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists")
			sendError(w, h.logger, "email already taken", http.StatusConflict)
			return
		}
		h.logger.ErrorContext(ctx, "failed to register user", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	issued, err := h.sessions.Issue(ctx, user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue session", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully", slog.String("user_id", user.ID))

	writeAuthHeaders(w, issued)
	sendJSON(w, h.logger, api.AuthResponse{Success: true, Data: userResponse(user)}, http.StatusCreated)
}

// SignIn обрабатывает POST /auth/sign_in
// Любая ошибка входа (нет пользователя или неверный пароль) дает один и тот же ответ
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		sendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
		return
	}

	issued, err := h.sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			sendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to sign in", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	user, err := h.users.GetUserByID(ctx, issued.PrincipalID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user signed in",
		slog.String("user_id", issued.PrincipalID),
		slog.String("client_id", issued.ClientID))

	writeAuthHeaders(w, issued)
	sendJSON(w, h.logger, api.AuthResponse{Success: true, Data: userResponse(user)}, http.StatusOK)
}

// SignOut обрабатывает DELETE /auth/sign_out
// Завершает сессию текущего устройства. Токен уже проверен middleware
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, clientID, ok := identity(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	// новая тройка от middleware больше ни к чему
	clearAuthHeaders(w)

	if err := h.sessions.Revoke(ctx, userID, clientID); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			sendError(w, h.logger, "session not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to sign out", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	sendJSON(w, h.logger, api.MessageResponse{Success: true, Message: "signed out"}, http.StatusOK)
}

// ValidateToken обрабатывает GET /auth/validate_token
// Middleware уже проверил и обновил токен, здесь только отдаем пользователя
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, _, ok := identity(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		writeUserError(ctx, w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, api.AuthResponse{Success: true, Data: userResponse(user)}, http.StatusOK)
}

// ChangePassword обрабатывает PUT /auth/password
// После смены пароля все остальные устройства пользователя разлогиниваются
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, clientID, ok := identity(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req api.ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		sendError(w, h.logger, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		sendError(w, h.logger, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	err := h.accounts.ChangePassword(ctx, userID, req.CurrentPassword, req.Password)
	if err != nil {
		// 422, а не 401: сессия валидна, неверен только текущий пароль
		if errors.Is(err, session.ErrInvalidCredentials) {
			sendError(w, h.logger, "current password is invalid", http.StatusUnprocessableEntity)
			return
		}
		h.logger.ErrorContext(ctx, "failed to change password", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	revoked, err := h.sessions.RevokeOthers(ctx, userID, clientID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke other sessions", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", userID),
		slog.Int("revoked", revoked))

	sendJSON(w, h.logger, api.RevokedResponse{Message: "password updated", Revoked: revoked}, http.StatusOK)
}

func identity(ctx context.Context) (userID, clientID string, ok bool) {
	userID, okUser := GetUserID(ctx)
	clientID, okClient := GetClientID(ctx)
	return userID, clientID, okUser && okClient
}
