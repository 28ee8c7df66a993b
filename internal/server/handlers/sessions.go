package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/pkg/api"
)

// SessionsHandler управление сессиями устройств текущего пользователя
type SessionsHandler struct {
	logger   *slog.Logger
	sessions SessionManager
}

// NewSessionsHandler создает handler для списка и отзыва сессий
func NewSessionsHandler(logger *slog.Logger, sessions SessionManager) *SessionsHandler {
	return &SessionsHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// List обрабатывает GET /auth/sessions
func (h *SessionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, clientID, ok := identity(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessions, err := h.sessions.Sessions(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list sessions", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	resp := api.SessionsResponse{Sessions: make([]api.SessionResponse, 0, len(sessions))}
	for _, s := range sessions {
		resp.Sessions = append(resp.Sessions, api.SessionResponse{
			ClientID:   s.ClientID,
			CreatedAt:  s.CreatedAt,
			LastUsedAt: s.LastUsedAt,
			ExpiresAt:  s.ExpiresAt,
			Current:    s.ClientID == clientID,
		})
	}

	sendJSON(w, h.logger, resp, http.StatusOK)
}

// Revoke обрабатывает DELETE /auth/sessions/{client}
// Разлогинивает указанное устройство (можно и текущее)
func (h *SessionsHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, currentClient, ok := identity(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	// Извлекаем client из path parameter (Go 1.22+)
	target := r.PathValue("client")
	if target == "" {
		sendError(w, h.logger, "client is required", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Revoke(ctx, userID, target); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			sendError(w, h.logger, "session not found", http.StatusNotFound)
			return
		}
		h.logger.ErrorContext(ctx, "failed to revoke session", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	if target == currentClient {
		clearAuthHeaders(w)
	}

	sendJSON(w, h.logger, api.MessageResponse{Success: true, Message: "session revoked"}, http.StatusOK)
}
