package handlers

import (
	"log/slog"
	"net/http"
)

// MeHandler пример защищенного ресурса
type MeHandler struct {
	logger *slog.Logger
	users  UserReader
}

// NewMeHandler создает handler для GET /api/v1/me
func NewMeHandler(logger *slog.Logger, users UserReader) *MeHandler {
	return &MeHandler{
		logger: logger,
		users:  users,
	}
}

// Me обрабатывает GET /api/v1/me
func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := GetUserID(ctx)
	if !ok {
		sendError(w, h.logger, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUserByID(ctx, userID)
	if err != nil {
		writeUserError(ctx, w, h.logger, err)
		return
	}

	sendJSON(w, h.logger, userResponse(user), http.StatusOK)
}
