package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage"
	"github.com/iudanet/tokenauth/internal/session"
	"github.com/iudanet/tokenauth/pkg/api"
)

// maxBodyBytes ограничение размера тела запроса
const maxBodyBytes = 1 << 20

// sendJSON отправляет JSON ответ
func sendJSON(w http.ResponseWriter, logger *slog.Logger, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func sendError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	sendJSON(w, logger, resp, statusCode)
}

// decodeJSON читает тело запроса в dst, отвергая лишние поля
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeAuthHeaders отдает клиенту новую тройку uid/client/access-token
func writeAuthHeaders(w http.ResponseWriter, issued session.Issued) {
	api.AuthHeaders{
		AccessToken: issued.Token,
		Client:      issued.ClientID,
		UID:         issued.PrincipalID,
		Expiry:      issued.ExpiresAt,
	}.Write(w.Header())
}

// clearAuthHeaders убирает заголовки, выставленные middleware, когда сессии больше нет
func clearAuthHeaders(w http.ResponseWriter) {
	for _, name := range api.AuthHeaderNames() {
		w.Header().Del(name)
	}
}

func userResponse(u *models.User) api.UserResponse {
	return api.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// writeUserError отвечает 404 на отсутствующего пользователя и 500 на ошибку хранилища
func writeUserError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	if errors.Is(err, storage.ErrUserNotFound) {
		logger.WarnContext(ctx, "session belongs to a missing user")
		sendError(w, logger, "user not found", http.StatusNotFound)
		return
	}
	logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
	sendError(w, logger, "internal server error", http.StatusInternalServerError)
}
