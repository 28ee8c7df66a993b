package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/tokenauth/internal/server/handlers"
	"github.com/iudanet/tokenauth/internal/session"
	"github.com/iudanet/tokenauth/pkg/api"
)

// TokenValidator проверяет тройку uid/client/access-token и выдает следующий токен
type TokenValidator interface {
	Validate(ctx context.Context, c session.Credentials) (session.Issued, error)
}

// TokenAuthMiddleware создает middleware для проверки ротируемого токена.
// Каждый успешный запрос тратит токен: новая тройка записывается в заголовки
// ответа до вызова handler, а uid и client попадают в контекст
func TokenAuthMiddleware(logger *slog.Logger, validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			headers, ok := api.ReadAuthHeaders(r.Header)
			if !ok {
				logger.DebugContext(ctx, "missing authentication headers")
				writeError(w, "missing authentication headers", http.StatusUnauthorized)
				return
			}

			issued, err := validator.Validate(ctx, session.Credentials{
				PrincipalID: headers.UID,
				ClientID:    headers.Client,
				Token:       headers.AccessToken,
			})
			if err != nil {
				switch {
				case errors.Is(err, session.ErrInvalidSession):
					// причина (нет сессии, истекла, чужой токен) клиенту не раскрывается
					writeError(w, "invalid session", http.StatusUnauthorized)
				case errors.Is(err, session.ErrRaceLost):
					w.Header().Set("Retry-After", "0")
					writeError(w, "session rotated concurrently, retry with the latest token", http.StatusConflict)
				default:
					logger.ErrorContext(ctx, "failed to validate token", slog.Any("error", err))
					writeError(w, "internal server error", http.StatusInternalServerError)
				}
				return
			}

			api.AuthHeaders{
				AccessToken: issued.Token,
				Client:      issued.ClientID,
				UID:         issued.PrincipalID,
				Expiry:      issued.ExpiresAt,
			}.Write(w.Header())

			ctx = handlers.WithIdentity(ctx, issued.PrincipalID, issued.ClientID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
