// Package server собирает HTTP маршруты сервиса авторизации
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/tokenauth/internal/server/handlers"
	"github.com/iudanet/tokenauth/internal/server/middleware"
	"github.com/iudanet/tokenauth/internal/session"
)

// Deps зависимости, из которых собирается роутер
type Deps struct {
	Logger   *slog.Logger
	Sessions *session.Manager
	Accounts handlers.Accounts
	Users    handlers.UserReader
	// RateLimiter ограничивает регистрацию и вход. nil отключает лимит
	RateLimiter *middleware.RateLimiter
	Pingers     []handlers.Pinger
	CORSOrigins []string
}

// NewRouter регистрирует все маршруты и оборачивает их общими middleware:
// Recovery -> Logging -> CORS -> mux
func NewRouter(d Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(d.Logger, d.Sessions, d.Accounts, d.Users)
	sessionsHandler := handlers.NewSessionsHandler(d.Logger, d.Sessions)
	meHandler := handlers.NewMeHandler(d.Logger, d.Users)
	healthHandler := handlers.NewHealthHandler(d.Logger, d.Pingers...)

	tokenAuth := middleware.TokenAuthMiddleware(d.Logger, d.Sessions)
	limit := func(h http.HandlerFunc) http.Handler {
		if d.RateLimiter == nil {
			return h
		}
		return d.RateLimiter.Middleware(h)
	}

	mux := http.NewServeMux()

	// Публичные маршруты
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("POST /auth", limit(authHandler.Register))
	mux.Handle("POST /auth/sign_in", limit(authHandler.SignIn))

	// Маршруты с проверкой и ротацией токена
	mux.Handle("DELETE /auth/sign_out", tokenAuth(http.HandlerFunc(authHandler.SignOut)))
	mux.Handle("GET /auth/validate_token", tokenAuth(http.HandlerFunc(authHandler.ValidateToken)))
	mux.Handle("PUT /auth/password", tokenAuth(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("GET /auth/sessions", tokenAuth(http.HandlerFunc(sessionsHandler.List)))
	mux.Handle("DELETE /auth/sessions/{client}", tokenAuth(http.HandlerFunc(sessionsHandler.Revoke)))
	mux.Handle("GET /api/v1/me", tokenAuth(http.HandlerFunc(meHandler.Me)))

	var h http.Handler = mux
	h = middleware.CORSMiddleware(d.CORSOrigins)(h)
	h = middleware.LoggingMiddleware(d.Logger, "/health")(h)
	h = middleware.RecoveryMiddleware(d.Logger)(h)

	return h
}
