package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/tokenauth/pkg/api"
)

// Pinger хранилище, доступность которого проверяет /health
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler обрабатывает health check запросы
type HealthHandler struct {
	logger  *slog.Logger
	pingers []Pinger
	timeout time.Duration
}

// NewHealthHandler создает новый handler для health check
func NewHealthHandler(logger *slog.Logger, pingers ...Pinger) *HealthHandler {
	return &HealthHandler{
		logger:  logger,
		pingers: pingers,
		timeout: 2 * time.Second,
	}
}

// Health обрабатывает GET /health
// Возвращает 503, если хотя бы одно хранилище недоступно
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	for _, p := range h.pingers {
		if err := p.Ping(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed", slog.Any("error", err))
			sendJSON(w, h.logger, api.HealthResponse{Status: "unavailable"}, http.StatusServiceUnavailable)
			return
		}
	}

	sendJSON(w, h.logger, api.HealthResponse{Status: "ok"}, http.StatusOK)
}
