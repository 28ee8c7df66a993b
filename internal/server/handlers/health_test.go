package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iudanet/tokenauth/internal/server/storage/memory"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		wantBody   string
		pingers    []Pinger
		wantStatus int
	}{
		{name: "no stores", wantStatus: http.StatusOK, wantBody: `{"status":"ok"}`},
		{name: "healthy", pingers: []Pinger{memory.New(), memory.New()}, wantStatus: http.StatusOK, wantBody: `{"status":"ok"}`},
		{
			name: "one store down",
			pingers: []Pinger{memory.New(), pingFunc(func(context.Context) error {
				return errors.New("connection refused")
			})},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"status":"unavailable"}`,
		},
		{
			name: "ping honours deadline",
			pingers: []Pinger{pingFunc(func(ctx context.Context) error {
				if _, ok := ctx.Deadline(); !ok {
					return errors.New("no deadline")
				}
				return nil
			})},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(setupTestLogger(), tt.pingers...)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.NotContains(t, w.Body.String(), "connection refused")
		})
	}
}
