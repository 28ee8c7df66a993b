package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/server/handlers"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
	"github.com/iudanet/tokenauth/internal/session"
	"github.com/iudanet/tokenauth/pkg/api"
)

// validatorFunc позволяет подставить любой результат проверки
type validatorFunc func(ctx context.Context, c session.Credentials) (session.Issued, error)

func (f validatorFunc) Validate(ctx context.Context, c session.Credentials) (session.Issued, error) {
	return f(ctx, c)
}

// identityHandler отвечает uid и client из контекста
func identityHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := handlers.GetUserID(r.Context())
		require.True(t, ok, "user_id should be in context")
		clientID, ok := handlers.GetClientID(r.Context())
		require.True(t, ok, "client_id should be in context")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(userID + "/" + clientID))
	}
}

func newRequest(h api.AuthHeaders) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	if h.AccessToken != "" {
		req.Header.Set(api.HeaderAccessToken, h.AccessToken)
	}
	if h.Client != "" {
		req.Header.Set(api.HeaderClient, h.Client)
	}
	if h.UID != "" {
		req.Header.Set(api.HeaderUID, h.UID)
	}
	return req
}

func TestTokenAuthMiddleware_RotatesOnEveryRequest(t *testing.T) {
	ctx := context.Background()
	manager, err := session.NewManager(session.DefaultConfig(), memory.New(), nil, session.WithLogger(discardLogger()))
	require.NoError(t, err)

	issued, err := manager.Issue(ctx, "user-1")
	require.NoError(t, err)

	handler := TokenAuthMiddleware(discardLogger(), manager)(identityHandler(t))

	current := api.AuthHeaders{AccessToken: issued.Token, Client: issued.ClientID, UID: issued.PrincipalID}
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newRequest(current))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-1/"+issued.ClientID, w.Body.String())

		next, ok := api.ReadAuthHeaders(w.Header())
		require.True(t, ok)
		assert.Equal(t, api.TokenTypeBearer, w.Header().Get(api.HeaderTokenType))
		assert.NotEqual(t, current.AccessToken, next.AccessToken)
		assert.Equal(t, issued.ClientID, next.Client)
		assert.False(t, next.Expiry.IsZero())

		// предыдущий токен больше не принимается
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, newRequest(current))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		current = next
	}
}

func TestTokenAuthMiddleware_MissingHeaders(t *testing.T) {
	called := false
	validator := validatorFunc(func(context.Context, session.Credentials) (session.Issued, error) {
		called = true
		return session.Issued{}, nil
	})
	handler := TokenAuthMiddleware(discardLogger(), validator)(http.NotFoundHandler())

	tests := []struct {
		name    string
		headers api.AuthHeaders
	}{
		{name: "no headers"},
		{name: "no token", headers: api.AuthHeaders{Client: "c", UID: "u"}},
		{name: "no client", headers: api.AuthHeaders{AccessToken: "t", UID: "u"}},
		{name: "no uid", headers: api.AuthHeaders{AccessToken: "t", Client: "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, newRequest(tt.headers))

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "missing authentication headers")
		})
	}
	assert.False(t, called, "validator must not be called without credentials")
}

func TestTokenAuthMiddleware_ErrorMapping(t *testing.T) {
	tests := []struct {
		err            error
		name           string
		wantBody       string
		wantRetryAfter string
		wantStatus     int
	}{
		{name: "unknown session", err: session.ErrUnknownSession, wantStatus: http.StatusUnauthorized, wantBody: "invalid session"},
		{name: "expired", err: session.ErrExpired, wantStatus: http.StatusUnauthorized, wantBody: "invalid session"},
		{name: "mismatch", err: session.ErrTokenMismatch, wantStatus: http.StatusUnauthorized, wantBody: "invalid session"},
		{name: "race lost", err: session.ErrRaceLost, wantStatus: http.StatusConflict, wantBody: "retry with the latest token", wantRetryAfter: "0"},
		{name: "storage failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantBody: "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := validatorFunc(func(context.Context, session.Credentials) (session.Issued, error) {
				return session.Issued{}, tt.err
			})
			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				t.Fatal("handler must not run")
			})

			w := httptest.NewRecorder()
			TokenAuthMiddleware(discardLogger(), validator)(next).
				ServeHTTP(w, newRequest(api.AuthHeaders{AccessToken: "t", Client: "c", UID: "u"}))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, tt.wantRetryAfter, w.Header().Get("Retry-After"))
			assert.Empty(t, w.Header().Get(api.HeaderAccessToken))
			// причина отказа не раскрывается
			assert.NotContains(t, w.Body.String(), "expired")
			assert.NotContains(t, w.Body.String(), "mismatch")
		})
	}
}

func TestTokenAuthMiddleware_PassesCredentials(t *testing.T) {
	var got session.Credentials
	validator := validatorFunc(func(_ context.Context, c session.Credentials) (session.Issued, error) {
		got = c
		return session.Issued{
			PrincipalID: c.PrincipalID,
			ClientID:    c.ClientID,
			Token:       "next",
			ExpiresAt:   time.Unix(1800000000, 0),
		}, nil
	})

	w := httptest.NewRecorder()
	TokenAuthMiddleware(discardLogger(), validator)(identityHandler(t)).
		ServeHTTP(w, newRequest(api.AuthHeaders{AccessToken: "tok", Client: "dev-1", UID: "user-9"}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.Credentials{PrincipalID: "user-9", ClientID: "dev-1", Token: "tok"}, got)
	assert.Equal(t, "next", w.Header().Get(api.HeaderAccessToken))
	assert.Equal(t, "1800000000", w.Header().Get(api.HeaderExpiry))
}
