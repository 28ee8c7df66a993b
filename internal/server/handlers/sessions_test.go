package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/session"
	"github.com/iudanet/tokenauth/pkg/api"
)

func TestSessionsHandler_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID, current := env.registerUser(t, "user@example.com", "password123")
	other, err := env.manager.Issue(ctx, userID)
	require.NoError(t, err)

	// чужие сессии не видны
	env.registerUser(t, "someone@example.com", "password123")

	h := NewSessionsHandler(setupTestLogger(), env.manager)
	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/auth/sessions", nil, userID, current.ClientID))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse[api.SessionsResponse](t, w)
	require.Len(t, resp.Sessions, 2)

	byClient := make(map[string]api.SessionResponse)
	for _, s := range resp.Sessions {
		byClient[s.ClientID] = s
	}
	assert.True(t, byClient[current.ClientID].Current)
	assert.False(t, byClient[other.ClientID].Current)
	assert.NotContains(t, w.Body.String(), current.Token)
	assert.NotContains(t, w.Body.String(), "token_hash")
}

func TestSessionsHandler_List_Empty(t *testing.T) {
	env := newTestEnv(t)
	h := NewSessionsHandler(setupTestLogger(), env.manager)

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/auth/sessions", nil, "nobody", "c"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"sessions":[]}`, w.Body.String())
}

func TestSessionsHandler_Revoke(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	userID, current := env.registerUser(t, "user@example.com", "password123")
	other, err := env.manager.Issue(ctx, userID)
	require.NoError(t, err)
	strangerID, stranger := env.registerUser(t, "someone@example.com", "password123")

	mux := http.NewServeMux()
	h := NewSessionsHandler(setupTestLogger(), env.manager)
	mux.HandleFunc("DELETE /auth/sessions/{client}", h.Revoke)

	revoke := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := authedRequest(http.MethodDelete, "/auth/sessions/"+target, nil, userID, current.ClientID)
		w.Header().Set(api.HeaderAccessToken, "rotated")
		mux.ServeHTTP(w, req)
		return w
	}

	t.Run("other device", func(t *testing.T) {
		w := revoke(other.ClientID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "rotated", w.Header().Get(api.HeaderAccessToken), "current session keeps its new token")

		_, err := env.manager.Validate(ctx, session.Credentials{PrincipalID: userID, ClientID: other.ClientID, Token: other.Token})
		assert.ErrorIs(t, err, session.ErrInvalidSession)
	})

	t.Run("already revoked", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, revoke(other.ClientID).Code)
	})

	t.Run("another user's device", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, revoke(stranger.ClientID).Code)

		_, err := env.manager.Validate(ctx, session.Credentials{PrincipalID: strangerID, ClientID: stranger.ClientID, Token: stranger.Token})
		assert.NoError(t, err)
	})

	t.Run("current device", func(t *testing.T) {
		w := revoke(current.ClientID)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get(api.HeaderAccessToken))
	})
}

func TestSessionsHandler_Errors(t *testing.T) {
	h := NewSessionsHandler(setupTestLogger(), failingSessions{err: errors.New("db down")})

	w := httptest.NewRecorder()
	h.List(w, authedRequest(http.MethodGet, "/auth/sessions", nil, "u", "c"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// без path value
	w = httptest.NewRecorder()
	h.Revoke(w, authedRequest(http.MethodDelete, "/auth/sessions/", nil, "u", "c"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	h.List(w, httptest.NewRequest(http.MethodGet, "/auth/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
