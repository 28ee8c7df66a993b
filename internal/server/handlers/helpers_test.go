package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iudanet/tokenauth/internal/crypto"
	"github.com/iudanet/tokenauth/internal/models"
	"github.com/iudanet/tokenauth/internal/server/storage/memory"
	"github.com/iudanet/tokenauth/internal/session"
)

// setupTestLogger создает logger для тестов
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// дешевые параметры argon2id, чтобы тесты не тормозили
var testPasswordParams = crypto.PasswordParams{
	MemoryKiB:   8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type testEnv struct {
	store   *memory.Storage
	manager *session.Manager
	auth    *session.PasswordAuthenticator
	handler *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	auth, err := session.NewPasswordAuthenticator(store, testPasswordParams)
	require.NoError(t, err)

	cfg := session.DefaultConfig()
	cfg.SessionTTL = time.Hour
	manager, err := session.NewManager(cfg, store, auth, session.WithLogger(setupTestLogger()))
	require.NoError(t, err)

	return &testEnv{
		store:   store,
		manager: manager,
		auth:    auth,
		handler: NewAuthHandler(setupTestLogger(), manager, auth, store),
	}
}

// registerUser создает пользователя и открывает для него сессию
func (e *testEnv) registerUser(t *testing.T, email, password string) (string, session.Issued) {
	t.Helper()

	user, err := e.auth.Register(context.Background(), email, password)
	require.NoError(t, err)
	issued, err := e.manager.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	return user.ID, issued
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// authedRequest имитирует запрос, уже прошедший TokenAuthMiddleware
func authedRequest(method, target string, body io.Reader, userID, clientID string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(WithIdentity(req.Context(), userID, clientID))
}

func decodeResponse[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// failingSessions SessionManager, у которого все операции падают
type failingSessions struct {
	err error
}

func (f failingSessions) Login(context.Context, string, string) (session.Issued, error) {
	return session.Issued{}, f.err
}

func (f failingSessions) Issue(context.Context, string) (session.Issued, error) {
	return session.Issued{}, f.err
}

func (f failingSessions) Revoke(context.Context, string, string) error { return f.err }

func (f failingSessions) RevokeOthers(context.Context, string, string) (int, error) { return 0, f.err }

func (f failingSessions) Sessions(context.Context, string) ([]*models.DeviceSession, error) {
	return nil, f.err
}
