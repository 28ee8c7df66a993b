// Package api HTTP клиент сервиса авторизации. Хранит ротируемую тройку
// uid/client/access-token и заменяет ее после каждого ответа сервера
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/iudanet/tokenauth/internal/client/storage"
	"github.com/iudanet/tokenauth/pkg/api"
)

var (
	// ErrNotAuthenticated нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionInvalid сервер отверг токен (сессия завершена, истекла или токен устарел)
	ErrSessionInvalid = errors.New("session is no longer valid")
	// ErrRotationConflict токен одновременно потратил другой запрос
	ErrRotationConflict = errors.New("session rotated concurrently")
)

// ServerError ответ сервера с кодом не 2xx
type ServerError struct {
	Message    string
	StatusCode int
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	store      storage.AuthStorage
	baseURL    string
	// mu сериализует запросы с токеном: каждый из них тратит текущий токен
	mu sync.Mutex
}

// NewClient создает новый API клиент. store хранит тройку между запусками
func NewClient(baseURL string, store storage.AuthStorage) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		store:   store,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Заголовки протокола переносим только на тот же хост
				if len(via) > 0 && req.URL.Host == via[0].URL.Host {
					for _, name := range api.AuthHeaderNames() {
						if v := via[0].Header.Get(name); v != "" {
							req.Header.Set(name, v)
						}
					}
				}
				return nil
			},
		},
	}
}

// BaseURL адрес сервера
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Register регистрирует нового пользователя и сохраняет выданную сессию
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.signIn(ctx, http.MethodPost, "/auth", req, req.Email, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет вход и сохраняет тройку нового устройства
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.signIn(ctx, http.MethodPost, "/auth/sign_in", req, req.Email, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Logout завершает сессию на сервере и удаляет локальную тройку.
// Локальные данные удаляются, даже если сервер уже не знает сессию
func (c *Client) Logout(ctx context.Context) error {
	var resp api.MessageResponse
	err := c.doAuthed(ctx, http.MethodDelete, "/auth/sign_out", nil, &resp)

	if delErr := c.store.DeleteAuth(ctx); delErr != nil && !errors.Is(delErr, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local session: %w", delErr)
	}

	switch {
	case err == nil, errors.Is(err, ErrSessionInvalid), IsStatus(err, http.StatusNotFound):
		return nil
	default:
		return fmt.Errorf("logout request failed: %w", err)
	}
}

// IsStatus сообщает, что err ответ сервера с кодом code
func IsStatus(err error, code int) bool {
	var se *ServerError
	return errors.As(err, &se) && se.StatusCode == code
}

// ValidateToken проверяет сессию (и ротирует токен)
func (c *Client) ValidateToken(ctx context.Context) (*api.AuthResponse, error) {
	var resp api.AuthResponse
	if err := c.doAuthed(ctx, http.MethodGet, "/auth/validate_token", nil, &resp); err != nil {
		return nil, fmt.Errorf("validate token request failed: %w", err)
	}
	return &resp, nil
}

// Me возвращает текущего пользователя
func (c *Client) Me(ctx context.Context) (*api.UserResponse, error) {
	var resp api.UserResponse
	if err := c.doAuthed(ctx, http.MethodGet, "/api/v1/me", nil, &resp); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &resp, nil
}

// Sessions список сессий устройств пользователя
func (c *Client) Sessions(ctx context.Context) (*api.SessionsResponse, error) {
	var resp api.SessionsResponse
	if err := c.doAuthed(ctx, http.MethodGet, "/auth/sessions", nil, &resp); err != nil {
		return nil, fmt.Errorf("sessions request failed: %w", err)
	}
	return &resp, nil
}

// RevokeSession завершает сессию другого устройства
func (c *Client) RevokeSession(ctx context.Context, clientID string) error {
	var resp api.MessageResponse
	if err := c.doAuthed(ctx, http.MethodDelete, "/auth/sessions/"+url.PathEscape(clientID), nil, &resp); err != nil {
		return fmt.Errorf("revoke session request failed: %w", err)
	}
	return nil
}

// ChangePassword меняет пароль. Сервер завершает все остальные сессии
func (c *Client) ChangePassword(ctx context.Context, req api.ChangePasswordRequest) (*api.RevokedResponse, error) {
	var resp api.RevokedResponse
	if err := c.doAuthed(ctx, http.MethodPut, "/auth/password", req, &resp); err != nil {
		return nil, fmt.Errorf("change password request failed: %w", err)
	}
	return &resp, nil
}

// signIn выполняет запрос без токена и сохраняет выданную тройку
func (c *Client) signIn(ctx context.Context, method, path string, body any, email string, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp, err := c.doRequest(ctx, method, path, body, nil, result)
	if err != nil {
		return err
	}

	headers, ok := api.ReadAuthHeaders(resp.Header)
	if !ok {
		return fmt.Errorf("server response has no session headers")
	}
	return c.save(ctx, headers, email)
}

// doAuthed выполняет запрос с текущей тройкой. Новая тройка из ответа
// сохраняется до разбора тела, в том числе при ответе с ошибкой
func (c *Client) doAuthed(ctx context.Context, method, path string, body, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	auth, err := c.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to load session: %w", err)
	}

	current := api.AuthHeaders{
		AccessToken: auth.AccessToken,
		Client:      auth.Client,
		UID:         auth.UID,
	}

	resp, err := c.doRequest(ctx, method, path, body, &current, result)
	if resp != nil {
		if next, ok := api.ReadAuthHeaders(resp.Header); ok && next.AccessToken != current.AccessToken {
			if saveErr := c.save(ctx, next, auth.Email); saveErr != nil {
				return errors.Join(err, saveErr)
			}
		}
	}
	if err == nil {
		return nil
	}

	var se *ServerError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrSessionInvalid, se.Message)
		case http.StatusConflict:
			if resp != nil && resp.Header.Get("Retry-After") != "" {
				return ErrRotationConflict
			}
		}
	}
	return err
}

func (c *Client) save(ctx context.Context, h api.AuthHeaders, email string) error {
	auth := &storage.AuthData{
		Server:      c.baseURL,
		Email:       email,
		UID:         h.UID,
		Client:      h.Client,
		AccessToken: h.AccessToken,
	}
	if !h.Expiry.IsZero() {
		auth.ExpiresAt = h.Expiry.Unix()
	}

	if err := c.store.SaveAuth(ctx, auth); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос. Ответ возвращается и при ошибке статуса,
// чтобы вызывающий мог прочитать заголовки
func (c *Client) doRequest(ctx context.Context, method, path string, body any, auth *api.AuthHeaders, result any) (*http.Response, error) {
	target := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		req.Header.Set(api.HeaderAccessToken, auth.AccessToken)
		req.Header.Set(api.HeaderTokenType, api.TokenTypeBearer)
		req.Header.Set(api.HeaderClient, auth.Client)
		req.Header.Set(api.HeaderUID, auth.UID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &ServerError{StatusCode: resp.StatusCode}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			se.Message = errResp.Message
		}
		return resp, se
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return resp, nil
}
