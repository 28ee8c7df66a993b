package api

import (
	"net/http"
	"strconv"
	"time"
)

// Заголовки протокола. Клиент отправляет их с каждым запросом,
// сервер возвращает новые значения в каждом успешном ответе
const (
	HeaderAccessToken = "access-token"
	HeaderTokenType   = "token-type"
	HeaderClient      = "client"
	HeaderExpiry      = "expiry"
	HeaderUID         = "uid"

	// TokenTypeBearer значение заголовка token-type
	TokenTypeBearer = "Bearer"
)

// AuthHeaders тройка uid/client/access-token вместе со сроком действия
type AuthHeaders struct {
	Expiry      time.Time
	AccessToken string
	Client      string
	UID         string
}

// AuthHeaderNames все заголовки протокола, например для CORS Expose-Headers
func AuthHeaderNames() []string {
	return []string{HeaderAccessToken, HeaderTokenType, HeaderClient, HeaderExpiry, HeaderUID}
}

// Write записывает заголовки в h
func (a AuthHeaders) Write(h http.Header) {
	h.Set(HeaderAccessToken, a.AccessToken)
	h.Set(HeaderTokenType, TokenTypeBearer)
	h.Set(HeaderClient, a.Client)
	h.Set(HeaderExpiry, strconv.FormatInt(a.Expiry.Unix(), 10))
	h.Set(HeaderUID, a.UID)
}

// ReadAuthHeaders читает тройку из h. ok == false, если хотя бы одного
// обязательного заголовка нет. Срок действия необязателен
func ReadAuthHeaders(h http.Header) (a AuthHeaders, ok bool) {
	a = AuthHeaders{
		AccessToken: h.Get(HeaderAccessToken),
		Client:      h.Get(HeaderClient),
		UID:         h.Get(HeaderUID),
	}
	if sec, err := strconv.ParseInt(h.Get(HeaderExpiry), 10, 64); err == nil {
		a.Expiry = time.Unix(sec, 0).UTC()
	}

	return a, a.AccessToken != "" && a.Client != "" && a.UID != ""
}
