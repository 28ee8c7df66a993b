package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/iudanet/tokenauth/pkg/api"
)

// CORSMiddleware разрешает кросс-доменные запросы с allowedOrigins ("*" - любой).
// Заголовки протокола и разрешены во входящих запросах, и открыты для чтения
// в ответах: без Expose-Headers браузерный клиент не увидит новый токен
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAny := slices.Contains(allowedOrigins, "*")
	authHeaders := strings.Join(api.AuthHeaderNames(), ", ")
	allowHeaders := "Content-Type, " + authHeaders

	return func(next http.Handler) http.Handler {
		if len(allowedOrigins) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || (!allowAny && !slices.Contains(allowedOrigins, origin)) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Expose-Headers", authHeaders)

			// preflight
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", allowHeaders)
				h.Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
