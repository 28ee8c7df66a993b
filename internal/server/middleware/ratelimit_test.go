package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rate int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rate, window, discardLogger())
	rl.now = func() time.Time { return now }
	t.Cleanup(rl.Stop)

	return rl, &now
}

func TestRateLimiter_Allow(t *testing.T) {
	rl, now := newTestLimiter(t, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, _ := rl.Allow("10.0.0.1")
		assert.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, retry := rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	// другие ключи считаются отдельно
	ok, _ = rl.Allow("10.0.0.2")
	assert.True(t, ok)

	*now = now.Add(30 * time.Second)
	ok, retry = rl.Allow("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, retry)

	*now = now.Add(30 * time.Second)
	ok, _ = rl.Allow("10.0.0.1")
	assert.True(t, ok, "bucket refills after the window")
}

func TestRateLimiter_DropIdle(t *testing.T) {
	rl, now := newTestLimiter(t, 1, time.Minute)

	rl.Allow("10.0.0.1")
	*now = now.Add(3 * time.Minute)
	rl.Allow("10.0.0.2")

	rl.dropIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.buckets, "10.0.0.1")
	assert.Contains(t, rl.buckets, "10.0.0.2")
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, discardLogger())
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}

func TestRateLimiter_Middleware(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign_in", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "rate limit exceeded")
		}
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

// Клиент, меняющий X-Forwarded-For на каждом запросе, остается в одном бакете
func TestRateLimiter_Middleware_IgnoresSpoofedForwardedFor(t *testing.T) {
	rl, _ := newTestLimiter(t, 2, time.Minute)
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign_in", nil)
		req.RemoteAddr = "203.0.113.7:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("192.0.2.%d", i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{
		http.StatusOK, http.StatusOK,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

// За доверенным прокси разные клиенты получают разные бакеты
func TestRateLimiter_Middleware_BehindTrustedProxy(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	require.NoError(t, rl.TrustProxies([]string{"10.0.0.0/8"}))
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/sign_in", nil)
		req.RemoteAddr = "10.0.0.5:443"
		req.Header.Set("X-Forwarded-For", xff)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	// подделанный левый адрес не меняет ключ: прокси дописал настоящий справа
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.99, 198.51.100.1"))
}

func TestRateLimiter_ClientIP(t *testing.T) {
	tests := []struct {
		headers    map[string]string
		name       string
		remoteAddr string
		want       string
		trusted    []string
	}{
		{name: "remote addr with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "remote addr without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 remote addr", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{
			name:       "X-Forwarded-For without trusted proxies",
			remoteAddr: "10.0.0.1:1",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			want:       "10.0.0.1",
		},
		{
			name:       "X-Forwarded-For from untrusted peer",
			remoteAddr: "198.51.100.9:1",
			trusted:    []string{"10.0.0.0/8"},
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			want:       "198.51.100.9",
		},
		{
			name:       "X-Forwarded-For from trusted proxy",
			remoteAddr: "10.0.0.1:1",
			trusted:    []string{"10.0.0.0/8"},
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.2"},
			want:       "203.0.113.1",
		},
		{
			name:       "spoofed entries left of the real client",
			remoteAddr: "10.0.0.1:1",
			trusted:    []string{"10.0.0.0/8"},
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.1"},
			want:       "203.0.113.1",
		},
		{
			name:       "every hop trusted",
			remoteAddr: "10.0.0.1:1",
			trusted:    []string{"10.0.0.0/8"},
			headers:    map[string]string{"X-Forwarded-For": "10.1.1.1, 10.0.0.2"},
			want:       "10.1.1.1",
		},
		{
			name:       "X-Real-IP from trusted proxy",
			remoteAddr: "10.0.0.1:1",
			trusted:    []string{"10.0.0.1"},
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "X-Real-IP from untrusted peer",
			remoteAddr: "10.0.0.1:1",
			trusted:    []string{"10.0.0.2"},
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "10.0.0.1",
		},
		{
			name:       "ipv6 trusted proxy",
			remoteAddr: "[fd00::1]:443",
			trusted:    []string{"fd00::/8"},
			headers:    map[string]string{"X-Forwarded-For": "2001:db8::7"},
			want:       "2001:db8::7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl, _ := newTestLimiter(t, 1, time.Minute)
			require.NoError(t, rl.TrustProxies(tt.trusted))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 192.168.1.10 ", "2001:db8::/32", "::ffff:172.16.0.1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 4)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.168.1.10/32", prefixes[1].String())
	assert.Equal(t, "2001:db8::/32", prefixes[2].String())
	assert.Equal(t, "172.16.0.1/32", prefixes[3].String())

	for _, bad := range []string{"10.0.0.0/33", "proxy.internal", ""} {
		_, err := ParseTrustedProxies([]string{bad})
		assert.Error(t, err, bad)
	}
}
