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

func TestRateLimitMiddleware(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	})

	t.Run("rate limit not exceeded", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(1, 5)
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()

		handlerCalled = false
		middleware.RateLimit(handler).ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rate limit exceeded", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(0.001, 1)
		rateLimitHandler := middleware.RateLimit(handler)
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.RemoteAddr = "192.168.1.2:12345"

		// First request should succeed
		w := httptest.NewRecorder()
		handlerCalled = false
		rateLimitHandler.ServeHTTP(w, req)
		assert.True(t, handlerCalled)
		assert.Equal(t, http.StatusOK, w.Code)

		// Second request should be rate limited
		w = httptest.NewRecorder()
		handlerCalled = false
		rateLimitHandler.ServeHTTP(w, req)
		assert.False(t, handlerCalled)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)

		// Another client has its own budget
		other := httptest.NewRequest("GET", "/api/vehicles", nil)
		other.RemoteAddr = "192.168.1.3:12345"
		w = httptest.NewRecorder()
		rateLimitHandler.ServeHTTP(w, other)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tokens refill", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(1, 1)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		middleware.now = func() time.Time { return now }

		assert.True(t, middleware.allow("10.0.0.1"))
		assert.False(t, middleware.allow("10.0.0.1"))
		now = now.Add(time.Second)
		assert.True(t, middleware.allow("10.0.0.1"))
	})

	t.Run("idle clients are dropped", func(t *testing.T) {
		middleware := NewRateLimitMiddleware(1, 1)
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		middleware.now = func() time.Time { return now }

		middleware.allow("10.0.0.1")
		now = now.Add(2 * idleClientTTL)
		middleware.allow("10.0.0.2")
		assert.Len(t, middleware.clients, 1)
	})
}

func TestClientIP(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		trusted bool
		remote  string
		xff     string
		realIP  string
		want    string
	}{
		{"peer address", false, "10.1.2.3:4567", "", "", "10.1.2.3"},
		{"untrusted peer cannot spoof forwarded for", false, "203.0.113.50:4567", "198.51.100.1", "", "203.0.113.50"},
		{"untrusted peer cannot spoof real ip", false, "203.0.113.50:4567", "", "198.51.100.1", "203.0.113.50"},
		{"trusted proxy", true, "10.1.2.3:4567", "203.0.113.7", "", "203.0.113.7"},
		{"spoofed left-most hop is skipped", true, "10.1.2.3:4567", "198.51.100.1, 203.0.113.7, 10.0.0.1", "", "203.0.113.7"},
		{"single address proxy", true, "192.168.1.1:80", "203.0.113.7", "", "203.0.113.7"},
		{"trusted proxy with real ip", true, "10.1.2.3:4567", "", "172.16.0.9", "172.16.0.9"},
		{"trusted proxy without headers", true, "10.1.2.3:4567", "", "", "10.1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewRateLimitMiddleware(1, 1)
			if tt.trusted {
				m = NewRateLimitMiddleware(1, 1, proxies...)
			}
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			assert.Equal(t, tt.want, m.clientIP(req))
		})
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	handler := NewRateLimitMiddleware(0.001, 1).RateLimit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", "/api/vehicles", nil)
		req.RemoteAddr = "203.0.113.50:4567"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	got, err := ParseTrustedProxies([]string{" 10.0.0.0/8 ", "", "::1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.0.0.0/8", got[0].String())
	assert.Equal(t, "::1/128", got[1].String())

	_, err = ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
	_, err = ParseTrustedProxies([]string{"10.0.0.0/99"})
	assert.Error(t, err)
}
