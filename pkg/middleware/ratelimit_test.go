package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func limitedRequest(h http.Handler, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func frozenLimiter(rps float64, burst int) (*RateLimiter, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(rps, burst, discardLogger())
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl, _ := frozenLimiter(1, 3)
	h := rl.Handler(okHandler())

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, limitedRequest(h, "10.0.0.1:1").Code, "request %d", i+1)
	}

	rec := limitedRequest(h, "10.0.0.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, now := frozenLimiter(2, 1)
	h := rl.Handler(okHandler())

	assert.Equal(t, http.StatusOK, limitedRequest(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(h, "10.0.0.1:1").Code)

	*now = now.Add(600 * time.Millisecond)
	assert.Equal(t, http.StatusOK, limitedRequest(h, "10.0.0.1:1").Code)
}

func TestRateLimiter_ClientsAreIndependent(t *testing.T) {
	rl, _ := frozenLimiter(1, 1)
	h := rl.Handler(okHandler())

	assert.Equal(t, http.StatusOK, limitedRequest(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusTooManyRequests, limitedRequest(h, "10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, limitedRequest(h, "10.0.0.2:1").Code)
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	rl, now := frozenLimiter(5, 5)
	h := rl.Handler(okHandler())

	limitedRequest(h, "10.0.0.1:1")
	*now = now.Add(2 * time.Minute)
	limitedRequest(h, "10.0.0.2:1")

	*now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, rl.Sweep())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded chain", "203.0.113.5, 10.0.0.1", "", "10.0.0.9:1", "203.0.113.5"},
		{"forwarded garbage then ip", "unknown, 198.51.100.2", "", "10.0.0.9:1", "198.51.100.2"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.9:1", "198.51.100.7"},
		{"remote addr", "", "", "192.0.2.1:4444", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				req.Header.Set("X-Real-IP", tt.xri)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}
