package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesmith/filesmith/internal/log"
)

func TestRateLimiter_Allow(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(1.0, 3)

	for i := range 3 {
		assert.True(t, rl.allow("10.0.0.1"), "request %d should pass", i)
	}
	assert.False(t, rl.allow("10.0.0.1"), "burst exhausted")

	// Different IP has its own bucket.
	assert.True(t, rl.allow("10.0.0.2"))
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	rl := newRateLimiter(0.001, 2)
	handler := rateLimitMiddleware(rl, false, log.NewNop())(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, do().Code)
	require.Equal(t, http.StatusOK, do().Code)

	rec := do()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "192.168.1.5:51234",
			want:       "192.168.1.5",
		},
		{
			name:       "headers ignored without trust",
			remoteAddr: "192.168.1.5:51234",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			want:       "192.168.1.5",
		},
		{
			name:       "x-real-ip trusted",
			remoteAddr: "192.168.1.5:51234",
			headers:    map[string]string{"X-Real-IP": "1.2.3.4"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "x-forwarded-for first hop",
			remoteAddr: "192.168.1.5:51234",
			headers:    map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "non-IP header value falls through",
			remoteAddr: "192.168.1.5:51234",
			headers:    map[string]string{"X-Real-IP": "evil-string"},
			trustProxy: true,
			want:       "192.168.1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			assert.Equal(t, tt.want, clientIP(req, tt.trustProxy))
		})
	}
}
