package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/httputil"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
func newFakeClock() *fakeClock               { return &fakeClock{t: time.Unix(1_700_000_000, 0)} }
func discardLogger() *slog.Logger            { return slog.New(slog.DiscardHandler) }

func serve(h http.Handler, req *http.Request) int {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code
}

func limitedHandler(clock *fakeClock, rps float64, burst int, trustForwarded bool) (http.Handler, *visitorStore) {
	store := newVisitorStore(rps, burst, time.Minute)
	store.now = clock.now
	store.lastCleanup = clock.t
	return rateLimit(store, trustForwarded, discardLogger())(okHandler()), store
}

func TestRateLimit_RequestsWithinLimit_Pass(t *testing.T) {
	h, _ := limitedHandler(newFakeClock(), 1, 5, false)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, requestFrom("192.168.1.1:12345", "/api/v1/products")), "request %d", i+1)
	}
}

func TestRateLimit_ExceedingLimit_Returns429(t *testing.T) {
	h, _ := limitedHandler(newFakeClock(), 1, 2, false)

	require.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/api/v1/products")))
	require.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/api/v1/products")))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1:1", "/api/v1/products"))
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body httputil.Response
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	require.NotNil(t, body.Error)
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
	assert.Equal(t, "too many requests", body.Error.Message)
}

func TestRateLimit_TokensRefillOverTime(t *testing.T) {
	clock := newFakeClock()
	h, _ := limitedHandler(clock, 1, 1, false)

	require.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/")))
	require.Equal(t, http.StatusTooManyRequests, serve(h, requestFrom("10.0.0.1:1", "/")))

	clock.advance(time.Second)
	assert.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/")))
}

func TestRateLimit_DifferentIPs_IndependentLimits(t *testing.T) {
	h, _ := limitedHandler(newFakeClock(), 1, 1, false)

	require.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/")))
	require.Equal(t, http.StatusTooManyRequests, serve(h, requestFrom("10.0.0.1:2", "/")))
	assert.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.2:1", "/")))
}

func TestRateLimit_ForwardedHeadersIgnoredByDefault(t *testing.T) {
	h, _ := limitedHandler(newFakeClock(), 1, 1, false)

	first := requestFrom("10.0.0.1:1", "/")
	first.Header.Set("X-Forwarded-For", "203.0.113.1")
	second := requestFrom("10.0.0.1:1", "/")
	second.Header.Set("X-Forwarded-For", "203.0.113.2")

	require.Equal(t, http.StatusOK, serve(h, first))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, second))
}

func TestRateLimit_TrustForwardedKeysByClient(t *testing.T) {
	h, _ := limitedHandler(newFakeClock(), 1, 1, true)

	first := requestFrom("10.0.0.1:1", "/")
	first.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	second := requestFrom("10.0.0.1:1", "/")
	second.Header.Set("X-Forwarded-For", "203.0.113.2, 10.0.0.1")

	require.Equal(t, http.StatusOK, serve(h, first))
	assert.Equal(t, http.StatusOK, serve(h, second))
}

func TestRateLimit_IdleVisitorsEvicted(t *testing.T) {
	clock := newFakeClock()
	h, store := limitedHandler(clock, 1, 1, false)

	serve(h, requestFrom("10.0.0.1:1", "/"))
	serve(h, requestFrom("10.0.0.2:1", "/"))
	require.Equal(t, 2, store.len())

	clock.advance(2 * time.Minute)
	serve(h, requestFrom("10.0.0.3:1", "/"))
	assert.Equal(t, 1, store.len())
}

func TestRateLimit_ZeroRPSDisables(t *testing.T) {
	h := RateLimit(RateLimitConfig{}, discardLogger())(okHandler())

	for i := 0; i < 50; i++ {
		require.Equal(t, http.StatusOK, serve(h, requestFrom("10.0.0.1:1", "/")))
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		trust   bool
		want    string
	}{
		{"remote addr with port", "192.168.1.10:5000", nil, false, "192.168.1.10"},
		{"ipv6 remote addr", "[::1]:5000", nil, false, "::1"},
		{"mapped ipv4", "[::ffff:10.0.0.7]:5000", nil, false, "10.0.0.7"},
		{"xff untrusted", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "203.0.113.9"}, false, "10.0.0.1"},
		{"xff first entry", "10.0.0.1:1", map[string]string{"X-Forwarded-For": " 203.0.113.9 , 10.0.0.1"}, true, "203.0.113.9"},
		{"x-real-ip", "10.0.0.1:1", map[string]string{"X-Real-IP": "198.51.100.4"}, true, "198.51.100.4"},
		{"garbage xff falls back", "10.0.0.1:1", map[string]string{"X-Forwarded-For": "nope"}, true, "10.0.0.1"},
		{"unparsable remote", "somewhere", nil, false, "somewhere"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestFrom(tt.remote, "/")
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req, tt.trust))
		})
	}
}
