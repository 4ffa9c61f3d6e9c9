package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request ID is in context
		assert.NotEmpty(t, RequestIDFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	wrapped := RequestIDMiddleware(handler)

	t.Run("generates request ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("uses provided request ID", func(t *testing.T) {
		customID := "my-custom-id"
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", customID)
		rr := httptest.NewRecorder()

		wrapped.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, customID, rr.Header().Get("X-Request-ID"))
	})
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	wrapped := RequestIDMiddleware(RecoveryMiddleware(handler))

	req := httptest.NewRequest("GET", "/test", nil)
	rr := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		wrapped.ServeHTTP(rr, req)
	})
	assertErrorCode(t, rr, http.StatusInternalServerError, "internal_error")
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "clients have separate buckets")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "tokens refill over time")

	t.Run("idle buckets are dropped", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		rl := NewRateLimiter(5)
		rl.now = func() time.Time { return now }

		for i := 0; i < 100; i++ {
			assert.True(t, rl.Allow(fmt.Sprintf("10.0.0.%d", i)))
		}
		assert.Len(t, rl.tokens, 100)

		now = now.Add(30 * time.Second)
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.Len(t, rl.tokens, 100, "buckets still refilling are kept")

		now = now.Add(2 * time.Minute)
		assert.True(t, rl.Allow("10.0.0.1"))
		assert.Len(t, rl.tokens, 1)
	})

	t.Run("middleware rejects with 429", func(t *testing.T) {
		rl := NewRateLimiter(1)
		wrapped := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
			req := httptest.NewRequest("POST", "/signin", nil)
			req.RemoteAddr = "10.0.0.1:5555"
			rr := httptest.NewRecorder()
			wrapped.ServeHTTP(rr, req)
			assert.Equal(t, want, rr.Code, "request %d", i)
		}
	})
}
