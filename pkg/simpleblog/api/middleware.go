package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// Middleware is a function that wraps an http.Handler
type Middleware func(http.Handler) http.Handler

// ResponseWriter wrapper that captures status code and response size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // Default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Context keys for middleware
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

// RequestIDFromContext returns the request ID set by RequestIDMiddleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoggingMiddleware logs one line per request
func LoggingMiddleware(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rw.statusCode,
				"bytes", rw.bytesWritten,
				"duration", time.Since(start),
				"request_id", RequestIDFromContext(r.Context()),
			}
			if actor, ok := ActorFromContext(r.Context()); ok {
				attrs = append(attrs, "actor_id", actor.ID)
			}

			level := slog.LevelInfo
			if rw.statusCode >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "HTTP request", attrs...)
		})
	}
}

// RecoveryMiddleware recovers from panics and returns 500 error
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				requestID := RequestIDFromContext(r.Context())
				slog.ErrorContext(r.Context(), "Panic recovered", "request_id", requestID, "panic", err)

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, ErrorResponse{Error: ErrorBody{
					Code:      "internal_error",
					Message:   "An internal server error occurred",
					RequestID: requestID,
				}})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// RateLimiter is a per-client token bucket. Buckets idle long enough to be
// full again are dropped at most once a minute.
type RateLimiter struct {
	requestsPerMinute int

	mu        sync.Mutex
	tokens    map[string]*tokenBucket
	lastSweep time.Time
	now       func() time.Time
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
}

// NewRateLimiter allows requestsPerMinute requests per client IP
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		requestsPerMinute: requestsPerMinute,
		tokens:            make(map[string]*tokenBucket),
		now:               time.Now,
	}
}

// Allow consumes a token for key and reports whether one was available
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= time.Minute {
		rl.sweep(now)
	}

	bucket, exists := rl.tokens[key]
	if !exists {
		bucket = &tokenBucket{
			tokens:     rl.requestsPerMinute,
			lastRefill: now,
		}
		rl.tokens[key] = bucket
	}

	// Refill tokens based on time elapsed
	elapsed := now.Sub(bucket.lastRefill)
	tokensToAdd := int(elapsed.Minutes() * float64(rl.requestsPerMinute))
	if tokensToAdd > 0 {
		bucket.tokens = min(rl.requestsPerMinute, bucket.tokens+tokensToAdd)
		bucket.lastRefill = now
	}

	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

// sweep removes buckets that a full minute of refill has topped up. Callers
// must hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for key, bucket := range rl.tokens {
		if now.Sub(bucket.lastRefill) >= time.Minute {
			delete(rl.tokens, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", strconv.Itoa(60))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, ErrorResponse{Error: ErrorBody{
				Code:    "rate_limit_exceeded",
				Message: fmt.Sprintf("Rate limit exceeded. Maximum %d requests per minute.", rl.requestsPerMinute),
			}})
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
