// Package middleware enforces a per-caller request rate on the API routes.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"regioniq/internal/ratelimit/metrics"
	dErrors "regioniq/pkg/domain-errors"
	"regioniq/pkg/platform/httputil"
	"regioniq/pkg/requestcontext"
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = 10 * time.Minute
)

type Middleware struct {
	limiter  *keyedLimiter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	limit    int
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithMetrics records rejections and the tracked caller count.
func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

// New builds a limiter allowing rps sustained requests with the given burst
// per caller. A non-positive rps disables limiting.
func New(rps float64, burst int, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		limiter:  newKeyedLimiter(rps, burst),
		logger:   logger,
		limit:    max(1, burst),
		disabled: rps <= 0,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// Run evicts idle callers until ctx is done.
func (m *Middleware) Run(ctx context.Context) error {
	m.limiter.run(ctx, sweepEvery, idleAfter, m.metrics.SetTrackedCallers)
	return nil
}

// RateLimitAuthenticated limits by user ID, falling back to client IP when
// the route is not behind authentication.
func (m *Middleware) RateLimitAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		keyType, id := "user", requestcontext.UserID(ctx)
		if id == "" {
			keyType, id = "ip", requestcontext.ClientIP(ctx)
		}

		wait, remaining := m.limiter.reserve(keyType + ":" + id)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(m.limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		if wait > 0 {
			retryAfter := int(math.Ceil(wait.Seconds()))
			m.metrics.IncrementRejected(keyType)
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", requestcontext.UserID(ctx),
				"retry_after", retryAfter,
			)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "Too many requests. Please try again later.").
				WithDetails(map[string]any{"retry_after": retryAfter}))
			return
		}

		next.ServeHTTP(w, r)
	})
}
