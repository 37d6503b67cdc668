// Package ratelimit throttles unauthenticated endpoints per client address
// with a sliding window.
package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	dErrors "viewergate/pkg/domain-errors"
	"viewergate/pkg/platform/audit"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/request"
)

// Result is the outcome of one rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Limit is a request budget per window. A zero Requests disables the limit.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*Result, error)
}

// SanitizeKeySegment escapes the key delimiter so a caller-controlled segment
// cannot spill into an adjacent bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

type Middleware struct {
	store   Store
	logger  *slog.Logger
	emitter audit.Emitter
	proxies request.TrustedProxies
}

type Option func(*Middleware)

// WithAuditPublisher records every rejected request as a security event.
func WithAuditPublisher(emitter audit.Emitter) Option {
	return func(m *Middleware) {
		m.emitter = emitter
	}
}

// WithTrustedProxies keys requests arriving through these proxies on the
// forwarded client address. Without it only the direct peer counts.
func WithTrustedProxies(proxies request.TrustedProxies) Option {
	return func(m *Middleware) {
		m.proxies = proxies
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{store: store, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit returns middleware enforcing limit per client IP under the given
// bucket name. Store failures let the request through.
func (m *Middleware) Limit(bucket string, limit Limit) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limit.Requests <= 0 || limit.Window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := m.proxies.ClientIP(r)
			key := bucket + ":" + SanitizeKeySegment(ip)

			result, err := m.store.Allow(ctx, key, limit.Requests, limit.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"bucket", bucket,
					"request_id", request.GetRequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addHeaders(w, result)
			if !result.Allowed {
				audit.Log(ctx, m.logger, m.emitter, audit.Event{
					Action:    string(audit.EventRateLimitExceeded),
					Subject:   bucket,
					RequestID: request.GetRequestID(ctx),
				}, "ip", ip)
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addHeaders(w http.ResponseWriter, result *Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
