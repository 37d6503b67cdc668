package ratelimit_test

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"viewergate/internal/ratelimit"
	"viewergate/internal/ratelimit/mocks"
	"viewergate/pkg/platform/audit"
	"viewergate/pkg/platform/middleware/request"
	"viewergate/pkg/testutil"
)

// =============================================================================
// Middleware Test Suite
// =============================================================================
// Justification for unit tests: the throttle decides between passing through,
// a 429 with retry headers, and failing open, based only on the store result.

type MiddlewareSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	store  *mocks.MockStore
	called bool
	next   http.Handler
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func (s *MiddlewareSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.called = false
	s.next = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		s.called = true
		w.WriteHeader(http.StatusNoContent)
	})
}

func (s *MiddlewareSuite) handler(limit ratelimit.Limit) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	proxies, err := request.ParseTrustedProxies([]string{"192.0.2.1", "10.0.0.0/8"})
	s.Require().NoError(err)
	return ratelimit.New(s.store, logger, ratelimit.WithTrustedProxies(proxies)).Limit("auth", limit)(s.next)
}

// request arrives through the trusted load balancer at 192.0.2.1.
func (s *MiddlewareSuite) request() *http.Request {
	req := testutil.FromClient(testutil.NewRequest(s.T(), http.MethodPost, "/auth/login"), "192.0.2.1")
	req.Header.Set("X-Forwarded-For", "198.51.100.9, 10.0.0.1")
	return req
}

type auditRecorder struct {
	events []audit.Event
}

func (r *auditRecorder) Emit(_ context.Context, event audit.Event) error {
	r.events = append(r.events, event)
	return nil
}

var authLimit = ratelimit.Limit{Requests: 5, Window: time.Minute}

func (s *MiddlewareSuite) TestAllowed() {
	reset := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)
	s.store.EXPECT().Allow(gomock.Any(), "auth:198.51.100.9", 5, time.Minute).
		Return(&ratelimit.Result{Allowed: true, Limit: 5, Remaining: 4, ResetAt: reset}, nil)

	rr := testutil.DoRequest(s.handler(authLimit), s.request())

	s.True(s.called)
	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal("5", rr.Header().Get("X-RateLimit-Limit"))
	s.Equal("4", rr.Header().Get("X-RateLimit-Remaining"))
	s.Equal("1772366460", rr.Header().Get("X-RateLimit-Reset"))
}

func (s *MiddlewareSuite) TestForwardedHeaderFromUntrustedPeer() {
	s.store.EXPECT().Allow(gomock.Any(), "auth:203.0.113.50", 5, time.Minute).
		Return(&ratelimit.Result{Allowed: true, Limit: 5, Remaining: 4}, nil).Times(3)

	for _, spoofed := range []string{"1.1.1.1", "2.2.2.2", "3.3.3.3"} {
		req := testutil.FromClient(testutil.NewRequest(s.T(), http.MethodPost, "/auth/login"), "203.0.113.50")
		req.Header.Set("X-Forwarded-For", spoofed)
		testutil.DoRequest(s.handler(authLimit), req)
	}
}

func (s *MiddlewareSuite) TestDenied() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ratelimit.Result{Allowed: false, Limit: 5, ResetAt: time.Now().Add(42 * time.Second), RetryAfter: 42}, nil)

	rr := testutil.DoRequest(s.handler(authLimit), s.request())

	s.False(s.called)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusTooManyRequests, "rate_limit_exceeded")
	s.Equal("42", rr.Header().Get("Retry-After"))
	s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))
}

func (s *MiddlewareSuite) TestDeniedIsAudited() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&ratelimit.Result{Allowed: false, Limit: 5, RetryAfter: 1}, nil)
	emitter := &auditRecorder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := ratelimit.New(s.store, logger, ratelimit.WithAuditPublisher(emitter)).Limit("auth", authLimit)(s.next)

	testutil.DoRequest(handler, s.request())

	s.Require().Len(emitter.events, 1)
	s.Equal(string(audit.EventRateLimitExceeded), emitter.events[0].Action)
	s.Equal("auth", emitter.events[0].Subject)
	s.Equal(audit.CategorySecurity, emitter.events[0].Category)
}

func (s *MiddlewareSuite) TestStoreFailureFailsOpen() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("redis: connection refused"))

	rr := testutil.DoRequest(s.handler(authLimit), s.request())

	s.True(s.called)
	s.Equal(http.StatusNoContent, rr.Code)
}

func (s *MiddlewareSuite) TestDisabledLimitSkipsStore() {
	s.store.EXPECT().Allow(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	rr := testutil.DoRequest(s.handler(ratelimit.Limit{}), s.request())

	s.True(s.called)
	s.Equal(http.StatusNoContent, rr.Code)
}

func TestSanitizeKeySegment(t *testing.T) {
	assert.Equal(t, "2001_db8__1", ratelimit.SanitizeKeySegment("2001:db8::1"))
	assert.Equal(t, "198.51.100.9", ratelimit.SanitizeKeySegment("198.51.100.9"))
}

func TestRetryAfterSeconds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, ratelimit.RetryAfterSeconds(now, now.Add(-time.Second)))
	assert.Equal(t, 1, ratelimit.RetryAfterSeconds(now, now.Add(200*time.Millisecond)))
	assert.Equal(t, 30, ratelimit.RetryAfterSeconds(now, now.Add(30*time.Second)))
}
