package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viewergate/internal/platform/metrics"
	"viewergate/pkg/platform/httputil"
	"viewergate/pkg/platform/middleware/auth"
	"viewergate/pkg/platform/middleware/device"
	"viewergate/pkg/platform/middleware/request"
	"viewergate/pkg/platform/middleware/requesttime"
)

const defaultRequestTimeout = 30 * time.Second

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig carries everything the public router needs. Metrics and
// MetricsHandler may be nil; HealthChecks may be empty.
type RouterConfig struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	MetricsHandler    http.Handler
	Validator         auth.JWTValidator
	RevocationChecker auth.TokenRevocationChecker
	RequestTimeout    time.Duration
	HealthChecks      map[string]HealthCheck
	// AuthThrottle wraps the /auth routes only.
	AuthThrottle func(http.Handler) http.Handler

	Auth    *AuthHandler
	Me      *MeHandler
	Catalog *CatalogHandler
}

// NewRouter wires all public endpoints behind the shared middleware chain.
func NewRouter(cfg RouterConfig) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(device.Middleware)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.Latency(cfg.Metrics))

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	requireAuth := auth.RequireAuth(cfg.Validator, cfg.RevocationChecker, cfg.Logger)
	optionalAuth := auth.OptionalAuth(cfg.Validator, cfg.RevocationChecker, cfg.Logger)

	r.Group(func(r chi.Router) {
		r.Use(request.Timeout(timeout))
		r.Use(request.ContentTypeJSON)
		if cfg.Auth != nil {
			r.Group(func(r chi.Router) {
				if cfg.AuthThrottle != nil {
					r.Use(cfg.AuthThrottle)
				}
				cfg.Auth.Register(r, requireAuth)
			})
		}
		if cfg.Me != nil {
			cfg.Me.Register(r, requireAuth)
		}
		if cfg.Catalog != nil {
			cfg.Catalog.Register(r, optionalAuth)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		failing := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				failing[name] = err.Error()
			}
		}
		if len(failing) > 0 {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "failing": failing})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
