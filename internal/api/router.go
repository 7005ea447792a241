// Package api provides the HTTP API for the outbound dispatch engine.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/leadwire/outbound/internal/api/handlers"
	"github.com/leadwire/outbound/internal/auth"
	"github.com/leadwire/outbound/internal/health"
	"github.com/leadwire/outbound/internal/ratelimit"
	"github.com/leadwire/outbound/pkg/logging"
	"github.com/leadwire/outbound/pkg/metrics"
)

// RouterConfig holds the middleware and auxiliary handlers for the router.
// Nil fields are skipped, which keeps handler tests free of auth and
// rate-limit setup.
type RouterConfig struct {
	Auth          *auth.Middleware
	RateLimit     func(http.Handler) http.Handler
	Health        *health.Handler
	Metrics       *metrics.Registry
	Logger        *slog.Logger
	RequestLogger bool
}

// NewRouter creates a new Chi router with all routes and middleware configured.
func NewRouter(h *handlers.Handler) chi.Router {
	return NewRouterWithConfig(h, RouterConfig{})
}

// NewRouterWithConfig creates a new Chi router with the given configuration.
func NewRouterWithConfig(h *handlers.Handler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if cfg.RequestLogger {
		r.Use(logging.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(metrics.HTTPMiddlewareWithOptions(cfg.Metrics, metrics.MiddlewareOptions{
			SkipPaths: []string{"/metrics", "/health", "/health/live", "/health/ready"},
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Operational endpoints, outside authentication
	if cfg.Health != nil {
		r.Get("/health", cfg.Health.HealthHandler)
		r.Get("/health/live", cfg.Health.LivenessHandler)
		r.Get("/health/ready", cfg.Health.ReadinessHandler)
	}
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jsonContentType)
		if cfg.Auth != nil {
			r.Use(cfg.Auth.RequireAuth())
		}

		r.Route("/emails", func(r chi.Router) {
			if cfg.RateLimit != nil {
				r.With(cfg.RateLimit).Post("/send", h.SendEmail)
			} else {
				r.Post("/send", h.SendEmail)
			}
			r.Get("/", h.ListMessages)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetMessage)
				r.Get("/links", h.GetMessageLinks)
			})
		})
	})

	return r
}

// SendRateLimit builds the per-tenant rate limiter middleware for the send
// route.
func SendRateLimit(store ratelimit.Store, limit int, window time.Duration, logger *slog.Logger) func(http.Handler) http.Handler {
	return ratelimit.Middleware(ratelimit.Policy{
		Name:   "send",
		Limit:  limit,
		Window: window,
	}, store, logger)
}

// jsonContentType is middleware that sets the Content-Type header to application/json.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
