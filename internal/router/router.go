package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vapi-proxy/internal/handlers"
	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/middleware"
)

type Options struct {
	Logger            *slog.Logger
	Metrics           *metrics.Metrics
	CORS              *middleware.CORSGuard
	ChatLimiter       *middleware.RateLimiter
	ConfigLimiter     *middleware.RateLimiter
	ChatHandler       *handlers.ChatHandler
	ConfigHandler     *handlers.ConfigHandler
	SecurityHandler   *handlers.SecurityHandler
	DevMode           bool
	TrustProxyHeaders bool
	MaxBodyBytes      int64
	ExposeMetrics     bool
}

// New composes the edge. Every request passes request id, logging,
// recovery, security headers and the CORS guard before routing; the chat and
// config routes then apply their own rate-limit policy.
func New(opts Options) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(opts.Logger, opts.Metrics))
	r.Use(middleware.Recoverer(opts.Logger, opts.DevMode))
	r.Use(middleware.SecurityHeaders)
	r.Use(opts.CORS.Middleware)
	r.Use(chimiddleware.RequestSize(opts.MaxBodyBytes))

	notFound := handlers.NotFound(opts.Logger)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Route("/vapi", func(r chi.Router) {
			r.With(opts.ChatLimiter.Middleware).Post("/chat", opts.ChatHandler.Chat)
			r.With(opts.ConfigLimiter.Middleware).Get("/config", opts.ConfigHandler.Config)
		})

		r.Post("/security/log", opts.SecurityHandler.Log)
	})

	if opts.ExposeMetrics {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	return r
}
