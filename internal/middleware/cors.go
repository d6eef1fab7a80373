package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vapi-proxy/internal/metrics"
)

type CORSConfig struct {
	// AllowedOrigins is matched exactly against the Origin header.
	// A "*" entry switches the guard to permissive mode.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	// MaxAge is the pre-flight cache lifetime in seconds.
	MaxAge int
}

func DefaultCORSConfig(origins []string) CORSConfig {
	return CORSConfig{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         600,
	}
}

// CORSGuard admits requests without an Origin header and requests whose
// origin is on the allow-list. Pre-flight requests always succeed; the
// browser enforces the result through the allow-origin header.
type CORSGuard struct {
	cfg        CORSConfig
	origins    map[string]struct{}
	permissive bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

func NewCORSGuard(cfg CORSConfig, logger *slog.Logger, m *metrics.Metrics) *CORSGuard {
	g := &CORSGuard{
		cfg:     cfg,
		origins: make(map[string]struct{}, len(cfg.AllowedOrigins)),
		logger:  logger,
		metrics: m,
	}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			g.permissive = true
			continue
		}
		g.origins[o] = struct{}{}
	}
	return g
}

func (g *CORSGuard) Allowed(origin string) bool {
	if origin == "" || g.permissive {
		return true
	}
	_, ok := g.origins[origin]
	return ok
}

func (g *CORSGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := g.Allowed(origin)

		h := w.Header()
		h.Add("Vary", "Origin")
		switch {
		case g.permissive:
			h.Set("Access-Control-Allow-Origin", "*")
		case origin != "" && allowed:
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			h.Set("Access-Control-Allow-Methods", strings.Join(g.cfg.AllowedMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(g.cfg.AllowedHeaders, ", "))
			if g.cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(g.cfg.MaxAge))
			}
			w.WriteHeader(http.StatusOK)
			return
		}

		if !allowed {
			g.logger.Warn("cors blocked",
				"origin", origin,
				"client_id", ClientID(r),
				"method", r.Method,
				"path", r.URL.Path,
			)
			g.metrics.CORSDenied()
			writeError(w, http.StatusForbidden, "CORS_DENIED", "Not allowed by CORS", r)
			return
		}

		next.ServeHTTP(w, r)
	})
}
