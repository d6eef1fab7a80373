package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vapi-proxy/internal/logging"
	"vapi-proxy/internal/metrics"
)

// RequestLogger logs one line per request and records edge metrics.
// Requests that matched no route are reported under the "unmatched" route label.
func RequestLogger(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			latency := time.Since(start)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"client_id", ClientID(r),
				"user_agent", logging.Truncate(r.UserAgent(), 100),
			)
			m.ObserveHTTP(route, r.Method, status, latency)
		})
	}
}
