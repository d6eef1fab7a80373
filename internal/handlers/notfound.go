package handlers

import (
	"log/slog"
	"net/http"

	"vapi-proxy/internal/middleware"
)

// NotFound answers unmatched routes and logs who asked for them.
func NotFound(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Warn("route not found",
			"method", r.Method,
			"path", r.URL.Path,
			"client_id", middleware.ClientID(r),
		)
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Endpoint not found", r))
	}
}
