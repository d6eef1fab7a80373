package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/middleware"
	"vapi-proxy/internal/models"
)

// SecurityHandler accepts security events reported by the widget. Events are
// logged and otherwise discarded.
type SecurityHandler struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewSecurityHandler(logger *slog.Logger, m *metrics.Metrics) *SecurityHandler {
	return &SecurityHandler{logger: logger, metrics: m}
}

func (h *SecurityHandler) Log(w http.ResponseWriter, r *http.Request) {
	var ev models.SecurityEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("INVALID_PAYLOAD", "Invalid request body", r))
		return
	}

	h.logger.Warn("security event",
		"event", ev.Event,
		"client_id", middleware.ClientID(r),
		"url", ev.URL,
		"reported_at", ev.Timestamp,
		"details", ev.Details,
	)
	h.metrics.SecurityEvent()

	writeJSON(w, http.StatusOK, models.StatusResponse{Status: "logged"})
}
