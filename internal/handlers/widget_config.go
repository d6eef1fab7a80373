package handlers

import (
	"log/slog"
	"net/http"

	"vapi-proxy/internal/config"
	"vapi-proxy/internal/middleware"
	"vapi-proxy/internal/models"
)

// ConfigHandler serves the public widget configuration. It is built from
// the public fields only, so the upstream secret cannot reach it.
type ConfigHandler struct {
	resp   models.ConfigResponse
	logger *slog.Logger
}

func NewConfigHandler(assistantID, publicAPIKey string, logger *slog.Logger) *ConfigHandler {
	return &ConfigHandler{
		resp: models.ConfigResponse{
			AssistantID:      assistantID,
			PublicAPIKey:     publicAPIKey,
			HasSecureBackend: true,
			Version:          config.Version,
		},
		logger: logger,
	}
}

func (h *ConfigHandler) Config(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("config request", "client_id", middleware.ClientID(r))
	writeJSON(w, http.StatusOK, h.resp)
}
