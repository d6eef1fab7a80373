package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"vapi-proxy/internal/logging"
	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/middleware"
	"vapi-proxy/internal/models"
	"vapi-proxy/internal/services"
)

type chatUpstream interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

type ChatHandler struct {
	upstream chatUpstream
	logger   *slog.Logger
	metrics  *metrics.Metrics
	devMode  bool
}

func NewChatHandler(upstream chatUpstream, logger *slog.Logger, m *metrics.Metrics, devMode bool) *ChatHandler {
	return &ChatHandler{
		upstream: upstream,
		logger:   logger,
		metrics:  m,
		devMode:  devMode,
	}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	clientID := middleware.ClientID(r)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResp("PAYLOAD_TOO_LARGE", "Request body too large", r))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResp(services.KindInvalidPayload, "Invalid request body", r))
		return
	}

	req, err := services.ValidateChatInput(body)
	if err != nil {
		var ve *services.ValidationError
		if errors.As(err, &ve) {
			h.metrics.ValidationRejected(ve.Kind)
			if ve.Suspicious() {
				h.logger.Warn("suspicious chat input rejected",
					"kind", ve.Kind,
					"client_id", clientID,
					"input", logging.Truncate(services.TrimmedInput(body), 100),
				)
			}
		}
		handleServiceError(w, r, err, h.devMode)
		return
	}

	h.logger.Info("chat request", "client_id", clientID, "input_length", len(req.Input))

	resp, err := h.upstream.Chat(r.Context(), *req)
	if err != nil {
		handleServiceError(w, r, err, h.devMode)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
