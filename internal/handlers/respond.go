package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vapi-proxy/internal/models"
	"vapi-proxy/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: chimiddleware.GetReqID(r.Context()),
	}
}

// handleServiceError maps service errors to responses. Upstream bodies and
// Go error strings are never sent to the client unless devMode is set.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, devMode bool) {
	var (
		ve *services.ValidationError
		ue *services.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResp(ve.Kind, ve.Message, r))
	case errors.As(err, &ue):
		switch ue.Kind {
		case services.UpstreamRejected:
			writeJSON(w, http.StatusBadRequest, errorResp(ue.Kind, "Unable to process request. Please try again.", r))
		case services.UpstreamUnavailable:
			writeJSON(w, http.StatusServiceUnavailable, errorResp(ue.Kind, "Service temporarily unavailable. Please try again later.", r))
		default:
			writeJSON(w, http.StatusInternalServerError, errorResp(ue.Kind, "Service temporarily unavailable. Please try again later.", r))
		}
	default:
		resp := errorResp("INTERNAL_ERROR", "Internal server error", r)
		if devMode {
			resp.Detail = err.Error()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}
