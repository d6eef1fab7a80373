package middleware

import (
	"encoding/json"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"vapi-proxy/internal/models"
)

func writeError(w http.ResponseWriter, status int, code, message string, r *http.Request) {
	writeErrorResponse(w, status, models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: chimiddleware.GetReqID(r.Context()),
	})
}

func writeRateLimited(w http.ResponseWriter, r *http.Request, message string, retryAfter int) {
	writeErrorResponse(w, http.StatusTooManyRequests, models.ErrorResponse{
		Error:      message,
		Code:       "RATE_LIMITED",
		RetryAfter: retryAfter,
		RequestID:  chimiddleware.GetReqID(r.Context()),
	})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp models.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
