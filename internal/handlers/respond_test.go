package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"vapi-proxy/internal/services"
)

// ─── JSON Response Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]interface{}{"status": "logged"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", rr.Header().Get("Content-Type"))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["status"] != "logged" {
		t.Errorf("Expected status 'logged', got %v", result["status"])
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &services.ValidationError{Kind: services.KindInputTooLong, Message: "Input too long (max 500 characters)"}, http.StatusBadRequest, "Input too long (max 500 characters)"},
		{"upstream rejected", &services.UpstreamError{Kind: services.UpstreamRejected, Status: 422}, http.StatusBadRequest, "Unable to process request. Please try again."},
		{"upstream unavailable", &services.UpstreamError{Kind: services.UpstreamUnavailable, Status: 503}, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later."},
		{"upstream unreachable", &services.UpstreamError{Kind: services.UpstreamUnreachable}, http.StatusInternalServerError, "Service temporarily unavailable. Please try again later."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handleServiceError(rr, httptest.NewRequest(http.MethodPost, "/api/vapi/chat", nil), tc.err, false)

			if rr.Code != tc.status {
				t.Errorf("Expected status %d, got %d", tc.status, rr.Code)
			}
			resp := decodeError(t, rr)
			if resp.Error != tc.message {
				t.Errorf("Expected message %q, got %q", tc.message, resp.Error)
			}
		})
	}
}
