package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"vapi-proxy/internal/logging"
	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/models"
	"vapi-proxy/internal/services"
)

type stubUpstream struct {
	resp  models.ChatResponse
	err   error
	calls int
	last  models.ChatRequest
}

func (s *stubUpstream) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	s.calls++
	s.last = req
	return s.resp, s.err
}

func newTestChatHandler(up *stubUpstream, devMode bool) *ChatHandler {
	return NewChatHandler(up, logging.Discard(), metrics.New(), devMode)
}

func postChat(h *ChatHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/vapi/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.Chat(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestChatHandler_EmptyInput(t *testing.T) {
	up := &stubUpstream{}
	rr := postChat(newTestChatHandler(up, false), `{"input":""}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if resp := decodeError(t, rr); resp.Error != "Input cannot be empty" {
		t.Errorf("unexpected error %q", resp.Error)
	}
	if up.calls != 0 {
		t.Error("upstream must not be called for invalid input")
	}
}

func TestChatHandler_ScriptNotReflected(t *testing.T) {
	up := &stubUpstream{}
	rr := postChat(newTestChatHandler(up, false), `{"input":"<script>alert('x')</script>"}`)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "script") || strings.Contains(body, "alert") {
		t.Errorf("input reflected in response: %s", body)
	}
	if resp := decodeError(t, rr); resp.Error != "Invalid input detected" {
		t.Errorf("unexpected error %q", resp.Error)
	}
}

func TestChatHandler_Success(t *testing.T) {
	up := &stubUpstream{resp: models.ChatResponse{
		"id":     "chat-1",
		"output": []interface{}{map[string]interface{}{"role": "assistant", "content": "Hello"}},
	}}
	rr := postChat(newTestChatHandler(up, false), `{"input":"  Tell me about <b> panels  ","previousChatId":"abc123"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if up.last.Input != "Tell me about &lt;b&gt; panels" {
		t.Errorf("upstream should receive escaped input, got %q", up.last.Input)
	}
	if up.last.PreviousChatID != "abc123" {
		t.Errorf("unexpected chat id %q", up.last.PreviousChatID)
	}

	var resp map[string]interface{}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["id"] != "chat-1" {
		t.Errorf("unexpected response %v", resp)
	}
}

func TestChatHandler_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"rejected", &services.UpstreamError{Kind: services.UpstreamRejected, Status: 401, Err: errors.New("invalid key sk-123")}, http.StatusBadRequest},
		{"unavailable", &services.UpstreamError{Kind: services.UpstreamUnavailable, Status: 502, Err: errors.New("bad gateway body")}, http.StatusServiceUnavailable},
		{"unreachable", &services.UpstreamError{Kind: services.UpstreamUnreachable, Err: errors.New("dial tcp 10.0.0.1:443: i/o timeout")}, http.StatusInternalServerError},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postChat(newTestChatHandler(&stubUpstream{err: tc.err}, false), `{"input":"hi"}`)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			body := rr.Body.String()
			for _, leak := range []string{"sk-123", "bad gateway body", "dial tcp", "boom"} {
				if strings.Contains(body, leak) {
					t.Errorf("response leaked %q: %s", leak, body)
				}
			}
		})
	}
}

func TestChatHandler_DevModeShowsUnexpectedDetail(t *testing.T) {
	rr := postChat(newTestChatHandler(&stubUpstream{err: errors.New("boom")}, true), `{"input":"hi"}`)
	if resp := decodeError(t, rr); resp.Detail != "boom" {
		t.Errorf("expected detail in dev mode, got %q", resp.Detail)
	}
}

func TestChatHandler_BodyTooLarge(t *testing.T) {
	h := newTestChatHandler(&stubUpstream{}, false)
	req := httptest.NewRequest(http.MethodPost, "/api/vapi/chat", strings.NewReader(`{"input":"`+strings.Repeat("a", 64)+`"}`))
	rr := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rr, req.Body, 16)

	h.Chat(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}
