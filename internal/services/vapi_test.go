package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vapi-proxy/internal/logging"
	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/models"
)

func newTestClient(url string, timeout time.Duration) *VapiClient {
	return NewVapiClient(VapiConfig{
		BaseURL:     url,
		APIKey:      "secret-key",
		AssistantID: "assistant-1",
		Timeout:     timeout,
	}, logging.Discard(), metrics.New())
}

func TestVapiClient_ForwardsAndEscapes(t *testing.T) {
	var got models.UpstreamChatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected upstream call %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chat-9","output":[{"role":"assistant","content":"<b>Hi</b> & bye"},{"role":"tool"},"raw"]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, time.Second)
	resp, err := c.Chat(context.Background(), models.ChatRequest{Input: "hello", PreviousChatID: "prev1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth != "Bearer secret-key" {
		t.Errorf("unexpected authorization header %q", auth)
	}
	if got.AssistantID != "assistant-1" || got.Input != "hello" || got.PreviousChatID != "prev1" {
		t.Errorf("unexpected upstream body: %+v", got)
	}

	output := resp["output"].([]interface{})
	first := output[0].(map[string]interface{})
	if first["content"] != "&lt;b&gt;Hi&lt;/b&gt; &amp; bye" {
		t.Errorf("content not escaped: %q", first["content"])
	}
	if _, ok := output[1].(map[string]interface{})["content"]; ok {
		t.Error("missing content should stay missing")
	}
	if output[2] != "raw" {
		t.Errorf("non-object items should pass through, got %v", output[2])
	}
	if resp["id"] != "chat-9" {
		t.Errorf("other fields should pass through, got %v", resp["id"])
	}
}

func TestVapiClient_OmitsEmptyPreviousChatID(t *testing.T) {
	var raw map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL, time.Second).Chat(context.Background(), models.ChatRequest{Input: "hi"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := raw["previousChatId"]; ok {
		t.Error("previousChatId should be omitted when empty")
	}
}

func TestVapiClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   string
	}{
		{"server error", http.StatusBadGateway, `{"message":"internal detail"}`, UpstreamUnavailable},
		{"client error", http.StatusUnauthorized, `{"message":"bad key"}`, UpstreamRejected},
		{"malformed json", http.StatusOK, `not json`, UpstreamUnreachable},
		{"null body", http.StatusOK, `null`, UpstreamUnreachable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := newTestClient(srv.URL, time.Second).Chat(context.Background(), models.ChatRequest{Input: "hi"})
			var ue *UpstreamError
			if !errors.As(err, &ue) {
				t.Fatalf("expected *UpstreamError, got %v", err)
			}
			if ue.Kind != tc.kind {
				t.Errorf("expected kind %s, got %s", tc.kind, ue.Kind)
			}
		})
	}
}

func TestVapiClient_TimeoutIsUnreachable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := newTestClient(srv.URL, 50*time.Millisecond).Chat(context.Background(), models.ChatRequest{Input: "hi"})
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout was not enforced")
	}

	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != UpstreamUnreachable {
		t.Fatalf("expected unreachable error, got %v", err)
	}
}

func TestVapiClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url, time.Second).Chat(context.Background(), models.ChatRequest{Input: "hi"})
	var ue *UpstreamError
	if !errors.As(err, &ue) || ue.Kind != UpstreamUnreachable {
		t.Fatalf("expected unreachable error, got %v", err)
	}
	if !strings.Contains(ue.Error(), UpstreamUnreachable) {
		t.Errorf("error string should carry the kind, got %q", ue.Error())
	}
}
