package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"time"

	"vapi-proxy/internal/metrics"
	"vapi-proxy/internal/models"
)

const (
	upstreamUserAgent = "vapi-proxy/2.0"
	// maxErrorBody caps how much of an upstream error body is read for logs.
	maxErrorBody = 4 << 10
)

type VapiConfig struct {
	BaseURL     string
	APIKey      string
	AssistantID string
	Timeout     time.Duration
}

// VapiClient forwards validated chat input to the VAPI chat API. Each call
// makes exactly one upstream attempt.
type VapiClient struct {
	cfg     VapiConfig
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewVapiClient(cfg VapiConfig, logger *slog.Logger, m *metrics.Metrics) *VapiClient {
	return &VapiClient{
		cfg:     cfg,
		client:  &http.Client{},
		logger:  logger,
		metrics: m,
	}
}

// Chat sends req upstream and returns the escaped response. Failures are
// always *UpstreamError.
func (c *VapiClient) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	start := time.Now()
	resp, err := c.do(ctx, req)

	outcome := "ok"
	if ue, ok := err.(*UpstreamError); ok {
		outcome = ue.Kind
		c.logger.ErrorContext(ctx, "upstream chat failed",
			"kind", ue.Kind,
			"status", ue.Status,
			"error", ue.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	c.metrics.ObserveUpstream(outcome, time.Since(start))

	return resp, err
}

func (c *VapiClient) do(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	jsonBody, err := json.Marshal(models.UpstreamChatRequest{
		AssistantID:    c.cfg.AssistantID,
		Input:          req.Input,
		PreviousChatID: req.PreviousChatID,
	})
	if err != nil {
		return nil, &UpstreamError{Kind: UpstreamUnreachable, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &UpstreamError{Kind: UpstreamUnreachable, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("User-Agent", upstreamUserAgent)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &UpstreamError{Kind: UpstreamUnreachable, Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		kind := UpstreamRejected
		if resp.StatusCode >= 500 {
			kind = UpstreamUnavailable
		}
		return nil, &UpstreamError{
			Kind:   kind,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("upstream status %d: %s", resp.StatusCode, bytes.TrimSpace(errBody)),
		}
	}

	var payload models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &UpstreamError{Kind: UpstreamUnreachable, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if payload == nil {
		return nil, &UpstreamError{Kind: UpstreamUnreachable, Status: resp.StatusCode, Err: fmt.Errorf("empty response body")}
	}

	return EscapeOutput(payload), nil
}

// EscapeOutput HTML-escapes the textual content of every object in the
// "output" list. Other fields pass through unchanged.
func EscapeOutput(resp models.ChatResponse) models.ChatResponse {
	items, ok := resp["output"].([]interface{})
	if !ok {
		return resp
	}
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if content, ok := obj["content"].(string); ok {
			obj["content"] = html.EscapeString(content)
		}
	}
	return resp
}
