package models

// ChatRequest is the validated chat payload forwarded upstream.
// Input is already trimmed and HTML-escaped.
type ChatRequest struct {
	Input          string `json:"input"`
	PreviousChatID string `json:"previousChatId,omitempty"`
}

// ChatResponse is the upstream payload, passed through with its output
// content escaped. The shape is owned by the upstream API.
type ChatResponse map[string]interface{}

// UpstreamChatRequest is the body sent to the upstream chat API.
type UpstreamChatRequest struct {
	AssistantID    string `json:"assistantId"`
	Input          string `json:"input"`
	PreviousChatID string `json:"previousChatId,omitempty"`
}
