package models

// ConfigResponse is the public widget configuration. It must never carry
// the upstream secret key.
type ConfigResponse struct {
	AssistantID      string `json:"assistantId"`
	PublicAPIKey     string `json:"publicApiKey,omitempty"`
	HasSecureBackend bool   `json:"hasSecureBackend"`
	Version          string `json:"version"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SecurityEvent is reported by the widget and only logged.
type SecurityEvent struct {
	Event     string      `json:"event"`
	Details   interface{} `json:"details"`
	Timestamp float64     `json:"timestamp"`
	URL       string      `json:"url"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error      string `json:"error"`
	Code       string `json:"code,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	RequestID  string `json:"requestId,omitempty"`

	// Populated only in development mode.
	Detail string `json:"detail,omitempty"`
	Stack  string `json:"stack,omitempty"`
}
