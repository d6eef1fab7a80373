package services

import "fmt"

// Validation error kinds.
const (
	KindMissingInput   = "MISSING_INPUT"
	KindEmptyInput     = "EMPTY_INPUT"
	KindInputTooLong   = "INPUT_TOO_LONG"
	KindSuspicious     = "SUSPICIOUS_MARKUP"
	KindCodeInjection  = "CODE_INJECTION_SUSPECTED"
	KindInvalidChatID  = "INVALID_CHAT_ID"
	KindInvalidPayload = "INVALID_PAYLOAD"
)

type ValidationError struct {
	Kind    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Suspicious reports whether the rejection looks like an attack and
// should be written to the security audit log.
func (e *ValidationError) Suspicious() bool {
	return e.Kind == KindSuspicious || e.Kind == KindCodeInjection
}

// Upstream failure kinds.
const (
	UpstreamRejected    = "UPSTREAM_REJECTED"
	UpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	UpstreamUnreachable = "UPSTREAM_UNREACHABLE"
)

// UpstreamError describes a failed upstream chat call. Status is the
// upstream HTTP status when one was received. Err holds the transport or
// decode error and is for server-side logs only.
type UpstreamError struct {
	Kind   string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: upstream status %d", e.Kind, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
