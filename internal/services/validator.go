package services

import (
	"bytes"
	"encoding/json"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"vapi-proxy/internal/models"
)

// MaxInputLength is the longest accepted chat input, in characters, after trimming.
const MaxInputLength = 500

var (
	markupPattern       = regexp.MustCompile(`(?i)<script|javascript:|on\w+=`)
	alphanumericPattern = regexp.MustCompile(`^[0-9A-Za-z]+$`)
	codeInjectionMarks  = []string{"eval(", "Function("}
)

// rawChatRequest keeps both fields undecoded so presence and JSON type can
// be checked separately.
type rawChatRequest struct {
	Input          json.RawMessage `json:"input"`
	PreviousChatID json.RawMessage `json:"previousChatId"`
}

// ValidateChatInput checks a raw chat request body and returns the sanitized
// request. The first failing rule determines the returned *ValidationError.
func ValidateChatInput(body []byte) (*models.ChatRequest, error) {
	var raw rawChatRequest
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{Kind: KindInvalidPayload, Message: "Invalid request body"}
	}

	var input string
	if !isPresent(raw.Input) || json.Unmarshal(raw.Input, &input) != nil {
		return nil, &ValidationError{Kind: KindMissingInput, Message: "Valid input string is required"}
	}

	trimmed := trimInput(input)
	if trimmed == "" {
		return nil, &ValidationError{Kind: KindEmptyInput, Message: "Input cannot be empty"}
	}
	if utf8.RuneCountInString(trimmed) > MaxInputLength {
		return nil, &ValidationError{Kind: KindInputTooLong, Message: "Input too long (max 500 characters)"}
	}
	if markupPattern.MatchString(trimmed) {
		return nil, &ValidationError{Kind: KindSuspicious, Message: "Invalid input detected"}
	}
	for _, mark := range codeInjectionMarks {
		if strings.Contains(trimmed, mark) {
			return nil, &ValidationError{Kind: KindCodeInjection, Message: "Invalid input detected"}
		}
	}

	chatID, err := parseChatID(raw.PreviousChatID)
	if err != nil {
		return nil, err
	}

	return &models.ChatRequest{
		Input:          html.EscapeString(trimmed),
		PreviousChatID: chatID,
	}, nil
}

// TrimmedInput extracts the trimmed input text from a body for audit logging.
// It returns "" when the body has no string input.
func TrimmedInput(body []byte) string {
	var raw rawChatRequest
	if json.Unmarshal(body, &raw) != nil {
		return ""
	}
	var input string
	if json.Unmarshal(raw.Input, &input) != nil {
		return ""
	}
	return trimInput(input)
}

// trimInput strips surrounding whitespace, including the byte order mark
// that browsers treat as whitespace.
func trimInput(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// parseChatID accepts an absent, null or empty id as "no previous chat".
func parseChatID(raw json.RawMessage) (string, error) {
	if !isPresent(raw) {
		return "", nil
	}

	invalid := &ValidationError{Kind: KindInvalidChatID, Message: "Invalid chat ID format"}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", invalid
	}
	if id == "" {
		return "", nil
	}
	if !isCanonicalUUID(id) && !alphanumericPattern.MatchString(id) {
		return "", invalid
	}
	return id, nil
}

func isCanonicalUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
