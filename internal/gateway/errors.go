package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/Samir899/SpendVolt/internal/models"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInvalidURL
	KindNoResponse
	KindDecoding
	KindServer
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid_url"
	case KindNoResponse:
		return "no_response"
	case KindDecoding:
		return "decoding"
	case KindServer:
		return "server"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call. Error() is the user-facing text.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidURL:
		return "Configuration error. Please contact support."
	case KindNoResponse:
		return "No data received from the server. Please try again."
	case KindDecoding:
		return "We couldn't read the server's response. Please check for app updates."
	case KindUnauthorized:
		if e.Message != "" {
			return e.Message
		}
		return "Your session has expired. Please log in again."
	case KindServer:
		return e.Message
	default:
		if e.Err != nil {
			return fmt.Sprintf("A network error occurred: %s", e.Err.Error())
		}
		return "A network error occurred."
	}
}

func (e *Error) Unwrap() error { return e.Err }

func kindOf(err error) (ErrorKind, int, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind, gwErr.StatusCode, true
	}
	return KindUnknown, 0, false
}

// IsUnauthorized reports whether the backend rejected the session.
func IsUnauthorized(err error) bool {
	kind, _, ok := kindOf(err)
	return ok && kind == KindUnauthorized
}

// IsRetryable reports whether repeating the same request later could succeed.
func IsRetryable(err error) bool {
	kind, status, ok := kindOf(err)
	if !ok {
		return false
	}
	switch kind {
	case KindNoResponse, KindUnknown, KindUnauthorized:
		return true
	case KindServer:
		return status >= http.StatusInternalServerError
	default:
		return false
	}
}

var (
	messagePattern   = regexp.MustCompile(`"message"\s*:\s*"([^"]+)"`)
	technicalPrefix  = regexp.MustCompile(`(?i)^(?:\d{3}\s+)?(?:Bad Request|Unauthorized|Internal Server Error|Forbidden|Error|Failure|Conflict)[:\- ]*`)
	messageFieldKeys = []string{"message", "error", "errorMessage"}
)

func messageFromJSON(data []byte) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", false
	}
	for _, key := range messageFieldKeys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// ExtractMessage pulls a human-readable message out of an error body.
// Backends answer with plain JSON, JSON wrapped in a string, or bare text
// prefixed with the status line; defaultMessage is used when nothing fits.
func ExtractMessage(body []byte, defaultMessage string) string {
	if msg, ok := messageFromJSON(body); ok {
		return msg
	}

	var inner string
	if err := json.Unmarshal(body, &inner); err == nil {
		if msg, ok := messageFromJSON([]byte(inner)); ok {
			return msg
		}
	}

	text := strings.TrimSpace(string(body))
	if msg, ok := messageFromJSON([]byte(strings.Trim(text, `"`))); ok {
		return msg
	}

	if m := messagePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}

	cleaned := strings.TrimSpace(technicalPrefix.ReplaceAllString(text, ""))
	if cleaned != "" && !strings.HasPrefix(cleaned, "{") {
		return cleaned
	}
	return defaultMessage
}

// UserMessage returns the text to show the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Error()
	}
	var modelErr *models.Error
	if errors.As(err, &modelErr) {
		return modelErr.Message
	}
	return err.Error()
}
