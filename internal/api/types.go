package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// --- API Response Envelope ---

type apiResponse[T any] struct {
	Data  T       `json:"data"`
	Error *apiErr `json:"error,omitempty"`
}

type apiErr struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Errors ---

// Error is a non-2xx response from the service.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if msg, ok := formatAPIError(e.Code, e.Message); ok {
		return msg
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status}
	if code, msg, ok := extractAPIErrorBody(body); ok {
		e.Code, e.Message = code, msg
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	return e
}

func extractAPIErrorBody(body []byte) (string, string, bool) {
	if len(body) == 0 {
		return "", "", false
	}

	var envelope apiResponse[any]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Code, envelope.Error.Message, true
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", false
	}

	if code, msg, ok := parseErrorValue(payload["error"]); ok {
		return code, msg, true
	}
	if code, msg, ok := parseErrorValue(payload["detail"]); ok {
		return code, msg, true
	}
	return "", "", false
}

func parseErrorValue(raw any) (string, string, bool) {
	switch value := raw.(type) {
	case string:
		msg := strings.TrimSpace(value)
		if msg == "" {
			return "", "", false
		}
		return "", msg, true
	case map[string]any:
		if code, msg, ok := parseErrorValue(value["error"]); ok {
			return code, msg, true
		}
		code, _ := value["code"].(string)
		message, _ := value["message"].(string)
		if strings.TrimSpace(code) == "" && strings.TrimSpace(message) == "" {
			return "", "", false
		}
		return strings.TrimSpace(code), strings.TrimSpace(message), true
	}
	return "", "", false
}

func formatAPIError(code, message string) (string, bool) {
	code = strings.TrimSpace(code)
	message = strings.TrimSpace(message)
	switch {
	case code != "" && message != "":
		return fmt.Sprintf("%s: %s", code, message), true
	case code != "":
		return code, true
	case message != "":
		return message, true
	default:
		return "", false
	}
}

// --- Payloads ---

// ReorderInput is the body of both reorder endpoints.
type ReorderInput struct {
	IDs []string `json:"ids"`
}

// UploadResult is returned by the upload endpoints.
type UploadResult struct {
	Path string `json:"path"`
}

// HealthStatus is returned by /api/health.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
