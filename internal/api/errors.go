package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrBackendUnavailable is returned without contacting the backend while the
// circuit breaker is open.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Error is a non-success HTTP response from the backend.
type Error struct {
	StatusCode int
	Status     string
	// Detail is the backend's human readable message, if any
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Detail returns the backend's message carried by err, or fallback.
func Detail(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}

// IsStatus reports whether err is a backend response with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

const maxErrorBody = 64 * 1024

func newError(resp *http.Response) *Error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &Error{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Detail:     extractDetail(body),
	}
}

// extractDetail understands {"detail": "..."} bodies and falls back to the raw text.
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var msg string
		if err := json.Unmarshal(payload.Detail, &msg); err == nil {
			return msg
		}
		// validation errors carry a list of objects
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}
