package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the auditdesk API. Message is the
// server's "error" string.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	RequestID  string `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("auditdesk: %d: %s (request_id=%s)", e.StatusCode, e.Message, e.RequestID)
	}

	return fmt.Sprintf("auditdesk: %d: %s", e.StatusCode, e.Message)
}

func hasStatus(err error, codes ...int) bool {
	var e *APIError
	if !errors.As(err, &e) {
		return false
	}

	for _, code := range codes {
		if e.StatusCode == code {
			return true
		}
	}

	return false
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsUnauthorized reports whether err is a 401: missing, invalid or expired
// credentials.
func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

// IsForbidden reports whether err is a 403 (role not allowed).
func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

// IsConflict reports whether err is a 409: a duplicate or a delete blocked by
// dependent records.
func IsConflict(err error) bool { return hasStatus(err, http.StatusConflict) }

// IsValidation reports whether err is a 400.
func IsValidation(err error) bool { return hasStatus(err, http.StatusBadRequest) }

// IsRateLimited reports whether err is a 429.
func IsRateLimited(err error) bool { return hasStatus(err, http.StatusTooManyRequests) }

// ErrorMessage returns the server message carried by err, or fallback when
// err is not an *APIError or carries no message.
func ErrorMessage(err error, fallback string) string {
	var e *APIError
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}

	return fallback
}

// parseAPIError decodes a {"error": "..."} body and falls back to raw text.
func parseAPIError(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, RequestID: resp.Header.Get("X-Request-ID")}

	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}

	return apiErr
}
