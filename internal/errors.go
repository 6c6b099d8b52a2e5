package internal

import (
	"fmt"
	"net/http"

	"github.com/cockroachdb/errors"
)

// ValidationError is a problem with the inbound request itself: an unknown action or a missing,
// mistyped or out-of-range parameter. It is always detected before any partner call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// AuthError means no access token could be obtained from the partner token endpoint.
type AuthError struct {
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("partner authentication failed: %s: %v", e.Message, e.cause)
	}
	return "partner authentication failed: " + e.Message
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

// DownstreamError is returned when a partner resource call fails or returns an unusable payload.
// Status is zero when no HTTP response was received at all; StatusText is the partner's own status
// line, e.g. "503 Service Unavailable".
type DownstreamError struct {
	Status     int
	StatusText string
	Message    string
	cause      error
}

func (e *DownstreamError) Error() string {
	if e.Status == 0 {
		return "partner request failed: " + e.Message
	}
	statusText := e.StatusText
	if statusText == "" {
		statusText = fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("partner responded with %s: %s", statusText, e.Message)
}

func (e *DownstreamError) Unwrap() error {
	return e.cause
}

// NewPayloadError reports a 2xx partner response whose body could not be used.
func NewPayloadError(message string, cause error) error {
	return &DownstreamError{Status: 0, Message: message, cause: cause}
}

// HTTPStatus maps an error to the status code used by the gateway envelope.
func HTTPStatus(err error) int {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the text that may be shown to callers. Unknown errors are not echoed back
// as they may carry internal detail.
func PublicMessage(err error) string {
	var validationErr *ValidationError
	var authErr *AuthError
	var downstreamErr *DownstreamError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.As(err, &authErr):
		return "partner authentication failed: " + authErr.Message
	case errors.As(err, &downstreamErr):
		return (&DownstreamError{
			Status:     downstreamErr.Status,
			StatusText: downstreamErr.StatusText,
			Message:    downstreamErr.Message,
		}).Error()
	default:
		return "An internal server error occurred"
	}
}
