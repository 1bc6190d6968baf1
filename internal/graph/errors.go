package graph

import (
	"errors"
	"fmt"
	"net/http"
)

// Remote file client errors. Callers classify failures with errors.Is.
var (
	// ErrAuth indicates rejected credentials, an unreachable identity provider,
	// or a token that Graph refused even after a forced refresh.
	ErrAuth = errors.New("graph: authentication failed")

	// ErrNotFound indicates the site, drive, folder, or file does not exist.
	ErrNotFound = errors.New("graph: not found")

	// ErrTransient indicates a retryable provider or network failure that persisted past the retry bound.
	ErrTransient = errors.New("graph: transient failure")

	// ErrTimeout indicates a remote call exceeded its deadline.
	ErrTimeout = errors.New("graph: request timed out")

	// ErrDisabled indicates the integration is switched off or its credentials are incomplete.
	ErrDisabled = errors.New("graph: sharepoint integration disabled")
)

// IsRetryable reports whether err is worth retrying.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}

// StatusError carries the HTTP status and Graph error body of a failed call.
// It unwraps to the sentinel matching the status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("graph: %s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrAuth
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case retryableStatus(e.StatusCode):
		return ErrTransient
	default:
		return nil
	}
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
