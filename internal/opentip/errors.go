package opentip

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the service rejects the API key (HTTP 403).
	ErrForbidden = errors.New("forbidden: API key rejected")

	// ErrUploadFailed is returned when a file upload does not succeed.
	// It is always wrapped together with the underlying cause.
	ErrUploadFailed = errors.New("upload failed")

	// ErrEmptyResponse is returned when the upload endpoint answers with a
	// success status but no body.
	ErrEmptyResponse = errors.New("empty response body")

	// ErrNoAPIKey is returned by New when the API key is empty.
	ErrNoAPIKey = errors.New("API key is required")

	// ErrInvalidKind is returned for an indicator kind the service does not know.
	ErrInvalidKind = errors.New("invalid indicator kind: must be hash, ip, domain or url")
)

// StatusError reports an HTTP status the client does not expect.
type StatusError struct {
	// Method and Endpoint identify the request, without the query string.
	Method   string
	Endpoint string

	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Body is the beginning of the response body, for diagnostics.
	Body string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}
