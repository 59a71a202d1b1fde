package model

import "encoding/json"

// IOCResult is the outcome of looking up one indicator of compromise.
// The JSON field names follow the output format of the check command.
type IOCResult struct {
	// IOC is the indicator value as given.
	IOC string `json:"IOC"`

	// Type is the indicator kind (hash, ip, domain, url).
	Type string `json:"Type"`

	// URL is the lookup URL for the indicator.
	URL string `json:"URL"`

	// Data is the service payload. It is the parsed JSON when the body is
	// valid JSON, otherwise the raw text encoded as a JSON string.
	// Nil when the indicator is unknown to the service.
	Data json.RawMessage `json:"Data,omitempty"`

	// Error is set when the lookup failed.
	Error bool `json:"Error,omitempty"`

	// err keeps the underlying cause for the caller; it is not serialized.
	err error
}

// NewIOCError creates a failed result for the given indicator.
func NewIOCError(kind, value, url string, err error) IOCResult {
	return IOCResult{IOC: value, Type: kind, URL: url, Error: true, err: err}
}

// Err returns the lookup error, if any.
func (r IOCResult) Err() error {
	return r.err
}

// Known reports whether the service returned data for the indicator.
func (r IOCResult) Known() bool {
	return !r.Error && r.Data != nil
}

// SetPayload stores a response body, keeping valid JSON verbatim and
// encoding anything else as a JSON string.
func (r *IOCResult) SetPayload(body []byte) {
	if json.Valid(body) {
		r.Data = json.RawMessage(body)
		return
	}
	raw, _ := json.Marshal(string(body)) //nolint:errcheck // marshaling a string cannot fail
	r.Data = raw
}
