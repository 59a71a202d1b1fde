package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() to choose an exit code.
var (
	// ErrNoTarget is returned when no path or indicator is given.
	ErrNoTarget = errors.New("no target specified: provide at least one path")

	// ErrNoAPIKey is returned when no API key was found in flags,
	// environment or config file.
	ErrNoAPIKey = errors.New("no API key: set " + APIKeyEnv + " or use --apikey")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidMaxUploadSize is returned when the upload cap is not positive.
	// Use --no-upload to disable uploads.
	ErrInvalidMaxUploadSize = errors.New("invalid max upload size: must be positive")

	// ErrInvalidRateLimit is returned when the request rate is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must not be negative")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --summary is specified. Only one report format can be
	// used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: use only one of --json, --markdown and --summary")

	// ErrInvalidProxy is returned when the proxy address is not host:port.
	ErrInvalidProxy = errors.New("invalid proxy address: must be host:port")

	// ErrConflictingProxy is returned when both --proxy and --tor are given.
	ErrConflictingProxy = errors.New("conflicting transports: --proxy and --tor cannot be used together")
)
