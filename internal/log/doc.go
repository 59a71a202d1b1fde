// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks values that look like credentials before they
// reach the output:
//   - HTTP headers (Authorization, Cookie, X-Api-Key)
//   - attributes whose key names a credential (api_key, token, password, ...)
//   - values matching known secret formats (JWT, bearer and basic auth,
//     long opaque strings)
//
// Hex content digests (MD5, SHA-1, SHA-256) are never masked even though
// they are long alphanumeric strings: every scan log line is keyed by one.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("hash lookup", "path", path, "sha256", sum, "x-api-key", key)
//	// x-api-key is printed as ***REDACTED***, sha256 in full.
//
// The logger is also handed to tornago when the embedded Tor daemon is used.
package log
