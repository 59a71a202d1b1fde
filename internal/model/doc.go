// Package model defines the data structures shared by the opentip scanner.
//
// This package contains the following main types:
//   - Target: a filesystem path queued for scanning
//   - Outcome: the per-file result of one scan task
//   - Verdict and Severity: the interpretation of a service payload
//   - ScanReport: the summary of one scan invocation
//   - IOCResult: the result of one indicator lookup
//
// Models live in their own package because the pipeline, verdict and report
// packages all exchange them, and keeping them here prevents import cycles.
package model
