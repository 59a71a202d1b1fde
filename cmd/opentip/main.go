// Package main provides the entry point for the opentip CLI.
//
// opentip checks files and indicators of compromise against the Kaspersky
// OpenTIP reputation service.
//
// Usage:
//
//	opentip scan <path>...
//	opentip check <hash|ip|domain|url> <value|file>
//
// See --help for all available options.
package main

import "go.uber.org/automaxprocs/maxprocs"

// main is the entry point for opentip.
func main() {
	// The worker pool defaults to GOMAXPROCS, so match it to the CPU quota first.
	_, _ = maxprocs.Set() //nolint:errcheck // the default GOMAXPROCS is fine when no quota is found
	Execute()
}
