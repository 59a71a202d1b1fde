// Package config provides configuration structures and utilities for opentip.
// It defines the options for scanning files, looking up indicators,
// reaching the reputation service and writing reports.
package config
