package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the config file name looked up in the current
	// and home directories.
	DefaultConfigFile = ".opentip"

	// XDGConfigFileName is the config file name inside XDGConfigDir.
	XDGConfigFileName = "config.yaml"
)

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .opentip configuration file.
// Pointer fields distinguish "not set" from the zero value.
type File struct {
	APIKey        string         `yaml:"api_key,omitempty"`
	BaseURL       string         `yaml:"base_url,omitempty"`
	NoUpload      *bool          `yaml:"no_upload,omitempty"`
	Quiet         *bool          `yaml:"quiet,omitempty"`
	Exclude       []string       `yaml:"exclude,omitempty"`
	MaxUploadSize *int64         `yaml:"max_upload_size,omitempty"`
	Timeout       *time.Duration `yaml:"timeout,omitempty"`
	Workers       *int           `yaml:"workers,omitempty"`
	Proxy         string         `yaml:"proxy,omitempty"`
	Tor           *bool          `yaml:"tor,omitempty"`
	RateLimit     *float64       `yaml:"rate_limit,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers decide whether that matters based on whether the path was given
// explicitly by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .opentip in the current directory
// 3. Look for .opentip in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	if xdgConfig := XDGConfigFile(); xdgConfig != "" {
		if _, err := os.Stat(xdgConfig); err == nil {
			return xdgConfig
		}
	}

	return ""
}
