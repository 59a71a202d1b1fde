package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default BaseURL is the public API", func(t *testing.T) {
		t.Parallel()
		if cfg.BaseURL != "https://opentip.kaspersky.com/api/v1/" {
			t.Errorf("unexpected BaseURL %q", cfg.BaseURL)
		}
	})

	t.Run("default Timeout is 60 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 60*time.Second {
			t.Errorf("expected Timeout to be 60s, got %v", cfg.Timeout)
		}
	})

	t.Run("default MaxUploadSize is 10MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.MaxUploadSize != 10*1024*1024 {
			t.Errorf("expected MaxUploadSize to be 10MiB, got %d", cfg.MaxUploadSize)
		}
	})

	t.Run("default ChunkSize is 10MiB", func(t *testing.T) {
		t.Parallel()
		if cfg.ChunkSize != 10*1024*1024 {
			t.Errorf("expected ChunkSize to be 10MiB, got %d", cfg.ChunkSize)
		}
	})

	t.Run("default Workers follows GOMAXPROCS", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != runtime.GOMAXPROCS(0) {
			t.Errorf("expected Workers to be %d, got %d", runtime.GOMAXPROCS(0), cfg.Workers)
		}
	})

	t.Run("uploads are enabled by default", func(t *testing.T) {
		t.Parallel()
		if cfg.NoUpload {
			t.Error("expected NoUpload to be false")
		}
	})

	t.Run("default TorStartupTimeout is 3 minutes", func(t *testing.T) {
		t.Parallel()
		if cfg.TorStartupTimeout != 3*time.Minute {
			t.Errorf("expected TorStartupTimeout to be 3m, got %v", cfg.TorStartupTimeout)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"/tmp"}
		cfg.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name   string
		modify func(c *Config)
		want   error
	}{
		{name: "valid config returns nil", modify: func(*Config) {}},
		{name: "multiple targets is valid", modify: func(c *Config) { c.Targets = []string{"a", "b", "c"} }},
		{name: "empty targets", modify: func(c *Config) { c.Targets = []string{} }, want: ErrNoTarget},
		{name: "nil targets", modify: func(c *Config) { c.Targets = nil }, want: ErrNoTarget},
		{name: "missing API key", modify: func(c *Config) { c.APIKey = "" }, want: ErrNoAPIKey},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, want: ErrInvalidTimeout},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }, want: ErrInvalidTimeout},
		{name: "zero workers", modify: func(c *Config) { c.Workers = 0 }, want: ErrInvalidWorkers},
		{name: "zero upload size", modify: func(c *Config) { c.MaxUploadSize = 0 }, want: ErrInvalidMaxUploadSize},
		{name: "negative rate limit", modify: func(c *Config) { c.RateLimit = -1 }, want: ErrInvalidRateLimit},
		{
			name:   "json and markdown together",
			modify: func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			want:   ErrConflictingReportFormats,
		},
		{
			name:   "markdown and summary together",
			modify: func(c *Config) { c.MarkdownReport, c.TextReport = true, true },
			want:   ErrConflictingReportFormats,
		},
		{name: "json alone is valid", modify: func(c *Config) { c.JSONReport = true }},
		{name: "valid proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:9050" }},
		{name: "proxy without port", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1" }, want: ErrInvalidProxy},
		{name: "proxy with bad port", modify: func(c *Config) { c.ProxyAddress = "localhost:70000" }, want: ErrInvalidProxy},
		{name: "proxy without host", modify: func(c *Config) { c.ProxyAddress = ":9050" }, want: ErrInvalidProxy},
		{
			name:   "proxy and tor together",
			modify: func(c *Config) { c.ProxyAddress, c.UseTor = "127.0.0.1:9050", true },
			want:   ErrConflictingProxy,
		},
		{name: "tor alone is valid", modify: func(c *Config) { c.UseTor = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestConfigWantsReport tests report format detection.
func TestConfigWantsReport(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	if cfg.WantsReport() {
		t.Error("no report should be requested by default")
	}
	cfg.TextReport = true
	if !cfg.WantsReport() {
		t.Error("expected a report with --summary")
	}
}

// TestConfigApplyFile tests that file values override defaults only when set.
// TestConfigReadChunkSize verifies the hashing read size covers the upload cap.
func TestConfigReadChunkSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		chunk     int
		maxUpload int64
		noUpload  bool
		want      int
	}{
		{name: "defaults", chunk: DefaultChunkSize, maxUpload: DefaultMaxUploadSize, want: DefaultChunkSize},
		{name: "raised upload cap grows the chunk", chunk: 1024, maxUpload: 4096, want: 4096},
		{name: "smaller upload cap keeps the chunk", chunk: 4096, maxUpload: 1024, want: 4096},
		{name: "no upload ignores the cap", chunk: 1024, maxUpload: 4096, noUpload: true, want: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			cfg.ChunkSize = tt.chunk
			cfg.MaxUploadSize = tt.maxUpload
			cfg.NoUpload = tt.noUpload

			if got := cfg.ReadChunkSize(); got != tt.want {
				t.Errorf("ReadChunkSize() = %d, expected %d", got, tt.want)
			}
		})
	}
}

func TestConfigApplyFile(t *testing.T) {
	t.Parallel()

	t.Run("nil file changes nothing", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyFile(nil)
		if cfg.Timeout != DefaultTimeout || cfg.BaseURL != DefaultBaseURL {
			t.Error("defaults should be kept")
		}
	})

	t.Run("set values override defaults", func(t *testing.T) {
		t.Parallel()

		noUpload, quiet, tor := true, true, true
		size := int64(1024)
		timeout := 5 * time.Second
		workers := 3
		rateLimit := 2.5

		cfg := NewConfig()
		cfg.ApplyFile(&File{
			APIKey:        "file-key",
			BaseURL:       "https://mirror.example/api/v1/",
			NoUpload:      &noUpload,
			Quiet:         &quiet,
			Exclude:       []string{"*.iso"},
			MaxUploadSize: &size,
			Timeout:       &timeout,
			Workers:       &workers,
			Tor:           &tor,
			RateLimit:     &rateLimit,
		})

		if cfg.APIKey != "file-key" || cfg.BaseURL != "https://mirror.example/api/v1/" {
			t.Errorf("unexpected key/url %q %q", cfg.APIKey, cfg.BaseURL)
		}
		if !cfg.NoUpload || !cfg.Quiet || !cfg.UseTor {
			t.Error("expected booleans from file")
		}
		if !slices.Equal(cfg.Exclude, []string{"*.iso"}) {
			t.Errorf("unexpected exclude %v", cfg.Exclude)
		}
		if cfg.MaxUploadSize != 1024 || cfg.Timeout != 5*time.Second || cfg.Workers != 3 {
			t.Errorf("unexpected numbers %d %v %d", cfg.MaxUploadSize, cfg.Timeout, cfg.Workers)
		}
		if cfg.RateLimit != 2.5 {
			t.Errorf("unexpected rate limit %v", cfg.RateLimit)
		}
	})

	t.Run("explicit false overrides", func(t *testing.T) {
		t.Parallel()

		no := false
		cfg := NewConfig()
		cfg.Quiet = true
		cfg.ApplyFile(&File{Quiet: &no})
		if cfg.Quiet {
			t.Error("expected Quiet to be reset by the file")
		}
	})
}

// TestConfigApplyEnv tests the environment lookup for the API key.
func TestConfigApplyEnv(t *testing.T) {
	t.Parallel()

	env := func(values map[string]string) func(string) (string, bool) {
		return func(k string) (string, bool) {
			v, ok := values[k]
			return v, ok
		}
	}

	t.Run("environment overrides file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.APIKey = "from-file"
		cfg.ApplyEnv(env(map[string]string{APIKeyEnv: "from-env"}))
		if cfg.APIKey != "from-env" {
			t.Errorf("expected env key, got %q", cfg.APIKey)
		}
	})

	t.Run("empty variable is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.APIKey = "from-file"
		cfg.ApplyEnv(env(map[string]string{APIKeyEnv: ""}))
		if cfg.APIKey != "from-file" {
			t.Errorf("expected file key, got %q", cfg.APIKey)
		}
	})

	t.Run("unset variable is ignored", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplyEnv(env(nil))
		if cfg.APIKey != "" {
			t.Errorf("expected no key, got %q", cfg.APIKey)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.opentip")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".opentip")
		content := `api_key: "secret"
no_upload: true
exclude:
  - "*.iso"
  - "/proc/*"
max_upload_size: 2048
timeout: 30s
workers: 4
proxy: "127.0.0.1:9050"
`
		if err := os.WriteFile(configPath, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cf.APIKey != "secret" {
			t.Errorf("expected api key, got %q", cf.APIKey)
		}
		if cf.NoUpload == nil || !*cf.NoUpload {
			t.Error("expected no_upload true")
		}
		if cf.Quiet != nil {
			t.Error("quiet was not set and should be nil")
		}
		if len(cf.Exclude) != 2 {
			t.Errorf("expected 2 exclude patterns, got %d", len(cf.Exclude))
		}
		if cf.MaxUploadSize == nil || *cf.MaxUploadSize != 2048 {
			t.Errorf("unexpected max_upload_size %v", cf.MaxUploadSize)
		}
		if cf.Timeout == nil || *cf.Timeout != 30*time.Second {
			t.Errorf("unexpected timeout %v", cf.Timeout)
		}
		if cf.Workers == nil || *cf.Workers != 4 {
			t.Errorf("unexpected workers %v", cf.Workers)
		}
		if cf.Proxy != "127.0.0.1:9050" {
			t.Errorf("unexpected proxy %q", cf.Proxy)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".opentip")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfigFile(configPath)
		if err == nil || !strings.Contains(err.Error(), configPath) {
			t.Errorf("expected parse error naming the file, got %v", err)
		}
	})

	t.Run("empty file is valid", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".opentip")
		if err := os.WriteFile(configPath, nil, 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cf, err := LoadConfigFile(configPath)
		if err != nil || cf == nil {
			t.Fatalf("expected empty config, got %v %v", cf, err)
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("quiet: true"), 0o600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	dir := XDGConfigDir()
	if dir == "" || filepath.Base(dir) != AppName {
		t.Errorf("unexpected XDG config dir %q", dir)
	}

	file := XDGConfigFile()
	if filepath.Dir(file) != dir || filepath.Base(file) != XDGConfigFileName {
		t.Errorf("unexpected XDG config file %q", file)
	}
}
