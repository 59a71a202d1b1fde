package config

import (
	"net"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "opentip"

	// APIKeyEnv is the environment variable holding the API key.
	APIKeyEnv = "OPENTIP_APIKEY"

	// DefaultBaseURL is the root of the OpenTIP API.
	DefaultBaseURL = "https://opentip.kaspersky.com/api/v1/"

	// TokenURL is where users obtain an API key.
	TokenURL = "https://opentip.kaspersky.com/token"

	// DefaultTimeout bounds each request to the service, including reading
	// the response. Uploads of files near the size cap over a slow link are
	// the slowest requests we make.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxUploadSize is the largest file submitted for analysis.
	DefaultMaxUploadSize int64 = 10 * 1024 * 1024 // 10MiB

	// DefaultChunkSize is the read size used while hashing.
	DefaultChunkSize = 10 * 1024 * 1024 // 10MiB

	// DefaultUserAgent identifies opentip in HTTP requests.
	DefaultUserAgent = "opentip-scanner/1.0 (+https://github.com/nao1215/opentip)"

	// DefaultTorStartupTimeout is the maximum time to wait for the embedded
	// Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds all configuration options for opentip.
// It is populated from defaults, the optional config file, the environment
// and CLI flags, in that order, and passed down explicitly.
type Config struct {
	// APIKey is sent as the x-api-key header on every request.
	APIKey string

	// BaseURL is the root of the OpenTIP API.
	BaseURL string

	// Targets are the paths to scan, or the indicator values to check.
	Targets []string

	// NoUpload disables submitting unknown files for analysis.
	NoUpload bool

	// Quiet suppresses lines for benign verdicts.
	Quiet bool

	// Exclude holds glob patterns; matching paths are never opened.
	Exclude []string

	// LogFile receives verdict lines instead of stdout when set.
	LogFile string

	// MaxUploadSize is the largest file that is uploaded. Larger files are
	// still hashed and looked up.
	MaxUploadSize int64

	// ChunkSize is the read size used while hashing.
	ChunkSize int

	// Timeout bounds each HTTP request to the service.
	Timeout time.Duration

	// Workers is the number of files scanned in parallel.
	Workers int

	// Verbose enables debug diagnostics.
	Verbose bool

	// LogJSON switches diagnostics to JSON.
	LogJSON bool

	// ConfigFilePath is the configuration file given with --config.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport writes a JSON report after the run.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport writes a Markdown report after the run.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// TextReport writes a plain text summary after the run.
	// Mutually exclusive with the other report formats.
	TextReport bool

	// ReportFile is the output file for the report. Stdout when empty.
	ReportFile string

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor routes requests through an embedded Tor daemon.
	// Mutually exclusive with ProxyAddress.
	UseTor bool

	// TorStartupTimeout is the maximum time to wait for the embedded Tor
	// daemon. Only used with UseTor.
	TorStartupTimeout time.Duration

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// RateLimit caps requests per second to the service. Zero is unlimited.
	RateLimit float64
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		BaseURL:           DefaultBaseURL,
		MaxUploadSize:     DefaultMaxUploadSize,
		ChunkSize:         DefaultChunkSize,
		Timeout:           DefaultTimeout,
		Workers:           runtime.GOMAXPROCS(0),
		TorStartupTimeout: DefaultTorStartupTimeout,
		UserAgent:         DefaultUserAgent,
	}
}

// ReadChunkSize returns the read size for hashing. It is at least
// MaxUploadSize when uploads are enabled, so an uploadable file is read in
// a single chunk.
func (c *Config) ReadChunkSize() int {
	if c.NoUpload {
		return c.ChunkSize
	}
	return max(c.ChunkSize, int(c.MaxUploadSize))
}

// ApplyFile copies every value set in the config file onto c.
// A nil file is ignored.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	if f.APIKey != "" {
		c.APIKey = f.APIKey
	}
	if f.BaseURL != "" {
		c.BaseURL = f.BaseURL
	}
	if f.NoUpload != nil {
		c.NoUpload = *f.NoUpload
	}
	if f.Quiet != nil {
		c.Quiet = *f.Quiet
	}
	if len(f.Exclude) > 0 {
		c.Exclude = append([]string(nil), f.Exclude...)
	}
	if f.MaxUploadSize != nil {
		c.MaxUploadSize = *f.MaxUploadSize
	}
	if f.Timeout != nil {
		c.Timeout = *f.Timeout
	}
	if f.Workers != nil {
		c.Workers = *f.Workers
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.Tor != nil {
		c.UseTor = *f.Tor
	}
	if f.RateLimit != nil {
		c.RateLimit = *f.RateLimit
	}
}

// ApplyEnv takes the API key from the environment when it is set.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if key, ok := lookup(APIKeyEnv); ok && key != "" {
		c.APIKey = key
	}
}

// XDGConfigDir returns the XDG config directory for opentip.
// On Linux: ~/.config/opentip
// On macOS: ~/Library/Application Support/opentip
// On Windows: %APPDATA%\opentip
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGConfigFile returns the path of the config file inside XDGConfigDir.
func XDGConfigFile() string {
	return filepath.Join(XDGConfigDir(), XDGConfigFileName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the package's sentinel
// errors. It is called once after flag parsing, before any network access.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	if c.APIKey == "" {
		return ErrNoAPIKey
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.MaxUploadSize <= 0 {
		return ErrInvalidMaxUploadSize
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.reportFormats() > 1 {
		return ErrConflictingReportFormats
	}

	if c.ProxyAddress != "" {
		if c.UseTor {
			return ErrConflictingProxy
		}
		if !validHostPort(c.ProxyAddress) {
			return ErrInvalidProxy
		}
	}

	return nil
}

// WantsReport reports whether an end-of-run report was requested.
func (c *Config) WantsReport() bool {
	return c.reportFormats() > 0
}

func (c *Config) reportFormats() int {
	n := 0
	for _, set := range []bool{c.JSONReport, c.MarkdownReport, c.TextReport} {
		if set {
			n++
		}
	}
	return n
}

func validHostPort(addr string) bool {
	host, port, err := net.SplitHostPort(addr)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n > 0 && n <= 65535
}
