package opentip

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public OpenTIP API root.
	DefaultBaseURL = "https://opentip.kaspersky.com/api/v1/"

	// DefaultUserAgent identifies this tool in requests.
	DefaultUserAgent = "opentip-scanner/1.0 (+https://github.com/nao1215/opentip)"

	// DefaultMaxResponseSize bounds how much of a response body is read.
	DefaultMaxResponseSize = 16 * 1024 * 1024 // 16MiB

	// DefaultTimeout is the per-request timeout of the default HTTP client.
	DefaultTimeout = 60 * time.Second

	// APIKeyHeader carries the credential on every request.
	APIKeyHeader = "x-api-key"

	// maxErrorBody limits the body excerpt kept in a StatusError.
	maxErrorBody = 256
)

// Client talks to the reputation service. It is safe for concurrent use;
// all fields are read-only after New returns.
type Client struct {
	// baseURL always ends with a slash so endpoint paths can be appended.
	baseURL string

	// apiKey is sent in the x-api-key header.
	apiKey string

	// httpClient performs the requests. Timeouts and proxies are its concern.
	httpClient *http.Client

	// userAgent is sent in the User-Agent header.
	userAgent string

	// maxResponseSize bounds the number of body bytes read per response.
	maxResponseSize int64

	// limiter paces requests. Nil means unlimited.
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the service root, e.g. for a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithMaxResponseSize bounds how many bytes of a response body are read.
func WithMaxResponseSize(n int64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxResponseSize = n
		}
	}
}

// WithRateLimit limits requests to rps per second with the given burst.
// The service enforces a daily quota per key; pacing spreads large scans
// over time. Non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// New creates a Client authenticating with apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	c := &Client{
		baseURL:         DefaultBaseURL,
		apiKey:          apiKey,
		userAgent:       DefaultUserAgent,
		maxResponseSize: DefaultMaxResponseSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", c.baseURL)
	}
	if !strings.HasSuffix(c.baseURL, "/") {
		c.baseURL += "/"
	}

	return c, nil
}

// BaseURL returns the service root the client sends requests to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LookupURL returns the URL queried for an indicator.
func (c *Client) LookupURL(kind Kind, value string) string {
	return c.baseURL + "search/" + kind.String() + "?" + url.Values{"request": {value}}.Encode()
}

// LookupHash queries the reputation of a file hash.
// found is false when the service does not know the hash.
func (c *Client) LookupHash(ctx context.Context, sha256 string) (payload []byte, found bool, err error) {
	return c.LookupIOC(ctx, KindHash, sha256)
}

// LookupIOC queries the reputation of an indicator of compromise.
// found is false when the service does not know the indicator (HTTP 400).
// A 403 yields ErrForbidden; any other non-200 status a *StatusError.
func (c *Client) LookupIOC(ctx context.Context, kind Kind, value string) (payload []byte, found bool, err error) {
	if _, err := ParseKind(kind.String()); err != nil {
		return nil, false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.LookupURL(kind, value), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	status, body, err := c.do(req)
	if err != nil {
		return nil, false, err
	}

	switch status {
	case http.StatusOK:
		return body, true, nil
	case http.StatusBadRequest:
		return nil, false, nil
	case http.StatusForbidden:
		return nil, false, ErrForbidden
	default:
		return nil, false, newStatusError(req, status, body)
	}
}

// UploadFile submits file contents for sandbox analysis.
// The digest is sent as the filename query parameter.
//
// Every failure wraps ErrUploadFailed. A success status with an empty body
// also fails, with ErrEmptyResponse.
func (c *Client) UploadFile(ctx context.Context, sha256 string, content []byte) ([]byte, error) {
	endpoint := c.baseURL + "scan/file?" + url.Values{"filename": {sha256}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	status, body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	switch {
	case status == http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, ErrForbidden)
	case status != http.StatusOK:
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, newStatusError(req, status, body))
	case len(body) == 0:
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, ErrEmptyResponse)
	}

	return body, nil
}

// do sends the request with the credential attached and reads the body.
func (c *Client) do(req *http.Request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return 0, nil, fmt.Errorf("%s %s: rate limit: %w", req.Method, endpointOf(req), err)
		}
	}

	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", req.Method, endpointOf(req), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: failed to read response: %w", req.Method, endpointOf(req), err)
	}

	return resp.StatusCode, body, nil
}

func newStatusError(req *http.Request, status int, body []byte) *StatusError {
	excerpt := strings.TrimSpace(string(body))
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody]
	}
	return &StatusError{
		Method:     req.Method,
		Endpoint:   endpointOf(req),
		StatusCode: status,
		Body:       excerpt,
	}
}

// endpointOf returns the request URL without its query string, so that
// indicator values and digests do not end up in error messages twice.
func endpointOf(req *http.Request) string {
	u := *req.URL
	u.RawQuery = ""
	return u.String()
}
