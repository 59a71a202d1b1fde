package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nao1215/opentip/internal/config"
	applog "github.com/nao1215/opentip/internal/log"
	"github.com/nao1215/opentip/internal/opentip"
	"github.com/nao1215/opentip/internal/transport"
	"github.com/nao1215/opentip/internal/verdict"
	"github.com/spf13/cobra"
)

// apiKeyHint is printed when no API key is configured.
var apiKeyHint = fmt.Sprintf("Please set the %s env variable or use --apikey. You can get a key at %s",
	config.APIKeyEnv, config.TokenURL)

// addServiceFlags registers the flags shared by every command that talks
// to the service.
func addServiceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("apikey", "k", "",
		"OpenTIP API key (overrides "+config.APIKeyEnv+")")
	cmd.Flags().String("base-url", config.DefaultBaseURL,
		"OpenTIP API root")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request to the service")
	cmd.Flags().IntP("workers", "w", 0,
		"Number of parallel workers (default: number of CPUs)")
	cmd.Flags().StringP("proxy", "x", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().Float64("rate-limit", 0,
		"Maximum requests per second to the service (0: unlimited)")
}

// changed reports whether the user set the named flag.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// loadConfig builds the configuration from defaults, the config file and
// the environment. Flags are applied by the caller.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Targets = args

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly given file must exist; the default locations are optional.
	path := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case path != "":
		f, err := config.LoadConfigFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.ApplyFile(f)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.ApplyEnv(os.LookupEnv)

	cfg.Verbose = getVerboseFlag(cmd)
	cfg.LogJSON, err = cmd.Flags().GetBool("log-json")
	if err != nil {
		return nil, err
	}

	return cfg, applyServiceFlags(cmd, cfg)
}

// applyServiceFlags copies the service flags the user set onto cfg.
func applyServiceFlags(cmd *cobra.Command, cfg *config.Config) error {
	var err error
	flags := cmd.Flags()

	if changed(cmd, "apikey") {
		if cfg.APIKey, err = flags.GetString("apikey"); err != nil {
			return err
		}
	}
	if changed(cmd, "base-url") {
		if cfg.BaseURL, err = flags.GetString("base-url"); err != nil {
			return err
		}
	}
	if changed(cmd, "timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if changed(cmd, "workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if changed(cmd, "proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if changed(cmd, "tor") {
		if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
			return err
		}
	}
	if changed(cmd, "tor-timeout") {
		if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
			return err
		}
	}
	if changed(cmd, "rate-limit") {
		if cfg.RateLimit, err = flags.GetFloat64("rate-limit"); err != nil {
			return err
		}
	}

	return nil
}

// validate checks cfg and maps problems to the configuration exit code.
// A missing API key prints the hint on w.
func validate(cfg *config.Config, w io.Writer) error {
	err := cfg.Validate()
	if err == nil {
		return nil
	}
	if errors.Is(err, config.ErrNoAPIKey) {
		fmt.Fprintln(w, apiKeyHint)
		return withExitCode(verdict.ExitRejected, nil)
	}
	return withExitCode(verdict.ExitRejected, fmt.Errorf("configuration error: %w", err))
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// newLogger creates the diagnostics logger. Diagnostics go to stderr so
// they never mix with verdict lines.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return applog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	return applog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
}

// newServiceClient creates the OpenTIP client over the configured
// transport. The returned cleanup stops the embedded Tor daemon, if any,
// and must always be called.
func newServiceClient(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*opentip.Client, func(), error) {
	cleanup := func() {}

	var (
		tc  *transport.Client
		err error
	)
	switch {
	case cfg.UseTor:
		tc, cleanup, err = startEmbeddedTor(ctx, cmd, cfg, logger)
	case cfg.ProxyAddress != "":
		tc, err = transport.NewProxyClient(cfg.ProxyAddress, cfg.Timeout)
	default:
		tc = transport.NewDirectClient(cfg.Timeout)
	}
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}

	if tc.UsesProxy() {
		if err := checkProxy(ctx, tc, cfg.BaseURL); err != nil {
			cleanup()
			return nil, func() {}, err
		}
		logger.Info("proxy connection verified", "proxy", tc.ProxyAddress())
	}

	client, err := opentip.New(cfg.APIKey,
		opentip.WithBaseURL(cfg.BaseURL),
		opentip.WithHTTPClient(tc.NewHTTPClient()),
		opentip.WithUserAgent(cfg.UserAgent),
		opentip.WithRateLimit(cfg.RateLimit, 1),
	)
	if err != nil {
		cleanup()
		return nil, func() {}, withExitCode(verdict.ExitRejected, fmt.Errorf("configuration error: %w", err))
	}

	return client, cleanup, nil
}

// checkProxy verifies the proxy can reach the service host.
func checkProxy(ctx context.Context, tc *transport.Client, baseURL string) error {
	host, port, err := serviceHostPort(baseURL)
	if err != nil {
		return withExitCode(verdict.ExitRejected, fmt.Errorf("configuration error: %w", err))
	}

	status := tc.CheckProxy(ctx, host, port)
	if err := status.Error(); err != nil {
		return fmt.Errorf("proxy check failed: %s (make sure a SOCKS5 proxy is running at %s): %w",
			status, tc.ProxyAddress(), err)
	}
	return nil
}

// serviceHostPort extracts the host and port requests will connect to.
func serviceHostPort(baseURL string) (string, uint16, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Hostname() == "" {
		return "", 0, fmt.Errorf("invalid base URL %q: missing host", baseURL)
	}

	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return "", 0, fmt.Errorf("invalid base URL %q: bad port", baseURL)
		}
		return u.Hostname(), uint16(n), nil
	}
	if u.Scheme == "http" {
		return u.Hostname(), 80, nil
	}
	return u.Hostname(), 443, nil
}

// startEmbeddedTor starts an embedded Tor daemon and returns a transport
// through it.
func startEmbeddedTor(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) (*transport.Client, func(), error) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Starting embedded Tor daemon...")
	fmt.Fprintf(cmd.ErrOrStderr(), "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	tor := transport.NewEmbeddedTor(
		transport.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := tor.Start(ctx); err != nil {
		return nil, func() {}, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", tor.SocksAddr(),
		"controlAddr", tor.ControlAddr(),
	)

	cleanup := func() {
		logger.Info("stopping embedded Tor daemon")
		if err := tor.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}

	tc, err := tor.NewClient(cfg.Timeout)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to create Tor client: %w", err)
	}

	return tc, cleanup, nil
}

// createOutputFile creates path for writing, with parent directories.
// Reports and verdict logs name files that may be sensitive, so the file
// is only readable by the owner.
func createOutputFile(path string, flag int) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|flag, 0600) //nolint:gosec // user-provided output path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
