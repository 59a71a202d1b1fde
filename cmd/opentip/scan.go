package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/opentip/internal/config"
	"github.com/nao1215/opentip/internal/digest"
	"github.com/nao1215/opentip/internal/model"
	"github.com/nao1215/opentip/internal/pipeline"
	"github.com/nao1215/opentip/internal/report"
	"github.com/nao1215/opentip/internal/verdict"
	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]...",
		Short: "Scan files and directories",
		Long: `Scan checks every file under the given paths against OpenTIP.

Directories are walked recursively. Each file is hashed with SHA-256 and
the digest is looked up. Files the service does not know are uploaded for
analysis, unless --no-upload is given or the file is empty or larger than
--max-upload-size.

One line is printed per file, in completion order:
  2024-01-02 15:04:05 /path/to/file: Clean
  2024-01-02 15:04:05 /path/to/other: Malware: Trojan.Win32.Agent

Exit codes:
  0  nothing malicious was found
  1  the scan was aborted by an unexpected error
  2  the API key is missing or was rejected, or the configuration is invalid
  3  at least one file received a malicious verdict

Examples:
  # Scan a directory
  opentip scan ~/Downloads

  # Never upload file contents
  opentip scan --no-upload /srv/uploads

  # Skip some files and write verdicts to a log file
  opentip scan -e '*.iso' -e '*/node_modules/*' --log scan.log /data

  # Print only non-benign verdicts and a Markdown report
  opentip scan -q --markdown -o report.md /data`,
		Args: cobra.ArbitraryArgs,
		RunE: runScanCmd,
	}

	addServiceFlags(cmd)

	// Scan behavior flags
	cmd.Flags().BoolP("no-upload", "n", false,
		"Do not upload files unknown to the service")
	cmd.Flags().StringArrayP("exclude", "e", nil,
		"Exclude paths matching a glob pattern (repeatable)")
	cmd.Flags().StringP("log", "l", "",
		"Append verdict lines to this file instead of stdout")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not print benign verdicts")
	cmd.Flags().Int64("max-upload-size", config.DefaultMaxUploadSize,
		"Largest file in bytes that is uploaded")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Write a JSON report after the scan (mutually exclusive with --markdown and --summary)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Write a Markdown report after the scan (mutually exclusive with --json and --summary)")
	cmd.Flags().BoolP("summary", "s", false,
		"Write a plain text summary after the scan (mutually exclusive with --json and --markdown)")
	cmd.Flags().StringP("output", "o", "",
		"Write the report to specified file path (creates directories if needed)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg, err := buildScanConfig(cmd, args)
	if err != nil {
		return withExitCode(verdict.ExitRejected, err)
	}
	if err := validate(cfg, cmd.ErrOrStderr()); err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cmd, cfg, logger)
}

// buildScanConfig creates a Config for the scan command.
func buildScanConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if changed(cmd, "no-upload") {
		if cfg.NoUpload, err = flags.GetBool("no-upload"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "exclude") {
		if cfg.Exclude, err = flags.GetStringArray("exclude"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "quiet") {
		if cfg.Quiet, err = flags.GetBool("quiet"); err != nil {
			return nil, err
		}
	}
	if changed(cmd, "max-upload-size") {
		if cfg.MaxUploadSize, err = flags.GetInt64("max-upload-size"); err != nil {
			return nil, err
		}
	}

	if cfg.LogFile, err = flags.GetString("log"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.TextReport, err = flags.GetBool("summary"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runScan executes the scan and writes the requested report.
func runScan(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	excluder, err := pipeline.NewExcluder(cfg.Exclude)
	if err != nil {
		return withExitCode(verdict.ExitRejected, fmt.Errorf("configuration error: %w", err))
	}

	scanReport := model.NewScanReport(cfg.Targets)
	logger = logger.With("run_id", scanReport.RunID.String())

	client, cleanup, err := newServiceClient(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	out, closeOut, err := openVerdictOutput(cmd, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeOut()

	task := pipeline.NewTask(client,
		pipeline.WithExcluder(excluder),
		pipeline.WithUpload(!cfg.NoUpload),
		pipeline.WithMaxUploadSize(cfg.MaxUploadSize),
		pipeline.WithHasher(digest.NewReader(cfg.ReadChunkSize())),
		pipeline.WithTaskLogger(logger),
	)
	orchestrator := pipeline.New(task,
		pipeline.WithWorkers(cfg.Workers),
		pipeline.WithLogger(logger),
	)
	aggregator := verdict.NewAggregator(report.NewLineWriter(out), scanReport,
		verdict.WithQuiet(cfg.Quiet),
		verdict.WithLogger(logger),
	)

	logger.Info("starting scan",
		"paths", cfg.Targets,
		"workers", orchestrator.Workers(),
		"upload", !cfg.NoUpload,
		"proxy", cfg.ProxyAddress != "" || cfg.UseTor,
	)

	run := orchestrator.Scan(ctx, cfg.Targets)
	writeErr := aggregator.Consume(run.Outcomes())
	summary, runErr := run.Wait()
	aggregator.Finish(summary.Discovered, len(summary.Dropped), runErr)

	logger.Info("scan finished",
		"discovered", summary.Discovered,
		"completed", summary.Completed,
		"dropped", len(summary.Dropped),
		"elapsed", summary.Elapsed,
	)

	if cfg.WantsReport() {
		if err := outputReport(cmd, cfg, aggregator.Report()); err != nil {
			logger.Error("report failed", "error", err)
			if writeErr == nil {
				writeErr = err
			}
		}
	}

	if writeErr != nil && aggregator.ExitCode() != verdict.ExitRejected && aggregator.Err() == nil {
		return withExitCode(verdict.ExitFatal, writeErr)
	}
	return exitForAggregator(aggregator)
}

// openVerdictOutput returns where verdict lines go: stdout, or the log
// file opened for appending.
func openVerdictOutput(cmd *cobra.Command, logFile string) (io.Writer, func(), error) {
	if logFile == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}

	f, err := createOutputFile(logFile, os.O_APPEND)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // appended lines were already written
}

// outputReport writes the end-of-run report in the requested format.
func outputReport(cmd *cobra.Command, cfg *config.Config, scanReport *model.ScanReport) (err error) {
	output := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, ferr := createOutputFile(cfg.ReportFile, os.O_TRUNC)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		output = f
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err = writer.Write(scanReport)
	return err
}
