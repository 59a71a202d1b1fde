package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nao1215/opentip/internal/model"
	"github.com/nao1215/opentip/internal/opentip"
	"github.com/nao1215/opentip/internal/pipeline"
	"github.com/nao1215/opentip/internal/report"
	"github.com/nao1215/opentip/internal/verdict"
	"github.com/spf13/cobra"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <hash|ip|domain|url> <value|file>",
		Short: "Look up indicators of compromise",
		Long: `Check looks up indicators of compromise on OpenTIP.

The second argument is either a single indicator, or the name of a file in
the current directory holding one indicator per line. Lookups run in
parallel and results are printed in input order:
  [IOC]: <value> : <response>
  [IOC]: <value> : Unknown
  [ERROR]: <value>

With --out the results are written to a file as a JSON array instead.

Examples:
  # Look up a single hash
  opentip check hash 44d88612fea8a8f36de82e1278abb02f

  # Look up every domain listed in a file and save the answers
  opentip check domain domains.txt --out domains.json`,
		Args: cobra.ExactArgs(2),
		RunE: runCheckCmd,
	}

	addServiceFlags(cmd)

	cmd.Flags().String("out", "",
		"Write results to this file as JSON")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, args []string) error {
	kind, err := opentip.ParseKind(args[0])
	if err != nil {
		return withExitCode(verdict.ExitRejected, err)
	}

	values, err := readIOCValues(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd, values)
	if err != nil {
		return withExitCode(verdict.ExitRejected, err)
	}
	if err := validate(cfg, cmd.ErrOrStderr()); err != nil {
		return err
	}

	outFile, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}

	logger := newLogger(cmd, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, cleanup, err := newServiceClient(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	checker := pipeline.NewIOCChecker(client,
		pipeline.WithIOCConcurrency(cfg.Workers),
		pipeline.WithIOCLogger(logger),
	)
	results := checker.Check(ctx, kind, values)

	if err := writeIOCResults(cmd, outFile, results); err != nil {
		return err
	}

	for _, r := range results {
		if errors.Is(r.Err(), opentip.ErrForbidden) {
			fmt.Fprintln(cmd.OutOrStdout(), verdict.ForbiddenMessage)
			return withExitCode(verdict.ExitRejected, nil)
		}
	}
	return ctxErr(ctx)
}

// ctxErr reports an interrupted check as a fatal error.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return withExitCode(verdict.ExitFatal, fmt.Errorf("check interrupted: %w", err))
	}
	return nil
}

// readIOCValues returns the indicators named by arg. If arg is a file,
// every non-empty line is an indicator; otherwise arg itself is.
func readIOCValues(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil || !info.Mode().IsRegular() {
		return []string{arg}, nil
	}

	f, err := os.Open(arg) //nolint:gosec // user-provided input file is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", arg, err)
	}
	defer f.Close()

	var values []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			values = append(values, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", arg, err)
	}
	if len(values) == 0 {
		return nil, withExitCode(verdict.ExitRejected, fmt.Errorf("no indicators in %s", arg))
	}

	return values, nil
}

// writeIOCResults prints one line per result, or writes them to outFile
// as a JSON array.
func writeIOCResults(cmd *cobra.Command, outFile string, results []model.IOCResult) error {
	if outFile == "" {
		for _, r := range results {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), verdict.FormatIOC(r)); err != nil {
				return err
			}
		}
		return nil
	}

	f, err := createOutputFile(outFile, os.O_TRUNC)
	if err != nil {
		return err
	}

	if _, err := report.NewJSONWriter(f, report.WithIndent("", "    ")).WriteIOC(results); err != nil {
		_ = f.Close() //nolint:errcheck // the write error is reported
		return err
	}
	return f.Close()
}
