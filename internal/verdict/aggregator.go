package verdict

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/opentip/internal/model"
	"github.com/nao1215/opentip/internal/opentip"
)

// Process exit codes.
const (
	// ExitClean means nothing malicious was found.
	ExitClean = 0

	// ExitFatal means the run was aborted by an unexpected failure.
	ExitFatal = 1

	// ExitRejected means the API key was rejected or missing, or the
	// configuration is invalid.
	ExitRejected = 2

	// ExitDetections means at least one file got a malicious verdict.
	ExitDetections = 3
)

// ForbiddenMessage is printed once when the service rejects the API key.
const ForbiddenMessage = `Received "Forbidden", please use another API key or try again later`

// LineWriter receives human-readable result lines.
type LineWriter interface {
	WriteLine(line string) error
}

// Aggregator folds scan outcomes into printed lines, a report and an
// exit code. It is not safe for concurrent use; a single goroutine drains
// the outcome stream.
type Aggregator struct {
	out    LineWriter
	quiet  bool
	logger *slog.Logger
	report *model.ScanReport

	detections bool
	rejected   bool
	fatal      error
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithQuiet suppresses lines for benign verdicts.
func WithQuiet(quiet bool) Option {
	return func(a *Aggregator) {
		a.quiet = quiet
	}
}

// WithLogger sets the logger used for fatal outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator writing lines to out and entries
// to report.
func NewAggregator(out LineWriter, report *model.ScanReport, opts ...Option) *Aggregator {
	a := &Aggregator{
		out:    out,
		report: report,
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Observe handles one outcome. It returns an error only if a line could
// not be written.
func (a *Aggregator) Observe(o model.Outcome) error {
	v := ForOutcome(o)
	a.report.Add(o, v)

	if o.Status == model.StatusFatal {
		return a.observeFatal(o)
	}

	if v.Severity == model.SeverityMalicious {
		a.detections = true
	}

	if a.quiet && v.Severity == model.SeverityBenign {
		return nil
	}
	return a.out.WriteLine(fmt.Sprintf("%s: %s", o.Target.Path, v.Text))
}

func (a *Aggregator) observeFatal(o model.Outcome) error {
	if errors.Is(o.Err, opentip.ErrForbidden) {
		if a.rejected {
			return nil
		}
		a.rejected = true
		a.report.AuthorizationRejected = true
		return a.out.WriteLine(ForbiddenMessage)
	}

	a.logger.Error("scan aborted", "path", o.Target.Path, "error", o.Err)
	if a.fatal == nil {
		a.fatal = o.Err
		a.report.Error = o.Err.Error()
	}
	return nil
}

// Consume drains outcomes until the channel is closed. Every outcome is
// observed even after a write error; the first write error is returned.
func (a *Aggregator) Consume(outcomes <-chan model.Outcome) error {
	var firstErr error
	for o := range outcomes {
		if err := a.Observe(o); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Finish records run-level facts in the report. runErr is the error the
// run ended with; it counts as fatal unless it is the rejection already
// reported through an outcome.
func (a *Aggregator) Finish(discovered, dropped int, runErr error) {
	a.report.Discovered = discovered
	a.report.Dropped = dropped
	a.report.FinishedAt = time.Now()

	if runErr == nil {
		return
	}
	if errors.Is(runErr, opentip.ErrForbidden) {
		if !a.rejected {
			a.rejected = true
			a.report.AuthorizationRejected = true
			_ = a.out.WriteLine(ForbiddenMessage) //nolint:errcheck // best effort at shutdown
		}
		return
	}
	if a.fatal == nil {
		a.fatal = runErr
		a.report.Error = runErr.Error()
	}
}

// Report returns the report being built.
func (a *Aggregator) Report() *model.ScanReport {
	return a.report
}

// Err returns the fatal error that aborted the run, or nil. A rejected
// API key is not reported here; see ExitCode.
func (a *Aggregator) Err() error {
	return a.fatal
}

// ExitCode returns the exit code for the outcomes seen so far.
// A rejected API key wins over everything, then a fatal error, then
// detections.
func (a *Aggregator) ExitCode() int {
	switch {
	case a.rejected:
		return ExitRejected
	case a.fatal != nil:
		return ExitFatal
	case a.detections:
		return ExitDetections
	default:
		return ExitClean
	}
}
