package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/opentip/internal/model"
)

// SimpleWriter outputs a plain text summary for terminal display.
// It uses ASCII framing only so it can be piped to files or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose lists every file, not only the noteworthy ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose lists benign files too.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report summary in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeSection(&sb, "DETECTIONS", report, func(e model.ReportEntry) bool {
		return e.Severity == model.SeverityMalicious.String()
	})
	w.writeSection(&sb, "UNPARSED RESPONSES", report, func(e model.ReportEntry) bool {
		return e.Severity == model.SeverityUnparsed.String()
	})
	w.writeSection(&sb, "NOT CHECKED", report, func(e model.ReportEntry) bool {
		return e.Severity == model.SeverityInfo.String() && e.Outcome != model.StatusExcluded.String()
	})
	if w.verbose {
		w.writeSection(&sb, "BENIGN", report, func(e model.ReportEntry) bool {
			return e.Severity == model.SeverityBenign.String()
		})
	}
	w.writeFooter(&sb)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                       OPENTIP SCAN REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run ID:   %s\n", report.RunID)
	fmt.Fprintf(sb, "Paths:    %s\n", strings.Join(report.Paths, ", "))
	fmt.Fprintf(sb, "Started:  %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))

	switch {
	case report.AuthorizationRejected:
		sb.WriteString("Status:   API KEY REJECTED\n")
	case report.Error != "":
		fmt.Fprintf(sb, "Status:   ABORTED - %s\n", report.Error)
	case report.Dropped > 0:
		sb.WriteString("Status:   INCOMPLETE\n")
	default:
		sb.WriteString("Status:   Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the outcome counters.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	rule(sb, "-")
	sb.WriteString("SUMMARY\n")
	rule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  DISCOVERED: %d\n", report.Discovered)
	fmt.Fprintf(sb, "  MALICIOUS:  %d\n", report.CountBySeverity(model.SeverityMalicious))
	fmt.Fprintf(sb, "  BENIGN:     %d\n", report.CountBySeverity(model.SeverityBenign))
	fmt.Fprintf(sb, "  UNPARSED:   %d\n", report.CountBySeverity(model.SeverityUnparsed))
	fmt.Fprintf(sb, "  SKIPPED:    %d\n", report.CountByOutcome(model.StatusSkipped))
	fmt.Fprintf(sb, "  EXCLUDED:   %d\n", report.CountByOutcome(model.StatusExcluded))
	fmt.Fprintf(sb, "  DENIED:     %d\n", report.CountByOutcome(model.StatusAccessDenied))
	fmt.Fprintf(sb, "  OS ERROR:   %d\n", report.CountByOutcome(model.StatusIOFailure))
	fmt.Fprintf(sb, "  DROPPED:    %d\n", report.Dropped)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:      %d scanned\n", report.Scanned())
	sb.WriteString("\n")
}

// writeSection lists the entries selected by keep.
func (w *SimpleWriter) writeSection(sb *strings.Builder, title string, report *model.ScanReport, keep func(model.ReportEntry) bool) {
	var entries []model.ReportEntry
	for _, e := range report.Entries {
		if keep(e) {
			entries = append(entries, e)
		}
	}

	if len(entries) == 0 && !w.showEmpty {
		return
	}

	rule(sb, "-")
	sb.WriteString(title + "\n")
	rule(sb, "-")
	sb.WriteString("\n")

	if len(entries) == 0 {
		sb.WriteString("  None\n\n")
		return
	}

	for _, e := range entries {
		fmt.Fprintf(sb, "  * %s\n", e.Path)
		fmt.Fprintf(sb, "    Verdict: %s\n", e.Verdict)
		if e.SHA256 != "" {
			fmt.Fprintf(sb, "    SHA-256: %s\n", e.SHA256)
		}
		if e.MIME != "" {
			fmt.Fprintf(sb, "    Type:    %s\n", e.MIME)
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	rule(sb, "=")
	sb.WriteString("Report generated by opentip\n")
	sb.WriteString("https://github.com/nao1215/opentip\n")
	rule(sb, "=")
}
