package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/opentip/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown.
type MarkdownWriter struct {
	baseWriter
	title cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		title:      cases.Title(language.English),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeDetections(md, report)
	w.writeEntries(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("OpenTIP Scan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID.String() + "`"},
			{"Paths", "`" + strings.Join(report.Paths, "`, `") + "`"},
			{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on report state.
func statusText(report *model.ScanReport) string {
	switch {
	case report.AuthorizationRejected:
		return "⛔ API key rejected"
	case report.Error != "":
		return "❌ Aborted - " + report.Error
	case report.Dropped > 0:
		return "⚠️ Incomplete"
	default:
		return "✅ Complete"
	}
}

// writeSummary writes the outcome counters, the verdict pie chart and an
// alert matching the worst result.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"Discovered", strconv.Itoa(report.Discovered)},
			{"Reported", strconv.Itoa(report.CountByOutcome(model.StatusReported))},
			{"Skipped", strconv.Itoa(report.CountByOutcome(model.StatusSkipped))},
			{"Excluded", strconv.Itoa(report.CountByOutcome(model.StatusExcluded))},
			{"Access denied", strconv.Itoa(report.CountByOutcome(model.StatusAccessDenied))},
			{"I/O errors", strconv.Itoa(report.CountByOutcome(model.StatusIOFailure))},
			{"Not scanned (cancelled)", strconv.Itoa(report.Dropped)},
			{"**Scanned**", "**" + strconv.Itoa(report.Scanned()) + "**"},
		},
	})
	md.PlainText("")

	if report.CountByOutcome(model.StatusReported) > 0 {
		w.writePieChart(md, report)
	}

	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of verdict severities.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.ScanReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Verdicts"),
		piechart.WithShowData(true),
	)

	for _, sev := range []model.Severity{model.SeverityMalicious, model.SeverityUnparsed, model.SeverityBenign} {
		if n := report.CountBySeverity(sev); n > 0 {
			chart.LabelAndIntValue(w.title.String(sev.String()), uint64(n)) //nolint:gosec // count is never negative
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert for the most important result.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.ScanReport) {
	malicious := report.CountBySeverity(model.SeverityMalicious)

	switch {
	case report.AuthorizationRejected:
		md.Cautionf("The service rejected the API key. Results are incomplete.")
	case malicious > 0:
		md.Cautionf("%d file(s) received a malicious verdict.", malicious)
	case report.Error != "":
		md.Warningf("The scan was aborted: %s", report.Error)
	case report.CountBySeverity(model.SeverityUnparsed) > 0:
		md.Importantf("Some responses could not be parsed; see the raw verdicts below.")
	case report.CountByOutcome(model.StatusSkipped) > 0:
		md.Note("Some files are unknown to the service and were not uploaded.")
	default:
		md.Tip("No detections.")
	}
	md.PlainText("")
}

// writeDetections lists malicious verdicts with their detection names.
func (w *MarkdownWriter) writeDetections(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Detections")
	md.PlainText("")

	label := model.SeverityMalicious.String()
	rows := make([][]string, 0)
	for _, e := range report.Entries {
		if e.Severity != label {
			continue
		}
		detections := strings.Join(e.Detections, ", ")
		if detections == "" {
			detections = "-"
		}
		rows = append(rows, []string{"`" + e.Path + "`", e.FileStatus, detections, "`" + e.SHA256 + "`"})
	}

	if len(rows) == 0 {
		md.PlainText("No detections.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Status", "Detections", "SHA-256"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeEntries writes every other outcome.
func (w *MarkdownWriter) writeEntries(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("All Files")
	md.PlainText("")

	if len(report.Entries) == 0 {
		md.PlainText("No files were scanned.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Entries))
	for i, e := range report.Entries {
		rows[i] = []string{
			"`" + e.Path + "`",
			e.Outcome,
			truncateString(e.Verdict, 60),
			w.title.String(e.Severity),
			mimeText(e.MIME),
			strconv.FormatInt(e.Size, 10),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Outcome", "Verdict", "Severity", "Type", "Size"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [opentip](https://github.com/nao1215/opentip) using [OpenTIP](https://opentip.kaspersky.com)*")
}

// mimeText drops MIME parameters such as the charset.
func mimeText(mime string) string {
	if mime == "" {
		return "-"
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return "`" + mime + "`"
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
