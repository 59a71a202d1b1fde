// Package report provides result and report output.
//
// LineWriter prints the per-file verdict lines while a scan runs. After the
// run, one of the Writer implementations renders the model.ScanReport:
//   - SimpleWriter: plain text summary for terminal display
//   - JSONWriter: structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with tables, alerts and a
//     pie chart
//
// Report data structures live in the model package; this package only
// renders them.
package report
