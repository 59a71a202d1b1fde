package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/opentip/internal/model"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables indented output with the given prefix and indent.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the scan report together with its summary counters.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.writeJSON(newJSONReport(report))
}

// WriteIOC outputs indicator lookup results as a JSON array.
func (w *JSONWriter) WriteIOC(results []model.IOCResult) (int, error) {
	if results == nil {
		results = []model.IOCResult{}
	}
	return w.writeJSON(results)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}

// jsonReport is the serialized form of a ScanReport.
type jsonReport struct {
	*model.ScanReport
	Summary jsonSummary `json:"summary"`
}

type jsonSummary struct {
	Scanned    int     `json:"scanned"`
	Reported   int     `json:"reported"`
	Excluded   int     `json:"excluded"`
	Skipped    int     `json:"skipped"`
	Denied     int     `json:"denied"`
	IOErrors   int     `json:"io_errors"`
	Malicious  int     `json:"malicious"`
	Unparsed   int     `json:"unparsed"`
	DurationMS float64 `json:"duration_ms"`
}

func newJSONReport(r *model.ScanReport) jsonReport {
	return jsonReport{
		ScanReport: r,
		Summary: jsonSummary{
			Scanned:    r.Scanned(),
			Reported:   r.CountByOutcome(model.StatusReported),
			Excluded:   r.CountByOutcome(model.StatusExcluded),
			Skipped:    r.CountByOutcome(model.StatusSkipped),
			Denied:     r.CountByOutcome(model.StatusAccessDenied),
			IOErrors:   r.CountByOutcome(model.StatusIOFailure),
			Malicious:  r.CountBySeverity(model.SeverityMalicious),
			Unparsed:   r.CountBySeverity(model.SeverityUnparsed),
			DurationMS: float64(r.Duration().Microseconds()) / 1000,
		},
	}
}
