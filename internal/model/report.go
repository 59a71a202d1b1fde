package model

import (
	"time"

	"github.com/google/uuid"
)

// ScanReport summarizes one invocation of the file scanner.
// It is built by the verdict aggregator while outcomes stream in and is
// written out by the JSON and Markdown report writers after the run.
type ScanReport struct {
	// RunID identifies this invocation in reports and log lines.
	RunID uuid.UUID `json:"run_id"`

	// Paths are the inputs given on the command line.
	Paths []string `json:"paths"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Entries holds one entry per outcome, in completion order.
	Entries []ReportEntry `json:"entries"`

	// Discovered is the number of targets found by enumeration.
	Discovered int `json:"discovered"`

	// Dropped is the number of discovered targets that never produced an
	// outcome because the run was cancelled first. They were not scanned
	// and are not reported.
	Dropped int `json:"dropped"`

	// AuthorizationRejected is set when the service refused the API key.
	AuthorizationRejected bool `json:"authorization_rejected"`

	// Error is the fatal error that aborted the run, if any.
	Error string `json:"error,omitempty"`
}

// ReportEntry is the report view of a single outcome.
type ReportEntry struct {
	Path       string   `json:"path"`
	Outcome    string   `json:"outcome"`
	SHA256     string   `json:"sha256,omitempty"`
	Size       int64    `json:"size"`
	MIME       string   `json:"mime,omitempty"`
	Uploaded   bool     `json:"uploaded,omitempty"`
	FileStatus string   `json:"file_status,omitempty"`
	Detections []string `json:"detections,omitempty"`
	Verdict    string   `json:"verdict"`
	Severity   string   `json:"severity"`
}

// NewScanReport creates an empty report for the given inputs with a fresh
// run ID.
func NewScanReport(paths []string) *ScanReport {
	return &ScanReport{
		RunID:     uuid.New(),
		Paths:     paths,
		StartedAt: time.Now(),
		Entries:   make([]ReportEntry, 0),
	}
}

// Add appends an outcome and its verdict to the report.
func (r *ScanReport) Add(o Outcome, v Verdict) {
	r.Entries = append(r.Entries, ReportEntry{
		Path:       o.Target.Path,
		Outcome:    o.Status.String(),
		SHA256:     o.Digest,
		Size:       o.Size,
		MIME:       o.MIME,
		Uploaded:   o.Uploaded,
		FileStatus: v.FileStatus,
		Detections: v.Detections,
		Verdict:    v.Text,
		Severity:   v.Severity.String(),
	})
}

// CountByOutcome returns the number of entries with the given outcome.
func (r *ScanReport) CountByOutcome(s Status) int {
	label := s.String()
	n := 0
	for _, e := range r.Entries {
		if e.Outcome == label {
			n++
		}
	}
	return n
}

// CountBySeverity returns the number of entries with the given severity.
func (r *ScanReport) CountBySeverity(s Severity) int {
	label := s.String()
	n := 0
	for _, e := range r.Entries {
		if e.Severity == label {
			n++
		}
	}
	return n
}

// Scanned returns the number of targets that produced an outcome.
func (r *ScanReport) Scanned() int {
	return len(r.Entries)
}

// HasDetections reports whether any entry is malicious.
func (r *ScanReport) HasDetections() bool {
	return r.CountBySeverity(SeverityMalicious) > 0
}

// Duration returns how long the run took.
func (r *ScanReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
