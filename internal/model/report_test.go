package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNewScanReport tests the ScanReport constructor.
func TestNewScanReport(t *testing.T) {
	t.Parallel()

	r := NewScanReport([]string{"/tmp"})

	if r.RunID == uuid.Nil {
		t.Error("expected a run ID")
	}
	if r.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if r.Entries == nil {
		t.Error("expected non-nil entries")
	}
	if r.Duration() != 0 {
		t.Errorf("expected zero duration before finish, got %v", r.Duration())
	}
}

// TestScanReportCounters tests the aggregate counters.
func TestScanReportCounters(t *testing.T) {
	t.Parallel()

	r := NewScanReport([]string{"dir"})
	r.Add(Outcome{Target: Target{Path: "a"}, Status: StatusSkipped}, Verdict{Text: "skipped", Severity: SeverityInfo})
	r.Add(Outcome{Target: Target{Path: "b"}, Status: StatusReported}, Verdict{FileStatus: "Clean", Text: "Clean", Severity: SeverityBenign})
	r.Add(Outcome{Target: Target{Path: "c"}, Status: StatusReported}, Verdict{
		FileStatus: "Malware",
		Detections: []string{"Trojan.Win32.Generic"},
		Text:       "Malware: Trojan.Win32.Generic",
		Severity:   SeverityMalicious,
	})

	if got := r.Scanned(); got != 3 {
		t.Errorf("Scanned() = %d, expected 3", got)
	}
	if got := r.CountByOutcome(StatusReported); got != 2 {
		t.Errorf("CountByOutcome(reported) = %d, expected 2", got)
	}
	if got := r.CountBySeverity(SeverityMalicious); got != 1 {
		t.Errorf("CountBySeverity(malicious) = %d, expected 1", got)
	}
	if !r.HasDetections() {
		t.Error("expected HasDetections to be true")
	}

	r.FinishedAt = r.StartedAt.Add(2 * time.Second)
	if r.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, expected 2s", r.Duration())
	}
}

// TestIOCResultSetPayload tests that JSON payloads are kept verbatim and
// anything else becomes a JSON string.
func TestIOCResultSetPayload(t *testing.T) {
	t.Parallel()

	t.Run("json payload is kept", func(t *testing.T) {
		t.Parallel()

		var r IOCResult
		r.SetPayload([]byte(`{"Zone":"Green"}`))
		if string(r.Data) != `{"Zone":"Green"}` {
			t.Errorf("got %s", r.Data)
		}
		if !r.Known() {
			t.Error("expected Known() to be true")
		}
	})

	t.Run("text payload is quoted", func(t *testing.T) {
		t.Parallel()

		var r IOCResult
		r.SetPayload([]byte("not json"))
		var s string
		if err := json.Unmarshal(r.Data, &s); err != nil {
			t.Fatalf("expected a JSON string, got %s: %v", r.Data, err)
		}
		if s != "not json" {
			t.Errorf("got %q", s)
		}
	})

	t.Run("error result is not known", func(t *testing.T) {
		t.Parallel()

		r := NewIOCError("ip", "1.2.3.4", "https://example.com", errTest)
		if r.Known() {
			t.Error("expected Known() to be false")
		}
		if !errors.Is(r.Err(), errTest) {
			t.Errorf("Err() = %v", r.Err())
		}
	})
}

var errTest = errors.New("boom")
