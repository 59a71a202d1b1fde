package model

import "testing"

// TestSeverityString tests the String method of Severity.
func TestSeverityString(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		severity Severity
		expected string
	}{
		{SeverityInfo, "INFO"},
		{SeverityBenign, "BENIGN"},
		{SeverityUnparsed, "UNPARSED"},
		{SeverityMalicious, "MALICIOUS"},
		{Severity(999), "UNKNOWN"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if tc.severity.String() != tc.expected {
				t.Errorf("got %q, expected %q", tc.severity.String(), tc.expected)
			}
		})
	}
}

// TestSeverityForStatus tests the FileStatus to Severity mapping.
func TestSeverityForStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status   string
		expected Severity
	}{
		{"Clean", SeverityBenign},
		{"NotCategorized", SeverityBenign},
		{"NoThreats", SeverityBenign},
		{"Malware", SeverityMalicious},
		{"Adware and other", SeverityMalicious},
		{"clean", SeverityMalicious},
		{"", SeverityMalicious},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			t.Parallel()
			if got := SeverityForStatus(tc.status); got != tc.expected {
				t.Errorf("SeverityForStatus(%q) = %v, expected %v", tc.status, got, tc.expected)
			}
		})
	}
}

// TestSeverityIsLoud tests which severities bypass quiet mode.
func TestSeverityIsLoud(t *testing.T) {
	t.Parallel()

	if SeverityInfo.IsLoud() {
		t.Error("INFO should not be loud")
	}
	if SeverityBenign.IsLoud() {
		t.Error("BENIGN should not be loud")
	}
	if !SeverityUnparsed.IsLoud() {
		t.Error("UNPARSED should be loud")
	}
	if !SeverityMalicious.IsLoud() {
		t.Error("MALICIOUS should be loud")
	}
}
