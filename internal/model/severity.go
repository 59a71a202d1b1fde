package model

// Severity classifies a verdict for reporting and exit-code purposes.
//
// Only SeverityMalicious forces the "detections found" exit code. Both
// SeverityMalicious and SeverityUnparsed are printed even in quiet mode.
type Severity int

const (
	// SeverityInfo is used for outcomes that carry no verdict at all
	// (excluded, skipped, access denied, I/O failure).
	SeverityInfo Severity = iota

	// SeverityBenign covers the Clean, NotCategorized and NoThreats statuses.
	SeverityBenign

	// SeverityUnparsed means the service answered with something that is
	// not a structured verdict. The raw text is reported as-is.
	SeverityUnparsed

	// SeverityMalicious covers every other file status.
	SeverityMalicious
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityBenign:
		return "BENIGN"
	case SeverityUnparsed:
		return "UNPARSED"
	case SeverityMalicious:
		return "MALICIOUS"
	default:
		return "UNKNOWN"
	}
}

// IsLoud reports whether a verdict of this severity is always printed,
// regardless of quiet mode.
func (s Severity) IsLoud() bool {
	return s == SeverityUnparsed || s == SeverityMalicious
}

// benignStatuses are the FileStatus values the service uses for files it
// does not consider harmful.
var benignStatuses = map[string]bool{
	"Clean":          true,
	"NotCategorized": true,
	"NoThreats":      true,
}

// SeverityForStatus maps a FileStatus value from the service to a Severity.
func SeverityForStatus(fileStatus string) Severity {
	if benignStatuses[fileStatus] {
		return SeverityBenign
	}
	return SeverityMalicious
}

// Verdict is the interpretation of one outcome.
type Verdict struct {
	// FileStatus is the status reported by the service, empty when the
	// payload could not be parsed.
	FileStatus string

	// Detections lists detection names, if the service provided any.
	Detections []string

	// Text is the string printed next to the path.
	Text string

	Severity Severity
}
