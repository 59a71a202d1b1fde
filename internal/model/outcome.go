package model

// Target is a filesystem path supplied by the caller or discovered by
// directory traversal. It is never modified after creation.
type Target struct {
	// Path is the path exactly as given or as joined during traversal.
	// Exclusion patterns are matched against this string.
	Path string
}

// Status identifies which of the possible outcomes a scan task produced.
type Status int

const (
	// StatusExcluded means the path matched an exclusion pattern and was
	// neither opened nor hashed.
	StatusExcluded Status = iota

	// StatusAccessDenied means the OS refused to open or read the file.
	StatusAccessDenied

	// StatusIOFailure means any other OS-level error while reading.
	StatusIOFailure

	// StatusSkipped means the hash is unknown to the service and the file
	// was not uploaded (uploads disabled, empty file, or over the size cap).
	// It is distinct from a clean verdict: nothing was learned.
	StatusSkipped

	// StatusReported means the service returned a payload for the file,
	// either from the hash lookup or from the upload.
	StatusReported

	// StatusFatal means the task hit a condition that aborts the run:
	// an upload failure, an unexpected lookup status, a rejected
	// credential, or an unclassified transport error. Err holds the cause.
	StatusFatal
)

// String returns the label printed for the outcome.
func (s Status) String() string {
	switch s {
	case StatusExcluded:
		return "excluded"
	case StatusAccessDenied:
		return "denied"
	case StatusIOFailure:
		return "OS error"
	case StatusSkipped:
		return "skipped"
	case StatusReported:
		return "reported"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// IsInformational reports whether the outcome is rendered as a plain
// informational line that never affects the exit code.
func (s Status) IsInformational() bool {
	switch s {
	case StatusExcluded, StatusAccessDenied, StatusIOFailure, StatusSkipped:
		return true
	default:
		return false
	}
}

// Outcome is the result of scanning a single Target.
// Exactly one Outcome is produced for each target whose task ran.
type Outcome struct {
	Target Target
	Status Status

	// Digest is the hex SHA-256 of the file contents. Empty when the file
	// was excluded or could not be read.
	Digest string

	// Size is the number of bytes hashed.
	Size int64

	// MIME is the media type detected while hashing.
	MIME string

	// Uploaded is true when Payload came from the upload endpoint rather
	// than from the hash lookup.
	Uploaded bool

	// Payload is the raw response body for StatusReported.
	Payload []byte

	// Err is the cause for StatusAccessDenied, StatusIOFailure and
	// StatusFatal.
	Err error
}
