package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/opentip/internal/digest"
	"github.com/nao1215/opentip/internal/model"
)

// DefaultMaxUploadSize is the largest file submitted for analysis.
const DefaultMaxUploadSize int64 = 10 * 1024 * 1024 // 10MiB

// Reputation is the subset of the OpenTIP client a Task needs.
type Reputation interface {
	LookupHash(ctx context.Context, sha256 string) ([]byte, bool, error)
	UploadFile(ctx context.Context, sha256 string, content []byte) ([]byte, error)
}

// Hasher computes file digests.
type Hasher interface {
	Sum(path string, retain int64) (digest.Result, error)
}

// Task scans a single target: exclusion, digest, hash lookup and, when
// the hash is unknown, an optional upload.
type Task struct {
	client        Reputation
	hasher        Hasher
	excluder      *Excluder
	upload        bool
	maxUploadSize int64
	logger        *slog.Logger
}

// TaskOption configures a Task.
type TaskOption func(*Task)

// WithExcluder sets the exclusion patterns.
func WithExcluder(e *Excluder) TaskOption {
	return func(t *Task) {
		t.excluder = e
	}
}

// WithUpload enables or disables uploading unknown files.
// Uploads are enabled by default.
func WithUpload(enabled bool) TaskOption {
	return func(t *Task) {
		t.upload = enabled
	}
}

// WithMaxUploadSize sets the largest file that is uploaded.
func WithMaxUploadSize(n int64) TaskOption {
	return func(t *Task) {
		if n > 0 {
			t.maxUploadSize = n
		}
	}
}

// WithHasher replaces the default chunked SHA-256 reader.
func WithHasher(h Hasher) TaskOption {
	return func(t *Task) {
		if h != nil {
			t.hasher = h
		}
	}
}

// WithTaskLogger sets the logger used for upload failures.
func WithTaskLogger(logger *slog.Logger) TaskOption {
	return func(t *Task) {
		t.logger = logger
	}
}

// NewTask creates a Task that talks to client.
func NewTask(client Reputation, opts ...TaskOption) *Task {
	t := &Task{
		client:        client,
		hasher:        digest.NewReader(digest.DefaultChunkSize),
		upload:        true,
		maxUploadSize: DefaultMaxUploadSize,
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.logger == nil {
		t.logger = slog.Default()
	}

	return t
}

// Run scans target and returns its outcome.
//
// The second return value is false when the token was already set at one
// of the checkpoints (before starting and before each network call); no
// outcome is produced in that case. A fatal condition sets the token and
// is returned as a model.StatusFatal outcome.
func (t *Task) Run(ctx context.Context, token *Token, target model.Target) (model.Outcome, bool) {
	if token.Cancelled() {
		return model.Outcome{}, false
	}

	out := model.Outcome{Target: target}

	if t.excluder.Match(target.Path) {
		out.Status = model.StatusExcluded
		return out, true
	}

	var retain int64
	if t.upload {
		retain = t.maxUploadSize
	}

	sum, err := t.hasher.Sum(target.Path, retain)
	if err != nil {
		out.Err = err
		if errors.Is(err, digest.ErrAccessDenied) {
			out.Status = model.StatusAccessDenied
		} else {
			out.Status = model.StatusIOFailure
		}
		return out, true
	}
	out.Digest = sum.SHA256
	out.Size = sum.Size
	out.MIME = sum.MIME

	if token.Cancelled() {
		return model.Outcome{}, false
	}

	payload, found, err := t.client.LookupHash(ctx, sum.SHA256)
	if err != nil {
		return t.fatal(token, out, fmt.Errorf("hash lookup for %s: %w", target.Path, err)), true
	}
	if found {
		out.Status = model.StatusReported
		out.Payload = payload
		return out, true
	}

	if !t.upload || sum.Size == 0 || sum.Size > t.maxUploadSize || sum.Content == nil {
		out.Status = model.StatusSkipped
		return out, true
	}

	if token.Cancelled() {
		return model.Outcome{}, false
	}

	payload, err = t.client.UploadFile(ctx, sum.SHA256, sum.Content)
	if err != nil {
		t.logger.Error("error uploading", "path", target.Path, "size", sum.Size, "error", err)
		return t.fatal(token, out, fmt.Errorf("upload of %s: %w", target.Path, err)), true
	}

	out.Status = model.StatusReported
	out.Uploaded = true
	out.Payload = payload
	return out, true
}

func (t *Task) fatal(token *Token, out model.Outcome, err error) model.Outcome {
	token.Cancel(err)
	out.Status = model.StatusFatal
	out.Err = err
	return out
}
