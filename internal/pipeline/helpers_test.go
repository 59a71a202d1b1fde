package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nao1215/opentip/internal/digest"
	"github.com/nao1215/opentip/internal/model"
)

// fakeReputation is a scripted reputation service.
type fakeReputation struct {
	mu sync.Mutex

	// known maps a digest to the lookup payload.
	known map[string][]byte

	lookupErr error
	uploadErr error

	// uploadPayload is returned by a successful upload.
	uploadPayload []byte

	lookups []string
	uploads []string
}

func newFakeReputation() *fakeReputation {
	return &fakeReputation{
		known:         make(map[string][]byte),
		uploadPayload: []byte(`{"FileGeneralInfo":{"FileStatus":"Clean"}}`),
	}
}

func (f *fakeReputation) LookupHash(_ context.Context, sha string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lookups = append(f.lookups, sha)
	if f.lookupErr != nil {
		return nil, false, f.lookupErr
	}
	payload, ok := f.known[sha]
	return payload, ok, nil
}

func (f *fakeReputation) UploadFile(_ context.Context, sha string, _ []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.uploads = append(f.uploads, sha)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return f.uploadPayload, nil
}

func (f *fakeReputation) calls() (lookups, uploads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups), len(f.uploads)
}

// recordingHasher records every path it is asked to hash.
type recordingHasher struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (h *recordingHasher) Sum(path string, retain int64) (digest.Result, error) {
	h.mu.Lock()
	h.paths = append(h.paths, path)
	h.mu.Unlock()

	if h.err != nil {
		return digest.Result{}, h.err
	}
	return digest.NewReader(0).Sum(path, retain)
}

func (h *recordingHasher) opened() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.paths...)
}

// writeFile creates a file of n bytes under dir.
func writeFile(t *testing.T, dir, name string, n int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

// sumOf returns the digest of the file at path.
func sumOf(t *testing.T, path string) string {
	t.Helper()

	res, err := digest.NewReader(0).Sum(path, 0)
	if err != nil {
		t.Fatalf("sum %s: %v", path, err)
	}
	return res.SHA256
}

// collect drains a run.
func collect(run *Run) ([]model.Outcome, Summary, error) {
	var outcomes []model.Outcome
	for o := range run.Outcomes() {
		outcomes = append(outcomes, o)
	}
	summary, err := run.Wait()
	return outcomes, summary, err
}

var errBoom = errors.New("boom")
