package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

const testAPIKey = "test-api-key"

const (
	cleanPayload   = `{"FileGeneralInfo":{"FileStatus":"Clean"}}`
	malwarePayload = `{"FileGeneralInfo":{"FileStatus":"Malware"},"DetectionsInfo":[{"DetectionName":"A"},{"DetectionName":"B"}]}`
)

// fakeService stands in for the OpenTIP API.
type fakeService struct {
	mu sync.Mutex

	// known maps a lookup value to the payload returned for it.
	known map[string]string

	uploadStatus int
	uploadBody   string
	uploads      int

	// forbidden rejects every request with 403.
	forbidden bool
}

func newFakeService(t *testing.T, known map[string]string) (*fakeService, string) {
	t.Helper()

	svc := &fakeService{
		known:        known,
		uploadStatus: http.StatusOK,
		uploadBody:   cleanPayload,
	}
	srv := httptest.NewServer(http.HandlerFunc(svc.serveHTTP))
	t.Cleanup(srv.Close)

	return svc, srv.URL + "/"
}

func (s *fakeService) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.forbidden || r.Header.Get("x-api-key") != testAPIKey {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	switch {
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/search/"):
		payload, ok := s.known[r.URL.Query().Get("request")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = io.WriteString(w, payload)
	case r.Method == http.MethodPost && r.URL.Path == "/scan/file":
		s.uploads++
		w.WriteHeader(s.uploadStatus)
		_, _ = io.WriteString(w, s.uploadBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *fakeService) uploadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}

// executeCLI runs the root command and returns stdout, stderr and the exit code.
func executeCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	code := handleError(&stderr, cmd.Execute())
	return stdout.String(), stderr.String(), code
}

// emptyConfig writes an empty config file so the default locations are
// never searched.
func emptyConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "config.yaml", "")
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func sumOf(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
