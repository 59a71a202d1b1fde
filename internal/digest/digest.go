package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultChunkSize is the maximum number of bytes read per call.
const DefaultChunkSize = 10 * 1024 * 1024 // 10MiB

// sniffLen is how much of the file head is kept for type detection.
const sniffLen = 3072

var (
	// ErrAccessDenied is returned when the OS rejects opening or reading
	// the file for permission reasons.
	ErrAccessDenied = errors.New("access denied")

	// ErrIO is returned for any other OS-level read failure.
	ErrIO = errors.New("I/O error")
)

// Result is the digest of one file.
type Result struct {
	// SHA256 is the lowercase hex SHA-256 of the full byte stream.
	SHA256 string

	// Size is the number of bytes read.
	Size int64

	// Content holds the file bytes when Size is within the retain limit
	// passed to Reader.Sum. Nil otherwise.
	Content []byte

	// MIME is the media type detected from the first bytes of the file.
	// Empty for empty files.
	MIME string
}

// Reader hashes files in chunks of at most ChunkSize bytes.
type Reader struct {
	chunkSize int
}

// NewReader creates a Reader with the given chunk size.
// Non-positive sizes fall back to DefaultChunkSize.
func NewReader(chunkSize int) *Reader {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Reader{chunkSize: chunkSize}
}

// ChunkSize returns the maximum number of bytes read per call.
func (r *Reader) ChunkSize() int {
	return r.chunkSize
}

// Sum hashes the file at path.
//
// When retain is positive and the file turns out to be at most retain
// bytes long, its contents are returned in Result.Content. retain is
// capped at the chunk size, so a file is never held in memory beyond one
// chunk; callers that need larger contents must size the Reader for it.
//
// Errors wrap ErrAccessDenied or ErrIO together with the OS error.
func (r *Reader) Sum(path string, retain int64) (Result, error) {
	f, err := os.Open(path) //nolint:gosec // Scanning user-supplied paths is the purpose of this tool
	if err != nil {
		return Result{}, classify(err)
	}
	defer f.Close()

	return r.sum(f, retain)
}

func (r *Reader) sum(src io.Reader, retain int64) (Result, error) {
	h := sha256.New()
	buf := make([]byte, r.chunkSize)

	var (
		size    int64
		content []byte
		head    []byte
		keep    = retain > 0
	)

	retain = min(retain, int64(r.chunkSize))

	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			h.Write(buf[:n]) //nolint:errcheck // hash.Hash.Write never returns an error
			size += int64(n)

			if missing := sniffLen - len(head); missing > 0 {
				head = append(head, buf[:min(n, missing)]...)
			}

			if keep {
				if size > retain {
					keep = false
					content = nil
				} else {
					content = bytes.Clone(buf[:n])
				}
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return Result{}, classify(err)
		}
	}

	if !keep {
		content = nil
	}

	res := Result{
		SHA256:  hex.EncodeToString(h.Sum(nil)),
		Size:    size,
		Content: content,
	}
	if size > 0 {
		res.MIME = mimetype.Detect(head).String()
	}
	return res, nil
}

// classify wraps an OS error with ErrAccessDenied or ErrIO.
func classify(err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
