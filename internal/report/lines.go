package report

import (
	"io"
	"sync"
	"time"
)

// TimestampLayout prefixes every result line.
const TimestampLayout = "2006-01-02 15:04:05"

// LineWriter writes timestamped result lines. It is safe for concurrent
// use; each line is written with a single Write call.
type LineWriter struct {
	mu     sync.Mutex
	output io.Writer
	now    func() time.Time
}

// NewLineWriter creates a LineWriter writing to output.
func NewLineWriter(output io.Writer) *LineWriter {
	return &LineWriter{output: output, now: time.Now}
}

// WriteLine writes "<timestamp> <line>\n".
func (w *LineWriter) WriteLine(line string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := make([]byte, 0, len(TimestampLayout)+len(line)+2)
	buf = w.now().AppendFormat(buf, TimestampLayout)
	buf = append(buf, ' ')
	buf = append(buf, line...)
	buf = append(buf, '\n')

	_, err := w.output.Write(buf)
	return err
}
