package pipeline

import (
	"sync"
	"sync/atomic"
)

// Token is a write-once cancellation flag shared by every task of a run.
// Setting it is idempotent and it is never cleared.
type Token struct {
	set   atomic.Bool
	once  sync.Once
	done  chan struct{}
	cause error
}

// NewToken creates an unset Token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the flag. Only the first cause is kept.
func (t *Token) Cancel(cause error) {
	t.once.Do(func() {
		t.cause = cause
		t.set.Store(true)
		close(t.done)
	})
}

// Cancelled reports whether the flag is set.
func (t *Token) Cancelled() bool {
	return t.set.Load()
}

// Done returns a channel that is closed when the flag is set.
func (t *Token) Done() <-chan struct{} {
	return t.done
}

// Cause returns the error passed to the first Cancel call, or nil.
func (t *Token) Cause() error {
	if !t.set.Load() {
		return nil
	}
	return t.cause
}
