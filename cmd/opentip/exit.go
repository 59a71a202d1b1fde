package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/opentip/internal/verdict"
)

// exitError carries the process exit code of a command.
// err is nil when everything worth saying has already been printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// withExitCode attaches an exit code to err.
func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// handleError prints err to w when it has something to say and returns
// the process exit code.
func handleError(w io.Writer, err error) int {
	if err == nil {
		return verdict.ExitClean
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(w, ee.err)
		}
		return ee.code
	}

	fmt.Fprintln(w, err)
	return verdict.ExitFatal
}

// exitForAggregator converts the aggregated outcome of a scan into the
// command's error.
func exitForAggregator(agg *verdict.Aggregator) error {
	switch code := agg.ExitCode(); code {
	case verdict.ExitClean:
		return nil
	case verdict.ExitFatal:
		return withExitCode(code, agg.Err())
	default:
		return withExitCode(code, nil)
	}
}
