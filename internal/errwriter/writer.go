// Package errwriter provides a small io.Writer wrapper that remembers
// its first write error, adapted from the teacher's internal/ngi
// package for cmd/scheme's REPL output path: once the terminal pipe
// breaks there is no useful way to keep printing prompts, so every
// write after the first failure is a cheap no-op that returns the same
// error instead of re-attempting a doomed write.
package errwriter

import (
	"io"

	"github.com/pkg/errors"
)

// Writer wraps an io.Writer and sticks to the first error it sees.
type Writer struct {
	w   io.Writer
	Err error
}

// New wraps w.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}

// W returns the wrapped writer, so callers that need the concrete type
// (e.g. to flush a *bufio.Writer on exit) can reach through.
func (w *Writer) W() io.Writer {
	return w.w
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}
