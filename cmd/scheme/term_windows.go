//go:build windows

package main

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// setRawIO is the platform fallback for systems without the POSIX
// termios syscalls cmd/scheme/term_posix.go relies on, grounded on
// smoynes/elsie's cmd/internal/tty.Console (term.MakeRaw/term.Restore
// instead of raw termios flag twiddling).
func setRawIO() (func(), error) {
	fd := int(os.Stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, errors.Wrap(err, "term.MakeRaw failed")
	}
	return func() {
		_ = term.Restore(fd, state)
	}, nil
}

func consoleWidth(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}
