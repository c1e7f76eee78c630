package console

import (
	"bytes"
	"io"
	"os"
	"reflect"

	"golang.org/x/term"
)

// IOStreams abstracts standard I/O for testability and dependency injection.
type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer

	// isTerminalFunc allows lazy evaluation and mocking of TTY detection
	isTerminalFunc func(fd int) bool
	stdinFd        int
}

// NewIOStreams creates IOStreams connected to os.Stdin/Stdout/Stderr.
func NewIOStreams() *IOStreams {
	return &IOStreams{
		In:             os.Stdin,
		Out:            os.Stdout,
		ErrOut:         os.Stderr,
		isTerminalFunc: term.IsTerminal,
		stdinFd:        int(os.Stdin.Fd()),
	}
}

// IsInteractive returns true if stdin is a TTY (terminal).
func (s *IOStreams) IsInteractive() bool {
	if s.isTerminalFunc == nil {
		return false
	}
	return s.isTerminalFunc(s.stdinFd)
}

// Synced wraps Out and ErrOut so that several goroutines can print whole
// lines. When both point at the same writer they share one lock.
func (s *IOStreams) Synced() (out, errOut *SyncWriter) {
	out = NewSyncWriter(s.Out)
	if s.ErrOut == nil || sameWriter(s.ErrOut, s.Out) {
		return out, out
	}
	return out, NewSyncWriter(s.ErrOut)
}

func sameWriter(a, b io.Writer) bool {
	return reflect.TypeOf(a).Comparable() && a == b
}

// TestIOStreams creates IOStreams for testing with in-memory buffers.
// Returns the streams and the input/output buffers for assertions.
// Simulates a TTY by default.
func TestIOStreams() (*IOStreams, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	return &IOStreams{
		In:             in,
		Out:            out,
		ErrOut:         out,
		isTerminalFunc: func(int) bool { return true },
		stdinFd:        0,
	}, in, out
}
