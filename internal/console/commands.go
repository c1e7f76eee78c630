// Package console runs the interactive command loop on stdin.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/connorhough/idlepress/internal/activity"
)

// Trigger runs the replay on demand.
type Trigger interface {
	Press(ctx context.Context) bool
	Label() string
}

// StatusFunc renders a one-line session status.
type StatusFunc func() string

// CommandLoop reads one command per line:
//
//	t  send the replay now
//	s  print session status
//	h  print help
//	q  quit
type CommandLoop struct {
	streams    *IOStreams
	trigger    Trigger
	status     StatusFunc
	clock      activity.Clock
	logger     *zap.Logger
	eofBackoff time.Duration

	// syncOut serializes writes to streams.Out with other writers (the idle
	// monitor prints to the same stream).
	syncOut io.Writer
}

// NewCommandLoop creates a command loop. status may be nil.
func NewCommandLoop(streams *IOStreams, trigger Trigger, status StatusFunc, clock activity.Clock, logger *zap.Logger, eofBackoff time.Duration) *CommandLoop {
	if clock == nil {
		clock = activity.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandLoop{
		streams:    streams,
		trigger:    trigger,
		status:     status,
		clock:      clock,
		logger:     logger,
		eofBackoff: eofBackoff,
		syncOut:    streams.Out,
	}
}

// SetOutput redirects console output, typically to a writer shared with
// other goroutines.
func (c *CommandLoop) SetOutput(w io.Writer) {
	c.syncOut = w
}

type line struct {
	text string
	err  error
}

// Run processes commands until "q" is read or ctx is cancelled. End of
// input is not fatal: reading is retried after a short pause.
func (c *CommandLoop) Run(ctx context.Context) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	lines := make(chan line)
	go c.read(readCtx, lines)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.syncOut, "\n🛑 Interrupted by Ctrl+C")
			return nil
		case l := <-lines:
			if l.err != nil {
				return fmt.Errorf("read command: %w", l.err)
			}
			if quit := c.handle(ctx, l.text); quit {
				return nil
			}
		}
	}
}

func (c *CommandLoop) handle(ctx context.Context, cmd string) bool {
	switch strings.ToLower(cmd) {
	case "t":
		label := c.trigger.Label()
		fmt.Fprintf(c.syncOut, "🧪 Manual test - Sending %s...\n", label)
		if c.trigger.Press(ctx) {
			fmt.Fprintf(c.syncOut, "✅ %s sent successfully!\n", label)
		} else {
			fmt.Fprintf(c.syncOut, "❌ Failed to send %s\n", label)
		}
	case "q":
		fmt.Fprintln(c.syncOut, "🛑 Quitting...")
		return true
	case "s":
		if c.status != nil {
			fmt.Fprintln(c.syncOut, c.status())
		}
	case "h", "?":
		c.PrintHelp()
	case "":
	default:
		c.logger.Debug("ignoring unknown command", zap.String("command", cmd))
	}
	return false
}

// PrintHelp lists the available commands.
func (c *CommandLoop) PrintHelp() {
	fmt.Fprintf(c.syncOut, "Commands: t = send %s now, s = status, h = help, q = quit\n", c.trigger.Label())
}

func (c *CommandLoop) read(ctx context.Context, lines chan<- line) {
	r := bufio.NewReader(c.streams.In)
	for {
		text, err := r.ReadString('\n')
		if err == nil || (errors.Is(err, io.EOF) && text != "") {
			select {
			case lines <- line{text: strings.TrimSpace(text)}:
			case <-ctx.Done():
				return
			}
		}
		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			if c.clock.Sleep(ctx, c.eofBackoff) != nil {
				return
			}
			continue
		}

		select {
		case lines <- line{err: err}:
		case <-ctx.Done():
		}
		return
	}
}

// SyncWriter guards an io.Writer with a mutex so several goroutines can
// print whole lines without interleaving.
type SyncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewSyncWriter wraps w.
func NewSyncWriter(w io.Writer) *SyncWriter {
	return &SyncWriter{w: w}
}

func (s *SyncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
