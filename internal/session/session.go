// Package session wires the driver, the background loops and the command
// loop into one interactive run.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/connorhough/idlepress/internal/activity"
	"github.com/connorhough/idlepress/internal/autopress"
	"github.com/connorhough/idlepress/internal/config"
	"github.com/connorhough/idlepress/internal/console"
	"github.com/connorhough/idlepress/internal/driver"
)

// OpenDriver opens the capture context. Tests replace it.
var OpenDriver = driver.Open

var troubleshooting = []string{
	"1. Did you REBOOT after installing the driver?",
	"2. Are you running as Administrator?",
	"3. Is Interception driver installed? Run: install-interception.exe /install",
}

var commonIssues = []string{
	"1. Not running as Administrator",
	"2. Didn't reboot after driver installation",
	"3. Driver installation failed",
}

// Run opens the driver, starts the idle monitor and the keyboard passthrough,
// and serves console commands until the user quits or ctx is cancelled.
// The capture context is released exactly once, however Run exits.
func Run(ctx context.Context, s *config.Settings, streams *console.IOStreams, logger *zap.Logger) (err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("run_id", uuid.NewString()))
	out, errOut := streams.Synced()
	interactive := streams.IsInteractive()

	fmt.Fprintln(out, "🔧 Initializing Interception driver...")
	drv, err := OpenDriver(s.Driver.Backend, driver.Options{DLLPath: s.Driver.DLL, Logger: logger})
	if err != nil {
		logger.Error("failed to create capture context", zap.String("backend", s.Driver.Backend), zap.Error(err))
		fmt.Fprintln(errOut, "❌ Failed to create Interception context!")
		printHints(errOut, "⚠️  Troubleshooting:", troubleshooting)
		return fmt.Errorf("open %s driver: %w", s.Driver.Backend, err)
	}

	var closeOnce sync.Once
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected failure", zap.Any("panic", r), zap.Stack("stack"))
			fmt.Fprintf(errOut, "❌ ERROR: %v\n", r)
			printHints(errOut, "⚠️  Most common issues:", commonIssues)
			err = fmt.Errorf("session failed: %v", r)
		}
		closeOnce.Do(func() {
			if cerr := drv.Close(); cerr != nil {
				logger.Warn("failed to destroy capture context", zap.Error(cerr))
			}
		})
		fmt.Fprintln(out, "\n✅ Stopped")
	}()

	if err := drv.SetFilter(driver.IsKeyboard, driver.FilterKeyAll); err != nil {
		logger.Error("failed to set keyboard filter", zap.Error(err))
		fmt.Fprintf(errOut, "❌ ERROR: %v\n", err)
		printHints(errOut, "⚠️  Most common issues:", commonIssues)
		return fmt.Errorf("set keyboard filter: %w", err)
	}

	clock := activity.SystemClock
	tracker := activity.NewTracker(clock)
	replayer := autopress.NewReplayer(drv, clock, logger.Named("replay"), autopress.ReplayOptions{
		Key:     s.Replay.KeyCode,
		Device:  driver.Device(s.Replay.Device),
		Hold:    s.Replay.PressHold,
		Gap:     s.Replay.PressGap,
		Presses: s.Replay.Presses,
	})
	monitor := autopress.NewMonitor(tracker, replayer, clock, logger.Named("idle"), out, s.Idle.Threshold, s.Idle.PollInterval)
	listener := autopress.NewListener(drv, tracker, clock, logger.Named("passthrough"), s.Driver.WaitTimeout)

	printBanner(out, s, replayer.Label(), interactive)

	// running is cancelled exactly once, when the command loop returns.
	running, stop := context.WithCancel(ctx)
	var g errgroup.Group
	defer func() {
		stop()
		if werr := g.Wait(); werr != nil {
			logger.Warn("background loop failed", zap.Error(werr))
		}
	}()

	g.Go(func() error { return monitor.Run(running) })
	g.Go(func() error {
		return listener.Supervise(running, s.Passthrough.MaxRestarts, s.Passthrough.RestartDelay)
	})

	status := func() string {
		return fmt.Sprintf("📊 Idle for %.1fs, %d replays sent, %d keystrokes forwarded",
			tracker.ElapsedSinceActivity().Seconds(), replayer.Count(), listener.Forwarded())
	}
	loop := console.NewCommandLoop(streams, replayer, status, clock, logger.Named("console"), s.Console.EOFBackoff)
	loop.SetOutput(out)

	if interactive {
		fmt.Fprintf(out, "\n✅ Ready! Type 't' and press ENTER to test %s\n", replayer.Label())
	} else {
		logger.Info("stdin is not a terminal; reading commands from input stream")
		fmt.Fprintln(out, "\n✅ Ready! Reading commands from standard input")
	}

	if err := loop.Run(ctx); err != nil {
		logger.Error("command loop failed", zap.Error(err))
		fmt.Fprintf(errOut, "❌ ERROR: %v\n", err)
		printHints(errOut, "⚠️  Most common issues:", commonIssues)
		return err
	}
	return nil
}

// PressOnce opens the driver, sends the replay sequence a single time and
// closes the driver again.
func PressOnce(ctx context.Context, s *config.Settings, out io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	drv, err := OpenDriver(s.Driver.Backend, driver.Options{DLLPath: s.Driver.DLL, Logger: logger})
	if err != nil {
		fmt.Fprintln(out, "❌ Failed to create Interception context!")
		printHints(out, "⚠️  Troubleshooting:", troubleshooting)
		return fmt.Errorf("open %s driver: %w", s.Driver.Backend, err)
	}
	defer drv.Close()

	replayer := autopress.NewReplayer(drv, activity.SystemClock, logger.Named("replay"), autopress.ReplayOptions{
		Key:     s.Replay.KeyCode,
		Device:  driver.Device(s.Replay.Device),
		Hold:    s.Replay.PressHold,
		Gap:     s.Replay.PressGap,
		Presses: s.Replay.Presses,
	})

	fmt.Fprintf(out, "🧪 Sending %s...\n", replayer.Label())
	if !replayer.Press(ctx) {
		fmt.Fprintf(out, "❌ Failed to send %s\n", replayer.Label())
		return fmt.Errorf("replay %s failed", replayer.Label())
	}
	fmt.Fprintf(out, "✅ %s sent successfully!\n", replayer.Label())
	return nil
}

// printBanner leaves out the typing hints when stdin is not a terminal.
func printBanner(out io.Writer, s *config.Settings, label string, interactive bool) {
	fmt.Fprintln(out, "✅ Interception driver loaded!")
	fmt.Fprintf(out, "⏱️  Idle threshold: %.1fs\n", s.Idle.Threshold.Seconds())
	fmt.Fprintf(out, "🎮 Script active - will auto-press %s after idle period\n", label)
	if interactive {
		fmt.Fprintf(out, "⌨️  Type 't' + ENTER to manually test %s\n", label)
		fmt.Fprintln(out, "🛑 Press Ctrl+C or type 'q' + ENTER to stop")
	}
	fmt.Fprintln(out, strings.Repeat("=", 60))
}

func printHints(out io.Writer, title string, hints []string) {
	fmt.Fprintln(out, "\n"+title)
	for _, h := range hints {
		fmt.Fprintln(out, h)
	}
}
