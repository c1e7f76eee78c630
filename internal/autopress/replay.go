// Package autopress replays a scripted key press after the keyboard has been
// idle, while forwarding real keystrokes through the capture context.
package autopress

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/connorhough/idlepress/internal/activity"
	"github.com/connorhough/idlepress/internal/driver"
)

// ReplayOptions describes the scripted press sequence.
type ReplayOptions struct {
	Key     uint16
	Device  driver.Device
	Hold    time.Duration // between key-down and key-up
	Gap     time.Duration // between consecutive presses
	Presses int
}

// DefaultReplayOptions presses F1 twice on the first keyboard.
func DefaultReplayOptions() ReplayOptions {
	return ReplayOptions{
		Key:     driver.ScanF1,
		Device:  1,
		Hold:    50 * time.Millisecond,
		Gap:     100 * time.Millisecond,
		Presses: 2,
	}
}

// Replayer sends the scripted sequence. Only one sequence runs at a time,
// whether it was started by the idle monitor or by a manual trigger.
type Replayer struct {
	drv    driver.Driver
	clock  activity.Clock
	logger *zap.Logger
	opts   ReplayOptions

	mu    sync.Mutex
	count atomic.Int64
}

// NewReplayer creates a replayer that sends through drv.
func NewReplayer(drv driver.Driver, clock activity.Clock, logger *zap.Logger, opts ReplayOptions) *Replayer {
	if clock == nil {
		clock = activity.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Presses < 1 {
		opts.Presses = 1
	}
	return &Replayer{drv: drv, clock: clock, logger: logger, opts: opts}
}

// Label describes the sequence for console output, e.g. "F1 x2".
func (r *Replayer) Label() string {
	return fmt.Sprintf("%s x%d", driver.KeyName(r.opts.Key), r.opts.Presses)
}

// Count returns how many sequences completed successfully.
func (r *Replayer) Count() int64 {
	return r.count.Load()
}

// Press runs the sequence and reports whether every stroke was delivered.
// Failures are logged here and never escape as panics.
func (r *Replayer) Press(ctx context.Context) (ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("replay panicked",
				zap.String("sequence", r.Label()),
				zap.Any("panic", rec),
				zap.Stack("stack"),
			)
			ok = false
		}
	}()

	if err := r.sequence(ctx); err != nil {
		r.logger.Error("error sending replay", zap.String("sequence", r.Label()), zap.Error(err))
		return false
	}

	r.count.Add(1)
	r.logger.Debug("replay sent", zap.String("sequence", r.Label()))
	return true
}

func (r *Replayer) sequence(ctx context.Context) error {
	for i := 0; i < r.opts.Presses; i++ {
		if i > 0 {
			if err := r.clock.Sleep(ctx, r.opts.Gap); err != nil {
				return err
			}
		}

		if err := r.send(driver.KeyDown); err != nil {
			return err
		}
		if err := r.clock.Sleep(ctx, r.opts.Hold); err != nil {
			// never leave the key held down
			if upErr := r.send(driver.KeyUp); upErr != nil {
				r.logger.Warn("could not release key after cancellation", zap.Error(upErr))
			}
			return err
		}
		if err := r.send(driver.KeyUp); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replayer) send(state driver.KeyState) error {
	stroke := []driver.KeyStroke{{Code: r.opts.Key, State: state}}
	n, err := r.drv.Send(r.opts.Device, stroke)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", driver.KeyName(r.opts.Key), state, err)
	}
	if n != len(stroke) {
		return fmt.Errorf("send %s %s: driver accepted %d of %d strokes", driver.KeyName(r.opts.Key), state, n, len(stroke))
	}
	return nil
}
