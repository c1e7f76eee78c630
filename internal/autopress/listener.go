package autopress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/connorhough/idlepress/internal/activity"
	"github.com/connorhough/idlepress/internal/driver"
)

// Listener forwards captured keystrokes back to their device and records
// each one as activity.
type Listener struct {
	drv         driver.Driver
	tracker     *activity.Tracker
	clock       activity.Clock
	logger      *zap.Logger
	waitTimeout time.Duration

	forwarded atomic.Int64
}

// NewListener creates a passthrough listener. waitTimeout bounds each wait
// on the driver so cancellation is noticed promptly.
func NewListener(drv driver.Driver, tracker *activity.Tracker, clock activity.Clock, logger *zap.Logger, waitTimeout time.Duration) *Listener {
	if clock == nil {
		clock = activity.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{
		drv:         drv,
		tracker:     tracker,
		clock:       clock,
		logger:      logger,
		waitTimeout: waitTimeout,
	}
}

// Forwarded returns how many strokes were passed through.
func (l *Listener) Forwarded() int64 {
	return l.forwarded.Load()
}

// Run forwards keystrokes until ctx is cancelled or the driver fails.
// Devices that are not keyboards are ignored and their strokes stay queued.
// A panic inside the driver is returned as an error.
func (l *Listener) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("keyboard passthrough panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("passthrough panic: %v", r)
		}
	}()

	stroke := make([]driver.KeyStroke, 1)

	for ctx.Err() == nil {
		dev, err := l.drv.WaitWithTimeout(l.waitTimeout)
		if err != nil {
			return fmt.Errorf("wait for input: %w", err)
		}
		if dev == 0 || !driver.IsKeyboard(dev) {
			continue
		}

		n, err := l.drv.Receive(dev, stroke)
		if err != nil {
			return fmt.Errorf("receive from device %d: %w", dev, err)
		}
		if n <= 0 {
			continue
		}

		l.tracker.RecordActivity()

		sent, err := l.drv.Send(dev, stroke[:n])
		if err != nil {
			return fmt.Errorf("forward to device %d: %w", dev, err)
		}
		if sent != n {
			l.logger.Warn("driver dropped forwarded stroke", zap.Int("device", int(dev)), zap.Int("received", n), zap.Int("sent", sent))
		}
		l.forwarded.Add(int64(sent))
	}
	return nil
}

// Supervise runs the listener and restarts it after a failure, up to
// maxRestarts times with exponential backoff starting at delay. A failure is
// never propagated: once restarts are exhausted the keyboard is simply no
// longer forwarded.
func (l *Listener) Supervise(ctx context.Context, maxRestarts int, delay time.Duration) error {
	restarts := 0
	for {
		err := l.Run(ctx)
		if err == nil || ctx.Err() != nil {
			return nil
		}

		l.logger.Error("keyboard monitor error", zap.Error(err), zap.Int("restarts", restarts))
		if restarts >= maxRestarts {
			l.logger.Error("keyboard passthrough stopped; keystrokes are no longer forwarded")
			return nil
		}

		if err := l.clock.Sleep(ctx, delay); err != nil {
			return nil
		}
		restarts++
		delay = nextDelay(delay)
		l.logger.Info("restarting keyboard passthrough", zap.Int("attempt", restarts))
	}
}
