package autopress

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/connorhough/idlepress/internal/activity"
)

// Monitor fires the replay once the keyboard has been idle for the threshold.
type Monitor struct {
	tracker   *activity.Tracker
	replayer  *Replayer
	clock     activity.Clock
	logger    *zap.Logger
	out       io.Writer
	threshold time.Duration
	poll      time.Duration
}

// NewMonitor creates an idle monitor. Status lines are written to out.
func NewMonitor(tracker *activity.Tracker, replayer *Replayer, clock activity.Clock, logger *zap.Logger, out io.Writer, threshold, poll time.Duration) *Monitor {
	if clock == nil {
		clock = activity.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}
	return &Monitor{
		tracker:   tracker,
		replayer:  replayer,
		clock:     clock,
		logger:    logger,
		out:       out,
		threshold: threshold,
		poll:      poll,
	}
}

// Tick checks the idle time once and replays when the threshold is reached.
// The replay counts as activity, so the next one needs a fresh idle period.
func (m *Monitor) Tick(ctx context.Context) bool {
	elapsed := m.tracker.ElapsedSinceActivity()
	if elapsed < m.threshold {
		return false
	}

	fmt.Fprintf(m.out, "⏱️  Idle %.1fs → %s\n", m.threshold.Seconds(), m.replayer.Label())
	m.logger.Debug("idle threshold reached", zap.Duration("elapsed", elapsed))

	if !m.replayer.Press(ctx) {
		m.logger.Warn("idle replay failed; monitor keeps running")
	}
	m.tracker.RecordActivity()
	return true
}

// Run ticks every poll interval until ctx is cancelled. A panic stops the
// monitor and is returned as an error.
func (m *Monitor) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("idle monitor panicked", zap.Any("panic", r), zap.Stack("stack"))
			err = fmt.Errorf("idle monitor panic: %v", r)
		}
	}()

	m.logger.Debug("idle monitor started", zap.Duration("threshold", m.threshold), zap.Duration("poll", m.poll))
	defer m.logger.Debug("idle monitor stopped")

	for {
		if err := m.clock.Sleep(ctx, m.poll); err != nil {
			return nil
		}
		m.Tick(ctx)
	}
}
