// Package activity tracks when the keyboard was last used.
package activity

import (
	"sync"
	"time"
)

// Tracker holds the time of the last observed keyboard activity.
type Tracker struct {
	clock Clock

	mu   sync.Mutex
	last time.Time
}

// NewTracker returns a tracker whose last activity is the current time.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = SystemClock
	}
	return &Tracker{clock: clock, last: clock.Now()}
}

// RecordActivity marks now as the last activity.
func (t *Tracker) RecordActivity() {
	now := t.clock.Now()
	t.mu.Lock()
	t.last = now
	t.mu.Unlock()
}

// ElapsedSinceActivity returns how long ago the last activity was.
func (t *Tracker) ElapsedSinceActivity() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clock.Now().Sub(t.last)
}

// LastActivity returns the time of the last activity.
func (t *Tracker) LastActivity() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}
