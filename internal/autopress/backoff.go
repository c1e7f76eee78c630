package autopress

import "time"

const (
	maxRestartDelay = 30 * time.Second
	backoffRate     = 2.0
)

// nextDelay doubles d, capped at maxRestartDelay.
func nextDelay(d time.Duration) time.Duration {
	d = time.Duration(float64(d) * backoffRate)
	if d > maxRestartDelay {
		d = maxRestartDelay
	}
	return d
}
