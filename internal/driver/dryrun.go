package driver

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// dryRun is a capture context with no devices. Sends are logged and
// reported as delivered, so a session can be exercised without the driver.
type dryRun struct {
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool
}

func openDryRun(opts Options) (Driver, error) {
	logger := opts.logger().Named("dryrun")
	logger.Info("using dry-run driver; no keystrokes reach the system")
	return &dryRun{logger: logger}, nil
}

func (d *dryRun) SetFilter(p Predicate, f Filter) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return &DriverError{Op: "set_filter", Err: ErrClosed}
	}

	var captured []Device
	for dev := Device(1); dev <= MaxDevice; dev++ {
		if p != nil && p(dev) {
			captured = append(captured, dev)
		}
	}
	d.logger.Debug("filter set", zap.Ints("devices", devicesToInts(captured)), zap.Uint16("mask", uint16(f)))
	return nil
}

func (d *dryRun) WaitWithTimeout(timeout time.Duration) (Device, error) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return 0, &DriverError{Op: "wait", Err: ErrClosed}
	}

	time.Sleep(timeout)
	return 0, nil
}

func (d *dryRun) Receive(dev Device, strokes []KeyStroke) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return 0, &DriverError{Op: "receive", Device: dev, Err: ErrClosed}
	}
	return 0, nil
}

func (d *dryRun) Send(dev Device, strokes []KeyStroke) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return 0, &DriverError{Op: "send", Device: dev, Err: ErrClosed}
	}

	for _, s := range strokes {
		d.logger.Info("send",
			zap.Int("device", int(dev)),
			zap.String("key", KeyName(s.Code)),
			zap.Stringer("state", s.State),
		)
	}
	return len(strokes), nil
}

func (d *dryRun) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func devicesToInts(devs []Device) []int {
	out := make([]int, len(devs))
	for i, d := range devs {
		out[i] = int(d)
	}
	return out
}
