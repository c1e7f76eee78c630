// Package drivertest provides an in-memory capture context for tests.
package drivertest

import (
	"sync"
	"time"

	"github.com/connorhough/idlepress/internal/driver"
)

// Sent is one stroke handed to Fake.Send.
type Sent struct {
	Device driver.Device
	Stroke driver.KeyStroke
	At     time.Time
}

type pending struct {
	device driver.Device
	stroke driver.KeyStroke
}

// Fake is a scripted driver. Strokes queued with Inject are reported by
// WaitWithTimeout and handed out by Receive in order. Every Send is recorded.
type Fake struct {
	mu         sync.Mutex
	predicate  driver.Predicate
	filter     driver.Filter
	filterSet  bool
	queue      []pending
	sent       []Sent
	receives   int
	closeCalls int
	closed     bool

	waitErr    error
	receiveErr error
	sendErr    error

	notify chan struct{}
}

// Ensure Fake satisfies the Driver interface
var _ driver.Driver = &Fake{}

// NewFake returns an empty fake context.
func NewFake() *Fake {
	return &Fake{notify: make(chan struct{}, 1)}
}

// Inject queues a stroke as if it was typed on device d. Strokes from devices
// rejected by the registered filter bypass capture and are dropped.
func (f *Fake) Inject(d driver.Device, s driver.KeyStroke) {
	f.mu.Lock()
	if f.filterSet && (f.predicate == nil || !f.predicate(d)) {
		f.mu.Unlock()
		return
	}
	f.queue = append(f.queue, pending{device: d, stroke: s})
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
}

// FailWait makes every following WaitWithTimeout return err.
func (f *Fake) FailWait(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waitErr = err
}

// FailReceive makes every following Receive return err.
func (f *Fake) FailReceive(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiveErr = err
}

// FailSend makes every following Send return err. A nil err clears it.
func (f *Fake) FailSend(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *Fake) SetFilter(p driver.Predicate, filter driver.Filter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return &driver.DriverError{Op: "set_filter", Err: driver.ErrClosed}
	}
	f.predicate = p
	f.filter = filter
	f.filterSet = true
	return nil
}

func (f *Fake) WaitWithTimeout(timeout time.Duration) (driver.Device, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		f.mu.Lock()
		switch {
		case f.closed:
			f.mu.Unlock()
			return 0, &driver.DriverError{Op: "wait", Err: driver.ErrClosed}
		case f.waitErr != nil:
			err := f.waitErr
			f.mu.Unlock()
			return 0, err
		case len(f.queue) > 0:
			d := f.queue[0].device
			f.mu.Unlock()
			return d, nil
		}
		f.mu.Unlock()

		select {
		case <-f.notify:
		case <-deadline.C:
			return 0, nil
		}
	}
}

func (f *Fake) Receive(d driver.Device, strokes []driver.KeyStroke) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, &driver.DriverError{Op: "receive", Device: d, Err: driver.ErrClosed}
	}
	if f.receiveErr != nil {
		return 0, f.receiveErr
	}
	f.receives++

	n := 0
	rest := f.queue[:0]
	for _, p := range f.queue {
		if p.device == d && n < len(strokes) {
			strokes[n] = p.stroke
			n++
			continue
		}
		rest = append(rest, p)
	}
	f.queue = rest
	return n, nil
}

func (f *Fake) Send(d driver.Device, strokes []driver.KeyStroke) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, &driver.DriverError{Op: "send", Device: d, Err: driver.ErrClosed}
	}
	if f.sendErr != nil {
		return 0, f.sendErr
	}

	now := time.Now()
	for _, s := range strokes {
		f.sent = append(f.sent, Sent{Device: d, Stroke: s, At: now})
	}
	return len(strokes), nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeCalls++
	f.closed = true
	return nil
}

// Sent returns a copy of every stroke sent so far.
func (f *Fake) Sent() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Sent, len(f.sent))
	copy(out, f.sent)
	return out
}

// Pending returns how many injected strokes have not been received.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Receives returns how many times Receive was called successfully.
func (f *Fake) Receives() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.receives
}

// CloseCalls returns how many times Close was called.
func (f *Fake) CloseCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCalls
}

// Filter returns the registered predicate and mask.
func (f *Fake) Filter() (driver.Predicate, driver.Filter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.predicate, f.filter
}
