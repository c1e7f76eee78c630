// Package driver binds the interception input driver and exposes the capture
// context the rest of idlepress works against.
package driver

import (
	"time"

	"go.uber.org/zap"
)

// Device identifies an input device slot assigned by the driver.
// Keyboards occupy 1..10 and mice 11..20. Zero means "no device".
type Device int

// Slot counts per device class, as defined by the interception header.
const (
	MaxKeyboard = 10
	MaxMouse    = 10
	MaxDevice   = MaxKeyboard + MaxMouse
)

// IsKeyboard reports whether d is a keyboard-class device.
func IsKeyboard(d Device) bool {
	return d > 0 && d <= MaxKeyboard
}

// IsMouse reports whether d is a mouse-class device.
func IsMouse(d Device) bool {
	return d > MaxKeyboard && d <= MaxDevice
}

// IsInvalid reports whether d is outside every device class.
func IsInvalid(d Device) bool {
	return d < 1 || d > MaxDevice
}

// KeyState is the state bitmask carried by a keystroke.
type KeyState uint16

const (
	KeyDown KeyState = 0x00
	KeyUp   KeyState = 0x01
	KeyE0   KeyState = 0x02
	KeyE1   KeyState = 0x04
)

func (s KeyState) String() string {
	if s&KeyUp != 0 {
		return "up"
	}
	return "down"
}

// KeyStroke mirrors InterceptionKeyStroke. Field order and sizes match the
// C layout so a slice can be handed to the driver directly.
type KeyStroke struct {
	Code        uint16
	State       KeyState
	Information uint32
}

// Predicate selects which devices a filter applies to.
type Predicate func(Device) bool

// Filter is the keyboard event mask passed to SetFilter.
type Filter uint16

const (
	FilterKeyNone Filter = 0x0000
	FilterKeyAll  Filter = 0xFFFF
	FilterKeyDown Filter = 0x0001
	FilterKeyUp   Filter = 0x0002
)

// Driver is an open capture context. Implementations must be safe for
// concurrent use; Close may be called more than once.
type Driver interface {
	// SetFilter registers which devices are captured and which events they report.
	SetFilter(p Predicate, f Filter) error

	// WaitWithTimeout blocks until a captured device has a pending stroke or the
	// timeout elapses. It returns 0 on timeout.
	WaitWithTimeout(timeout time.Duration) (Device, error)

	// Receive reads pending strokes for d into strokes and returns how many were read.
	Receive(d Device, strokes []KeyStroke) (int, error)

	// Send injects strokes into the input stream of d.
	Send(d Device, strokes []KeyStroke) (int, error)

	// Close destroys the capture context.
	Close() error
}

// Options configures a backend when it is opened.
type Options struct {
	// DLLPath is where the interception backend loads the driver library from.
	DLLPath string

	Logger *zap.Logger
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}
