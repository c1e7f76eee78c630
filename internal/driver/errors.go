package driver

import (
	"errors"
	"fmt"
)

var (
	// ErrContextUnavailable means the driver refused to create a capture context.
	ErrContextUnavailable = errors.New("interception context unavailable")

	// ErrUnsupportedPlatform means the backend cannot run on this operating system.
	ErrUnsupportedPlatform = errors.New("interception driver is only available on windows")

	// ErrUnknownBackend means no backend is registered under the requested name.
	ErrUnknownBackend = errors.New("unknown driver backend")

	// ErrClosed is returned by every operation on a closed context.
	ErrClosed = errors.New("capture context closed")
)

// DriverError records a failed driver call.
type DriverError struct {
	Op     string
	Device Device
	Err    error
}

func (e *DriverError) Error() string {
	if e.Device != 0 {
		return fmt.Sprintf("%s (device %d): %v", e.Op, e.Device, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}
