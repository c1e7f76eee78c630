//go:build !windows

package driver

func openInterception(opts Options) (Driver, error) {
	return nil, &DriverError{Op: "create_context", Err: ErrUnsupportedPlatform}
}
