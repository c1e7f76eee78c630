//go:build windows

package driver

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// Windows cannot release callbacks created with NewCallback, so the filter
// trampoline is created once per process and dispatches to whichever
// predicate was registered last.
var (
	filterCallbackOnce sync.Once
	filterCallback     uintptr
	activePredicate    atomic.Pointer[Predicate]
)

func filterTrampoline() uintptr {
	filterCallbackOnce.Do(func() {
		filterCallback = windows.NewCallbackCDecl(func(device uintptr) uintptr {
			p := activePredicate.Load()
			if p == nil || *p == nil {
				return 0
			}
			if (*p)(Device(int32(device))) {
				return 1
			}
			return 0
		})
	})
	return filterCallback
}

type interceptionProcs struct {
	createContext   *windows.LazyProc
	destroyContext  *windows.LazyProc
	setFilter       *windows.LazyProc
	waitWithTimeout *windows.LazyProc
	receive         *windows.LazyProc
	send            *windows.LazyProc
}

// interception talks to interception.dll. The context handle is an opaque
// pointer owned by the DLL.
type interception struct {
	procs  interceptionProcs
	logger *zap.Logger

	mu     sync.RWMutex
	handle uintptr
}

func openInterception(opts Options) (Driver, error) {
	path := opts.DLLPath
	if path == "" {
		path = "interception.dll"
	}
	logger := opts.logger().Named("interception")

	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, &DriverError{Op: "load " + path, Err: fmt.Errorf("%w: %v", ErrContextUnavailable, err)}
	}

	procs := interceptionProcs{
		createContext:   dll.NewProc("interception_create_context"),
		destroyContext:  dll.NewProc("interception_destroy_context"),
		setFilter:       dll.NewProc("interception_set_filter"),
		waitWithTimeout: dll.NewProc("interception_wait_with_timeout"),
		receive:         dll.NewProc("interception_receive"),
		send:            dll.NewProc("interception_send"),
	}
	for _, p := range []*windows.LazyProc{
		procs.createContext, procs.destroyContext, procs.setFilter,
		procs.waitWithTimeout, procs.receive, procs.send,
	} {
		if err := p.Find(); err != nil {
			return nil, &DriverError{Op: "bind " + p.Name, Err: fmt.Errorf("%w: %v", ErrContextUnavailable, err)}
		}
	}

	handle, _, _ := procs.createContext.Call()
	if handle == 0 {
		return nil, &DriverError{Op: "create_context", Err: ErrContextUnavailable}
	}
	logger.Debug("context created", zap.String("dll", path))

	return &interception{procs: procs, logger: logger, handle: handle}, nil
}

func (i *interception) SetFilter(p Predicate, f Filter) error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.handle == 0 {
		return &DriverError{Op: "set_filter", Err: ErrClosed}
	}

	activePredicate.Store(&p)
	i.procs.setFilter.Call(i.handle, filterTrampoline(), uintptr(f))
	return nil
}

func (i *interception) WaitWithTimeout(timeout time.Duration) (Device, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.handle == 0 {
		return 0, &DriverError{Op: "wait", Err: ErrClosed}
	}

	r, _, _ := i.procs.waitWithTimeout.Call(i.handle, uintptr(timeout.Milliseconds()))
	dev := Device(int32(r))
	if dev != 0 && IsInvalid(dev) {
		return 0, &DriverError{Op: "wait", Device: dev, Err: fmt.Errorf("driver reported invalid device")}
	}
	return dev, nil
}

func (i *interception) Receive(d Device, strokes []KeyStroke) (int, error) {
	if len(strokes) == 0 {
		return 0, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.handle == 0 {
		return 0, &DriverError{Op: "receive", Device: d, Err: ErrClosed}
	}

	r, _, _ := i.procs.receive.Call(
		i.handle,
		uintptr(d),
		uintptr(unsafe.Pointer(&strokes[0])),
		uintptr(len(strokes)),
	)
	return int(int32(r)), nil
}

func (i *interception) Send(d Device, strokes []KeyStroke) (int, error) {
	if len(strokes) == 0 {
		return 0, nil
	}
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.handle == 0 {
		return 0, &DriverError{Op: "send", Device: d, Err: ErrClosed}
	}

	r, _, _ := i.procs.send.Call(
		i.handle,
		uintptr(d),
		uintptr(unsafe.Pointer(&strokes[0])),
		uintptr(len(strokes)),
	)
	return int(int32(r)), nil
}

func (i *interception) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.handle == 0 {
		return nil
	}

	i.procs.destroyContext.Call(i.handle)
	i.handle = 0
	i.logger.Debug("context destroyed")
	return nil
}
