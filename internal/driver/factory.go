package driver

import (
	"fmt"
	"sort"
	"sync"
)

const (
	BackendInterception = "interception"
	BackendDryRun       = "dryrun"
)

// Opener creates a new capture context for a backend.
type Opener func(opts Options) (Driver, error)

// Factory maps backend names to openers. Every Open creates a fresh context;
// contexts are never shared between callers.
type Factory struct {
	openers map[string]Opener
	mu      sync.RWMutex
}

// NewFactory creates a factory with the built-in backends registered.
func NewFactory() *Factory {
	f := &Factory{
		openers: make(map[string]Opener),
	}
	f.Register(BackendInterception, openInterception)
	f.Register(BackendDryRun, openDryRun)
	return f
}

// Register adds or replaces the opener for name.
func (f *Factory) Register(name string, open Opener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openers[name] = open
}

// Backends returns the registered backend names in sorted order.
func (f *Factory) Backends() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.openers))
	for name := range f.openers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates a capture context using the named backend.
func (f *Factory) Open(name string, opts Options) (Driver, error) {
	f.mu.RLock()
	open, ok := f.openers[name]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}

	return open(opts)
}

// Global factory instance
var globalFactory = NewFactory()

// Open is a convenience function that uses the global factory
func Open(name string, opts Options) (Driver, error) {
	return globalFactory.Open(name, opts)
}

// Backends lists the backends known to the global factory.
func Backends() []string {
	return globalFactory.Backends()
}
