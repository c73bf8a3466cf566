package backend

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/gogpu/gv/gpucore"
)

// Factory opens a backend for a width x height render target.
type Factory func(width, height int) (gpucore.Backend, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)

	// priority is the order Default tries backends in. Unlisted backends
	// are tried last, by name.
	priority = []string{WGPU, Software}
)

// Register registers a factory under name, replacing any previous one.
// It is typically called from a backend package's init function.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = f
}

// Unregister removes a backend. It is meant for tests.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered names in the order Default tries them.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return order()
}

// IsRegistered reports whether name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Open opens the backend registered under name.
func Open(name string, width, height int) (gpucore.Backend, error) {
	registryMu.RLock()
	f, ok := factories[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	b, err := f(width, height)
	if err != nil {
		return nil, fmt.Errorf("backend: open %s: %w", name, err)
	}
	return b, nil
}

// Default opens the first backend, in priority order, that succeeds.
func Default(width, height int) (gpucore.Backend, error) {
	registryMu.RLock()
	names := order()
	registryMu.RUnlock()

	var errs []error
	for _, name := range names {
		b, err := Open(name, width, height)
		if err == nil {
			return b, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(append([]error{ErrNotAvailable}, errs...)...)
}

// order returns registered names by priority. Callers hold registryMu.
func order() []string {
	names := make([]string, 0, len(factories))
	for _, p := range priority {
		if _, ok := factories[p]; ok {
			names = append(names, p)
		}
	}
	var rest []string
	for name := range factories {
		if !slices.Contains(priority, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	return append(names, rest...)
}
