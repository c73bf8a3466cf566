package wgpu

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAdapter is returned by Open when no usable GPU adapter exists.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

	// ErrNoHalAccess is returned by NewFromProvider when the provider does
	// not expose hal objects.
	ErrNoHalAccess = errors.New("wgpu: provider does not expose hal device and queue")

	// ErrClosed is returned by operations on a closed Backend.
	ErrClosed = errors.New("wgpu: backend closed")

	// ErrGPUTimeout is returned by Submit when the queue does not complete
	// the frame within Config.SubmitTimeout.
	ErrGPUTimeout = errors.New("wgpu: timed out waiting for GPU")
)

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("wgpu: invalid config %s: %s", e.Field, e.Reason)
}
