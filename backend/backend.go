package backend

import "errors"

// Backend names.
const (
	// WGPU draws through gogpu/wgpu's hal layer.
	WGPU = "wgpu"
	// Software rasterizes on the CPU.
	Software = "software"
)

// Common backend errors.
var (
	// ErrNotAvailable is returned when no registered backend can be opened.
	ErrNotAvailable = errors.New("backend: not available")

	// ErrUnknown is returned by Open for names that were never registered.
	ErrUnknown = errors.New("backend: unknown backend")
)
