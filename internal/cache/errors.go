package cache

import "errors"

var (
	// ErrAtlasFull is returned when neither eviction nor growth can make
	// room for an entry.
	ErrAtlasFull = errors.New("cache: atlas is full")

	// ErrGrowthExceedsLimit is returned when growing would exceed the
	// backend's maximum texture dimension. It is fatal to the frame.
	ErrGrowthExceedsLimit = errors.New("cache: atlas growth exceeds backend texture limit")

	// ErrTooLarge is returned for bitmaps that can never fit the atlas.
	ErrTooLarge = errors.New("cache: bitmap larger than the maximum atlas size")

	// ErrRasterizationFailed wraps errors from the rasterize callback.
	ErrRasterizationFailed = errors.New("cache: rasterization failed")

	// ErrBackend wraps texture creation and upload failures. Callers
	// treat it as a failed submission.
	ErrBackend = errors.New("cache: backend failure")

	// ErrStaleRef is returned by Validate for refs that outlived their
	// frame or texture.
	ErrStaleRef = errors.New("cache: stale atlas reference")
)
