package gv

import (
	"errors"
	"fmt"

	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/internal/clip"
)

// Errors shared with internal packages are the same values, so errors.Is
// works on anything a frame returns.
var (
	// ErrAtlasFull is returned when the atlas can neither evict nor grow
	// to fit a glyph or image.
	ErrAtlasFull = cache.ErrAtlasFull

	// ErrGrowthExceedsLimit is returned when the atlas would have to grow
	// past the backend's maximum texture size. It ends the frame.
	ErrGrowthExceedsLimit = cache.ErrGrowthExceedsLimit

	// ErrRasterizationFailed marks a glyph or image that could not be
	// rasterized. The primitive is skipped and the frame continues.
	ErrRasterizationFailed = cache.ErrRasterizationFailed

	// ErrStaleRef is returned when a batch refers to atlas texels that no
	// longer exist.
	ErrStaleRef = cache.ErrStaleRef

	// ErrClipUnderflow is returned when a clip is popped that was never
	// pushed in the current save scope.
	ErrClipUnderflow = clip.ErrUnderflow

	// ErrClipDepthExceeded is returned when clips nest deeper than the
	// stencil buffer can count.
	ErrClipDepthExceeded = clip.ErrDepthExceeded

	// ErrBackendSubmission wraps backend failures. The frame is incomplete.
	ErrBackendSubmission = errors.New("gv: backend submission failed")

	// ErrStackUnbalance is returned by Restore without a matching Save.
	ErrStackUnbalance = errors.New("gv: restore without matching save")

	// ErrDashNotSupported is returned for strokes with a dash pattern.
	ErrDashNotSupported = errors.New("gv: dashed strokes are not supported")

	// ErrFrameInProgress is returned by BeginFrame while another frame of
	// the same renderer is open.
	ErrFrameInProgress = errors.New("gv: frame already in progress")

	// ErrFrameEnded is returned by a Context after EndFrame or Discard.
	ErrFrameEnded = errors.New("gv: frame has ended")

	// ErrInvalidImage is returned for malformed image data.
	ErrInvalidImage = errors.New("gv: invalid image")

	// ErrClosed is returned by a closed Renderer.
	ErrClosed = errors.New("gv: renderer closed")
)

// ConfigError reports an invalid option value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gv: invalid %s: %s", e.Field, e.Reason)
}

// fatal reports whether err ends the frame.
func fatal(err error) bool {
	return errors.Is(err, ErrGrowthExceedsLimit) || errors.Is(err, ErrBackendSubmission)
}
