package gv

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/gogpu/gv/geom"
	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/cache"
	"github.com/gogpu/gv/raster"
)

// PixelFormat describes raw pixel data passed to NewImage.
type PixelFormat = raster.PixelFormat

// Pixel formats accepted by NewImage.
const (
	FormatRGBA       = raster.FormatRGBA
	FormatRGBAPremul = raster.FormatRGBAPremul
	FormatRGB        = raster.FormatRGB
	FormatGray       = raster.FormatGray
	FormatAlpha      = raster.FormatAlpha
)

var nextImageID atomic.Uint64

// Image is a bitmap owned by a Renderer. Small images are uploaded to the
// shared atlas on first use and may be evicted and uploaded again later.
// Large images live in a texture of their own until Release.
type Image struct {
	id       uint64
	r        *Renderer
	bitmap   raster.Bitmap
	texture  gpucore.TextureID
	released bool
}

// Width returns the width in pixels.
func (img *Image) Width() int { return img.bitmap.Width }

// Height returns the height in pixels.
func (img *Image) Height() int { return img.bitmap.Height }

// Bounds returns the image rectangle at the origin.
func (img *Image) Bounds() Rect {
	return geom.XYWH(0, 0, float64(img.bitmap.Width), float64(img.bitmap.Height))
}

// Dedicated reports whether the image has a texture of its own.
func (img *Image) Dedicated() bool { return img.texture != gpucore.InvalidID }

// Release frees the image's dedicated texture and drops its atlas copies.
// Resources still used by the open frame are freed when it ends. Drawing
// a released image fails with ErrInvalidImage.
func (img *Image) Release() {
	if img.released {
		return
	}
	img.released = true
	r := img.r
	r.cache.Remove(func(k cache.Key) bool {
		return k.Kind == cache.KindImage && k.Source == img.id
	})
	if img.texture == gpucore.InvalidID {
		return
	}
	if r.frame != nil {
		r.retired = append(r.retired, img.texture)
	} else {
		r.backend.DestroyTexture(img.texture)
	}
	img.texture = gpucore.InvalidID
}

// NewImage creates an image from raw pixels.
func (r *Renderer) NewImage(width, height int, pix []byte, format PixelFormat) (*Image, error) {
	bmp, err := raster.FromPixels(width, height, pix, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return r.newImage(bmp)
}

// NewImageFromImage creates an image from any image.Image.
func (r *Renderer) NewImageFromImage(src image.Image) (*Image, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty source", ErrInvalidImage)
	}
	bmp, err := r.images.RasterizeImage(src, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}
	return r.newImage(bmp)
}

func (r *Renderer) newImage(bmp raster.Bitmap) (*Image, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if err := bmp.Validate(); err != nil || bmp.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, bmp.Width, bmp.Height)
	}
	img := &Image{id: nextImageID.Add(1), r: r, bitmap: bmp}
	if bmp.Width <= r.opts.maxImageAtlas && bmp.Height <= r.opts.maxImageAtlas {
		return img, nil
	}

	limit := r.MaxTextureSize()
	if bmp.Width > limit || bmp.Height > limit {
		return nil, fmt.Errorf("%w: %dx%d exceeds the maximum texture size %d", ErrInvalidImage, bmp.Width, bmp.Height, limit)
	}
	tex, err := r.backend.CreateTexture(bmp.Width, bmp.Height, gpucore.TextureFormatRGBA8Unorm)
	if err != nil {
		return nil, fmt.Errorf("%w: create image texture: %w", ErrBackendSubmission, err)
	}
	region := gpucore.Region{Width: bmp.Width, Height: bmp.Height}
	if err := r.backend.WriteTexture(tex, region, bmp.Pix); err != nil {
		r.backend.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: upload image: %w", ErrBackendSubmission, err)
	}
	img.texture = tex
	slogger().Debug("gv: dedicated image texture", "id", img.id, "width", bmp.Width, "height", bmp.Height)
	return img, nil
}
