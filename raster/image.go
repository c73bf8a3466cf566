package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// ImageRasterizer produces a bitmap from an image source.
type ImageRasterizer interface {
	// RasterizeImage returns src as a bitmap of width x height texels.
	// Zero dimensions keep the source size.
	RasterizeImage(src image.Image, width, height int) (Bitmap, error)
}

// Images is the default ImageRasterizer built on golang.org/x/image/draw.
type Images struct {
	// Scaler resamples when the requested size differs from the source.
	// Nil selects draw.ApproxBiLinear.
	Scaler draw.Scaler
}

// RasterizeImage implements ImageRasterizer.
func (r Images) RasterizeImage(src image.Image, width, height int) (Bitmap, error) {
	if src == nil {
		return Bitmap{}, fmt.Errorf("%w: nil image", ErrInvalidBitmap)
	}
	b := src.Bounds()
	if b.Empty() {
		return Bitmap{}, nil
	}
	if width <= 0 || height <= 0 || (width == b.Dx() && height == b.Dy()) {
		return FromImage(src), nil
	}
	return FromImageScaled(src, width, height, r.Scaler), nil
}
