// Package raster turns content sources into premultiplied RGBA bitmaps
// ready for atlas upload.
package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

var (
	// ErrInvalidBitmap is returned for bitmaps whose pixel slice does not
	// match their dimensions.
	ErrInvalidBitmap = errors.New("raster: pixel data does not match dimensions")

	// ErrUnsupportedFormat is returned for unknown pixel formats.
	ErrUnsupportedFormat = errors.New("raster: unsupported pixel format")
)

// Bitmap is a premultiplied RGBA8 image with tightly packed rows.
//
// Left and Top place the bitmap relative to a pen position: for glyphs the
// top-left texel sits at (pen.X+Left, pen.Y+Top) in y-down space. Images
// leave both at zero.
type Bitmap struct {
	Width, Height int
	Left, Top     int
	Pix           []byte
}

// NewBitmap allocates a transparent bitmap.
func NewBitmap(width, height int) Bitmap {
	return Bitmap{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// Empty reports whether the bitmap has no texels.
func (b Bitmap) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Validate checks that Pix holds exactly Width*Height texels.
func (b Bitmap) Validate() error {
	if b.Width < 0 || b.Height < 0 || len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidBitmap, b.Width, b.Height, len(b.Pix))
	}
	return nil
}

// At returns the premultiplied texel at (x, y).
func (b Bitmap) At(x, y int) color.RGBA {
	i := (y*b.Width + x) * 4
	return color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// PixelFormat describes caller-supplied pixel data.
type PixelFormat uint8

// Pixel formats accepted by FromPixels.
const (
	// FormatRGBA is straight (non-premultiplied) RGBA8.
	FormatRGBA PixelFormat = iota
	// FormatRGBAPremul is premultiplied RGBA8.
	FormatRGBAPremul
	// FormatRGB is opaque RGB8.
	FormatRGB
	// FormatGray is an 8-bit luminance channel.
	FormatGray
	// FormatAlpha is an 8-bit coverage channel rendered as premultiplied white.
	FormatAlpha
)

// BytesPerPixel returns the texel size of the format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatGray, FormatAlpha:
		return 1
	default:
		return 4
	}
}

// FromPixels converts raw pixels to a premultiplied bitmap.
func FromPixels(width, height int, pix []byte, format PixelFormat) (Bitmap, error) {
	if format > FormatAlpha {
		return Bitmap{}, fmt.Errorf("%w: %d", ErrUnsupportedFormat, format)
	}
	if width <= 0 || height <= 0 || len(pix) != width*height*format.BytesPerPixel() {
		return Bitmap{}, fmt.Errorf("%w: %dx%d %d bytes", ErrInvalidBitmap, width, height, len(pix))
	}

	out := NewBitmap(width, height)
	n := width * height
	for i := 0; i < n; i++ {
		d := out.Pix[i*4 : i*4+4]
		switch format {
		case FormatRGBA:
			s := pix[i*4 : i*4+4]
			a := uint32(s[3])
			d[0] = uint8((uint32(s[0])*a + 127) / 255)
			d[1] = uint8((uint32(s[1])*a + 127) / 255)
			d[2] = uint8((uint32(s[2])*a + 127) / 255)
			d[3] = s[3]
		case FormatRGBAPremul:
			copy(d, pix[i*4:i*4+4])
		case FormatRGB:
			copy(d, pix[i*3:i*3+3])
			d[3] = 0xff
		case FormatGray:
			g := pix[i]
			d[0], d[1], d[2], d[3] = g, g, g, 0xff
		case FormatAlpha:
			c := pix[i]
			d[0], d[1], d[2], d[3] = c, c, c, c
		}
	}
	return out, nil
}

// FromImage converts any image to a premultiplied bitmap of the same size.
func FromImage(src image.Image) Bitmap {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return fromRGBA(dst)
}

// FromImageScaled resamples src to width x height with the given scaler.
// A nil scaler selects draw.ApproxBiLinear.
func FromImageScaled(src image.Image, width, height int, scaler draw.Scaler) Bitmap {
	if scaler == nil {
		scaler = draw.ApproxBiLinear
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return fromRGBA(dst)
}

// fromRGBA copies an image.RGBA, which is already premultiplied, into a
// bitmap with a tight stride.
func fromRGBA(img *image.RGBA) Bitmap {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := NewBitmap(w, h)
	for y := 0; y < h; y++ {
		copy(out.Pix[y*w*4:(y+1)*w*4], img.Pix[y*img.Stride:y*img.Stride+w*4])
	}
	return out
}

// ToImage returns the bitmap as an *image.RGBA sharing no memory with it.
func (b Bitmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// SubImage copies the texels of the given rectangle into a new bitmap.
func (b Bitmap) SubImage(r image.Rectangle) Bitmap {
	r = r.Intersect(image.Rect(0, 0, b.Width, b.Height))
	out := NewBitmap(r.Dx(), r.Dy())
	for y := 0; y < r.Dy(); y++ {
		src := ((r.Min.Y+y)*b.Width + r.Min.X) * 4
		copy(out.Pix[y*out.Width*4:(y+1)*out.Width*4], b.Pix[src:src+out.Width*4])
	}
	return out
}
