package software

import (
	"math"

	"github.com/gogpu/gv/gpucore"
	"github.com/gogpu/gv/internal/blend"
)

type texture struct {
	width, height int
	format        gpucore.TextureFormat
	pix           []byte
}

func newTexture(w, h int, format gpucore.TextureFormat) *texture {
	return &texture{width: w, height: h, format: format, pix: make([]byte, w*h*format.BytesPerPixel())}
}

// texel returns the premultiplied RGBA texel at (x, y), clamped to the
// texture edge.
func (t *texture) texel(x, y int) blend.Color {
	x = min(max(x, 0), t.width-1)
	y = min(max(y, 0), t.height-1)
	bpp := t.format.BytesPerPixel()
	i := (y*t.width + x) * bpp
	switch t.format {
	case gpucore.TextureFormatR8Unorm:
		c := t.pix[i]
		return blend.Color{c, c, c, c}
	case gpucore.TextureFormatBGRA8Unorm:
		return blend.Color{t.pix[i+2], t.pix[i+1], t.pix[i], t.pix[i+3]}
	default:
		return blend.Color{t.pix[i], t.pix[i+1], t.pix[i+2], t.pix[i+3]}
	}
}

// sample filters the texture bilinearly at normalized (u, v) with
// clamp-to-edge addressing.
func (t *texture) sample(u, v float32) blend.Color {
	fx := float64(u)*float64(t.width) - 0.5
	fy := float64(v)*float64(t.height) - 0.5
	x0, y0 := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0, fy-y0
	ix, iy := int(x0), int(y0)

	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)
	var out blend.Color
	for i := range 4 {
		top := float64(c00[i])*(1-tx) + float64(c10[i])*tx
		bot := float64(c01[i])*(1-tx) + float64(c11[i])*tx
		out[i] = uint8(math.Round(top*(1-ty) + bot*ty))
	}
	return out
}
