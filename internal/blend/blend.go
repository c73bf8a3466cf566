// Package blend implements the renderer's blend modes on premultiplied
// 8-bit RGBA for the software backend.
//
// Every function takes and returns premultiplied colors. The formulas
// match the fixed-function blend states the GPU backends configure, so
// CPU and GPU output agree up to rounding.
package blend

import "github.com/gogpu/gv/gpucore"

// Color is premultiplied RGBA.
type Color = [4]uint8

// Func combines a source with a destination.
type Func func(src, dst Color) Color

// For returns the blend function of mode. Unknown modes select
// source-over.
func For(mode gpucore.BlendMode) Func {
	switch mode {
	case gpucore.BlendCopy:
		return Copy
	case gpucore.BlendAdd:
		return Add
	case gpucore.BlendMultiply:
		return Multiply
	case gpucore.BlendScreen:
		return Screen
	default:
		return SourceOver
	}
}

// SourceOver is S + D*(1-Sa).
func SourceOver(s, d Color) Color {
	if s[3] == 255 {
		return s
	}
	inv := 255 - s[3]
	return Color{
		addClamp(s[0], mulDiv255(d[0], inv)),
		addClamp(s[1], mulDiv255(d[1], inv)),
		addClamp(s[2], mulDiv255(d[2], inv)),
		addClamp(s[3], mulDiv255(d[3], inv)),
	}
}

// Copy is S.
func Copy(s, _ Color) Color { return s }

// Add is min(S + D, 1).
func Add(s, d Color) Color {
	return Color{addClamp(s[0], d[0]), addClamp(s[1], d[1]), addClamp(s[2], d[2]), addClamp(s[3], d[3])}
}

// Multiply is S*D + S*(1-Da) + D*(1-Sa). Alpha composites as source-over.
func Multiply(s, d Color) Color {
	invSa, invDa := 255-s[3], 255-d[3]
	var out Color
	for i := range 3 {
		v := uint16(mulDiv255(s[i], d[i])) + uint16(mulDiv255(s[i], invDa)) + uint16(mulDiv255(d[i], invSa))
		out[i] = clamp255(v)
	}
	out[3] = addClamp(s[3], mulDiv255(d[3], invSa))
	return out
}

// Screen is S + D - S*D.
func Screen(s, d Color) Color {
	var out Color
	for i := range 4 {
		out[i] = clamp255(uint16(s[i]) + uint16(d[i]) - uint16(mulDiv255(s[i], d[i])))
	}
	return out
}

// Modulate multiplies two premultiplied colors component-wise, as a
// fragment shader does when tinting a texel by the vertex color.
func Modulate(a, b Color) Color {
	return Color{mulDiv255(a[0], b[0]), mulDiv255(a[1], b[1]), mulDiv255(a[2], b[2]), mulDiv255(a[3], b[3])}
}
