package gv

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gv/backend/recording"
	"github.com/gogpu/gv/gpucore"
)

func TestNewImageErrors(t *testing.T) {
	r, _ := newTestRenderer(t)
	tests := []struct {
		name   string
		w, h   int
		pix    []byte
		format PixelFormat
	}{
		{"short data", 2, 2, make([]byte, 15), FormatRGBA},
		{"zero width", 0, 2, nil, FormatRGBA},
		{"unknown format", 1, 1, make([]byte, 4), PixelFormat(99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.NewImage(tt.w, tt.h, tt.pix, tt.format); !errors.Is(err, ErrInvalidImage) {
				t.Errorf("err = %v, want ErrInvalidImage", err)
			}
		})
	}
	if _, err := r.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("empty image.Image err = %v, want ErrInvalidImage", err)
	}
}

func TestImageUploadedToAtlas(t *testing.T) {
	r, rec := newTestRenderer(t)
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, A: 255})
		}
	}
	img, err := r.NewImageFromImage(src)
	if err != nil {
		t.Fatal(err)
	}
	if img.Width() != 3 || img.Height() != 2 || img.Dedicated() {
		t.Fatalf("image %dx%d dedicated=%v, want 3x2 in the atlas", img.Width(), img.Height(), img.Dedicated())
	}

	ctx := beginFrame(t, r, 10, 10)
	if err := ctx.DrawImage(img, XYWH(0, 0, 6, 4)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndFrame(); err != nil {
		t.Fatal(err)
	}
	d := rec.LastFrame()[0]
	tex := rec.Texture(d.Call.Texture)
	if tex == nil {
		t.Fatal("draw references an unknown texture")
	}
	v := d.Vertices[0]
	x := int(v.U*float32(tex.Width)) + 1
	y := int(v.V*float32(tex.Height)) + 1
	if x >= tex.Width || y >= tex.Height {
		t.Fatalf("uv (%v, %v) outside the atlas", v.U, v.V)
	}
	i := (y*tex.Width + x) * 4
	if got := tex.Pix[i : i+4]; got[0] != 200 || got[3] != 255 {
		t.Errorf("atlas texel = %v, want the image color", got)
	}
	if v.Color != [4]uint8{255, 255, 255, 255} {
		t.Errorf("image vertex color = %v, want white", v.Color)
	}
}

func TestLargeImageDedicatedTexture(t *testing.T) {
	r, rec := newTestRenderer(t, WithMaxImageAtlasSize(4))
	img, err := r.NewImage(8, 8, make([]byte, 8*8*4), FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	if !img.Dedicated() {
		t.Fatal("8x8 image with a 4 texel atlas limit is not dedicated")
	}
	ctx := beginFrame(t, r, 10, 10)
	if err := ctx.DrawImageArea(img, XYWH(4, 0, 4, 8), XYWH(0, 0, 4, 8)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndFrame(); err != nil {
		t.Fatal(err)
	}
	d := rec.LastFrame()[0]
	if d.Call.Texture != img.texture {
		t.Errorf("draw texture = %d, want the dedicated texture %d", d.Call.Texture, img.texture)
	}
	for _, v := range d.Vertices {
		if v.U < 0.5 || v.U > 1 {
			t.Errorf("u = %v, want the right half of the image", v.U)
		}
	}

	before := rec.LiveTextures()
	img.Release()
	img.Release()
	if rec.LiveTextures() != before-1 {
		t.Errorf("Release left %d textures, want %d", rec.LiveTextures(), before-1)
	}
	ctx = beginFrame(t, r, 10, 10)
	defer ctx.Discard()
	if err := ctx.DrawImage(img, XYWH(0, 0, 4, 4)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("drawing a released image err = %v, want ErrInvalidImage", err)
	}
}

func TestImageTooLargeForBackend(t *testing.T) {
	rec := recording.NewWithLimits(gpucore.Limits{MaxTextureDimension: 64, MaxBufferSize: 1 << 20})
	cfg := DefaultAtlasConfig()
	cfg.InitialSize = 64
	r, err := NewRenderer(rec, WithAtlasConfig(cfg), WithMaxImageAtlasSize(32))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := r.NewImage(65, 1, make([]byte, 65*4), FormatRGBA); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestImagePaintFill(t *testing.T) {
	r, rec := newTestRenderer(t)
	img, err := r.NewImage(2, 2, make([]byte, 16), FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	ctx := beginFrame(t, r, 20, 20)
	if err := ctx.Fill(square(0, 0, 10), ImagePaint(img, XYWH(0, 0, 10, 10))); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndFrame(); err != nil {
		t.Fatal(err)
	}
	d := rec.LastFrame()[0]
	if d.Call.Texture == gpucore.InvalidID {
		t.Fatal("image paint drew untextured")
	}
	var minU, maxU float32 = 1, 0
	for _, v := range d.Vertices {
		minU = min(minU, v.U)
		maxU = max(maxU, v.U)
	}
	if minU >= maxU {
		t.Errorf("u range [%v, %v] is degenerate", minU, maxU)
	}
}

func TestImageFromOtherRenderer(t *testing.T) {
	a, _ := newTestRenderer(t)
	b, _ := newTestRenderer(t)
	img, err := a.NewImage(1, 1, make([]byte, 4), FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	ctx := beginFrame(t, b, 10, 10)
	defer ctx.Discard()
	if err := ctx.DrawImage(img, XYWH(0, 0, 1, 1)); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("err = %v, want ErrInvalidImage", err)
	}
}

func TestAtlasGrowthPastBackendLimitEndsFrame(t *testing.T) {
	rec := recording.NewWithLimits(gpucore.Limits{MaxTextureDimension: 16, MaxBufferSize: 1 << 20})
	r, err := NewRenderer(rec, WithAtlasConfig(AtlasConfig{InitialSize: 16, AllowGrow: true, RetainPixels: true}))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx := beginFrame(t, r, 32, 32)
	var last error
	for i := range 5 {
		img, err := r.NewImage(8, 8, make([]byte, 8*8*4), FormatRGBA)
		if err != nil {
			t.Fatal(err)
		}
		last = ctx.DrawImage(img, XYWH(float64(i*6), 0, 6, 6))
	}
	if !errors.Is(last, ErrGrowthExceedsLimit) {
		t.Fatalf("fifth image err = %v, want ErrGrowthExceedsLimit", last)
	}
	if err := ctx.Fill(square(0, 0, 4), SolidPaint(Red)); !errors.Is(err, ErrGrowthExceedsLimit) {
		t.Errorf("Fill after a fatal error = %v, want the same error", err)
	}
	if err := ctx.EndFrame(); !errors.Is(err, ErrGrowthExceedsLimit) {
		t.Errorf("EndFrame err = %v, want ErrGrowthExceedsLimit", err)
	}
	if len(rec.Frames()) != 0 {
		t.Error("failed frame was submitted")
	}
}

func TestReleaseDuringFrameDefersDestroy(t *testing.T) {
	r, rec := newTestRenderer(t, WithMaxImageAtlasSize(0))
	img, err := r.NewImage(4, 4, make([]byte, 4*4*4), FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	tex := img.texture
	ctx := beginFrame(t, r, 10, 10)
	if err := ctx.DrawImage(img, XYWH(0, 0, 4, 4)); err != nil {
		t.Fatal(err)
	}
	img.Release()
	if rec.Texture(tex).Destroyed {
		t.Fatal("texture destroyed while the open frame still draws it")
	}
	if err := ctx.EndFrame(); err != nil {
		t.Fatalf("EndFrame: %v", err)
	}
	if d := rec.LastFrame(); len(d) != 1 || d[0].Call.Texture != tex {
		t.Fatalf("frame draws = %+v, want one draw of texture %d", d, tex)
	}
	if !rec.Texture(tex).Destroyed {
		t.Error("released texture still alive after EndFrame")
	}
}

func TestReleaseDropsAtlasCopy(t *testing.T) {
	r, _ := newTestRenderer(t)
	img, err := r.NewImage(2, 2, make([]byte, 2*2*4), FormatRGBA)
	if err != nil {
		t.Fatal(err)
	}
	ctx := beginFrame(t, r, 10, 10)
	if err := ctx.DrawImage(img, XYWH(0, 0, 2, 2)); err != nil {
		t.Fatal(err)
	}
	if err := ctx.EndFrame(); err != nil {
		t.Fatal(err)
	}
	if n := r.AtlasStats().Entries; n != 1 {
		t.Fatalf("atlas entries = %d, want 1", n)
	}
	img.Release()
	if n := r.AtlasStats().Entries; n != 0 {
		t.Errorf("atlas entries after Release = %d, want 0", n)
	}
}
