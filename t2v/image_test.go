package t2v

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/vecir"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDownsampleOversizeRasterShrinksLargeImage(t *testing.T) {
	data := encodePNG(t, maxEmbeddedDimension+500, 100)
	out := downsampleOversizeRaster(data)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.Width > maxEmbeddedDimension {
		t.Fatalf("expected width <= %d, got %d", maxEmbeddedDimension, cfg.Width)
	}
}

func TestDownsampleOversizeRasterLeavesSmallImageUnchanged(t *testing.T) {
	data := encodePNG(t, 10, 10)
	out := downsampleOversizeRaster(data)
	if !bytes.Equal(data, out) {
		t.Fatalf("expected small image to pass through unchanged")
	}
}

func encodeGrayJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestDownsampleOversizeRasterCollapsesGrayscaleJPEG(t *testing.T) {
	data := encodeGrayJPEG(t, maxEmbeddedDimension+200, 50)
	out := downsampleOversizeRaster(data)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	if cfg.Width > maxEmbeddedDimension {
		t.Fatalf("expected width <= %d, got %d", maxEmbeddedDimension, cfg.Width)
	}
	if cfg.ColorModel != color.GrayModel {
		t.Fatalf("expected a single-channel grayscale JPEG, got color model %T", cfg.ColorModel)
	}
}

func TestDownsampleOversizeRasterLeavesNonImageBytesUnchanged(t *testing.T) {
	data := []byte("not an image at all")
	out := downsampleOversizeRaster(data)
	if !bytes.Equal(data, out) {
		t.Fatalf("expected non-image bytes to pass through unchanged")
	}
}

func TestLowerImageStoresDeclaredSize(t *testing.T) {
	b := NewBuilder(fingerprint.New(), glyph.NewBuilder(), 2)
	fp := b.lowerImage(doc.ImageRef{Data: []byte("tiny-image-bytes"), Size: vecir.Size{X: 50, Y: 50}})

	item, ok := b.Get(fp)
	if !ok {
		t.Fatalf("expected stored image item")
	}
	img, ok := item.(vecir.ImageItem)
	if !ok {
		t.Fatalf("expected vecir.ImageItem, got %T", item)
	}
	if img.Size.X != 50 || img.Size.Y != 50 {
		t.Fatalf("unexpected size %+v", img.Size)
	}
}
