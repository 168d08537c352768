package raster

import "testing"

func TestToImageUsesViewBoxWhenNoTargetGiven(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 50"><rect width="100" height="50"/></svg>`)
	img, err := ToImage(svgData, 0, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Fatalf("expected 100x50, got %v", img.Bounds())
	}
}

func TestToImageFitsBothDimensions(t *testing.T) {
	svgData := []byte(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100"><rect width="200" height="100"/></svg>`)
	img, err := ToImage(svgData, 50, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 25 {
		t.Fatalf("expected a 50x25 fit, got %v", img.Bounds())
	}
}

func TestScaleStrokeWidthMultipliesValues(t *testing.T) {
	in := []byte(`<path stroke-width="2"/>`)
	out := ScaleStrokeWidth(in, 3)
	if string(out) != `<path stroke-width="6"/>` {
		t.Fatalf("unexpected scaled output: %s", out)
	}
}

func TestScaleStrokeWidthNoopForUnitFactor(t *testing.T) {
	in := []byte(`<path stroke-width="2"/>`)
	out := ScaleStrokeWidth(in, 1)
	if string(out) != string(in) {
		t.Fatalf("expected unchanged output for factor 1")
	}
}
