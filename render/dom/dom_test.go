package dom

import (
	"testing"

	"tsvr/fingerprint"
	"tsvr/vecir"
)

func TestPaintStubsPageOutsideViewport(t *testing.T) {
	p := NewPage(Rect{X: 0, Y: 1000, W: 100, H: 100})
	content := vecir.Page{Content: fingerprint.Fingerprint{Lo: 1}, Size: vecir.Size{X: 100, Y: 100}}

	res := p.Paint(Rect{X: 0, Y: 0, W: 100, H: 100}, content, 1.0)
	if !res.SvgStubbed {
		t.Fatalf("expected the svg subtree to be stubbed when outside the viewport")
	}
	if p.SvgVisible {
		t.Fatalf("expected SvgVisible to be false")
	}
}

func TestPaintFullRepaintsOnFirstPaintAndContentChange(t *testing.T) {
	p := NewPage(Rect{X: 0, Y: 0, W: 100, H: 100})
	content := vecir.Page{Content: fingerprint.Fingerprint{Lo: 1}, Size: vecir.Size{X: 100, Y: 100}}
	viewport := Rect{X: 0, Y: 0, W: 100, H: 100}

	res := p.Paint(viewport, content, 1.0)
	if !res.FullRepaint {
		t.Fatalf("expected a full repaint on first paint")
	}
	if !p.CanvasPainted || !p.SvgVisible {
		t.Fatalf("expected both dirty flags set after a repaint")
	}

	res2 := p.Paint(viewport, content, 1.0)
	if res2.FullRepaint {
		t.Fatalf("expected the second identical paint to skip a full repaint")
	}

	content2 := vecir.Page{Content: fingerprint.Fingerprint{Lo: 2}, Size: vecir.Size{X: 100, Y: 100}}
	res3 := p.Paint(viewport, content2, 1.0)
	if !res3.FullRepaint {
		t.Fatalf("expected a full repaint after content changed")
	}
}

func TestPaintClipsToAccumulatedDamage(t *testing.T) {
	p := NewPage(Rect{X: 0, Y: 0, W: 100, H: 100})
	content := vecir.Page{Content: fingerprint.Fingerprint{Lo: 1}, Size: vecir.Size{X: 100, Y: 100}}
	viewport := Rect{X: 0, Y: 0, W: 100, H: 100}

	p.Paint(viewport, content, 1.0) // establishes baseline

	p.MarkDamage(Rect{X: 10, Y: 10, W: 5, H: 5})
	p.MarkDamage(Rect{X: 20, Y: 20, W: 5, H: 5})

	res := p.Paint(viewport, content, 1.0)
	if res.FullRepaint {
		t.Fatalf("expected a damage-clipped repaint, not a full one")
	}
	want := Rect{X: 10, Y: 10, W: 15, H: 15}
	if res.Damage != want {
		t.Fatalf("expected accumulated damage %+v, got %+v", want, res.Damage)
	}
}

func TestRelayoutForcesNextFullRepaint(t *testing.T) {
	p := NewPage(Rect{X: 0, Y: 0, W: 100, H: 100})
	content := vecir.Page{Content: fingerprint.Fingerprint{Lo: 1}, Size: vecir.Size{X: 100, Y: 100}}
	viewport := Rect{X: 0, Y: 0, W: 100, H: 100}

	p.Paint(viewport, content, 1.0)
	p.Relayout(Rect{X: 0, Y: 0, W: 200, H: 200})

	if p.CanvasPainted {
		t.Fatalf("expected CanvasPainted reset after relayout")
	}
	res := p.Paint(viewport, content, 1.0)
	if !res.FullRepaint {
		t.Fatalf("expected a full repaint after relayout")
	}
}

func TestClipVarProducesExpectedKeys(t *testing.T) {
	vars := ClipVar(Rect{X: 1, Y: 2, W: 3, H: 4})
	if vars["--reflexo-clip-lo-x"] != "1" || vars["--reflexo-clip-hi-x"] != "4" {
		t.Fatalf("unexpected clip vars: %+v", vars)
	}
}

func TestFontLayerClassSlugifiesFamily(t *testing.T) {
	if got := FontLayerClass("Noto Sans CJK"); got != "font-noto-sans-cjk" {
		t.Fatalf("FontLayerClass() = %q", got)
	}
	if got := FontLayerClass(""); got != "font-unknown" {
		t.Fatalf("FontLayerClass(\"\") = %q, want font-unknown", got)
	}
}
