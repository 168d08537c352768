package t2v

import (
	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/vecir"
)

// lowerText interns the run's font and glyphs, then stores a Text item
// carrying both the positioned glyph run and the original UTF-8 (kept
// alongside the glyphs for text extraction / search independent of S2V).
func (b *Builder) lowerText(run doc.TextRun) fingerprint.Fingerprint {
	return b.StoreCached(run, func() vecir.VecItem {
		fontRef := b.GB.BuildFont(glyph.Font{
			Family:     run.Font.Family,
			Weight:     run.Font.Weight,
			Italic:     run.Font.Italic,
			Stretch:    run.Font.Stretch,
			UnitsPerEm: run.Font.UnitsPerEm,
		})

		scale := textScale(run.Font.UnitsPerEm, run.EmSize)
		var styles []vecir.PathStyle
		if run.Fill != nil {
			styles = append(styles, vecir.PathStyle{Kind: vecir.StyleFill, Paint: b.lowerPaint(*run.Fill, scale, true)})
		}
		if run.Stroke != nil {
			styles = append(styles, b.lowerStroke(*run.Stroke, scale, true)...)
		}

		glyphs := make([]vecir.GlyphInstance, len(run.Glyphs))
		for i, g := range run.Glyphs {
			ref := b.GB.BuildGlyph(fontRef, glyph.Glyph{Index: g.Index})
			glyphs[i] = vecir.GlyphInstance{
				XOffset:  g.XOffset,
				XAdvance: g.XAdvance,
				Glyph:    ref,
			}
		}

		return vecir.TextItem{
			Shape: vecir.TextShape{
				Font:   fontRef,
				EmSize: run.EmSize,
				Dir:    run.Dir,
				Styles: styles,
			},
			Content: vecir.TextContent{
				UTF8:   run.Text,
				Glyphs: glyphs,
			},
		}
	})
}
