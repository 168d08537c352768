package wire

import (
	"io"

	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/incremental"
	"tsvr/vecir"
)

// BuildVersionInfo identifies the compiler that produced a stream.
type BuildVersionInfo struct {
	Version  string
	Compiler string
}

func encodeBuildVersion(v BuildVersionInfo) []byte {
	e := fingerprint.NewEncoder()
	e.WriteString(v.Version)
	e.WriteString(v.Compiler)
	return e.Bytes()
}

func encodeItemPack(entries []vecir.ItemEntry) []byte {
	e := fingerprint.NewEncoder()
	e.WriteInt(len(entries))
	for _, ent := range entries {
		e.WriteFingerprint(ent.Fingerprint)
		ent.Item.EncodeStable(e)
	}
	return e.Bytes()
}

func encodeFontPack(base int, fonts []glyph.Font) []byte {
	e := fingerprint.NewEncoder()
	e.WriteInt(base)
	e.WriteInt(len(fonts))
	for _, f := range fonts {
		e.WriteString(f.Family)
		e.WriteInt(f.Weight)
		e.WriteBool(f.Italic)
		e.WriteInt(f.Stretch)
		e.WriteInt(int(f.UnitsPerEm))
	}
	return e.Bytes()
}

func encodeGlyphPack(base int, glyphs []glyph.Entry) []byte {
	e := fingerprint.NewEncoder()
	e.WriteInt(base)
	e.WriteInt(len(glyphs))
	for _, g := range glyphs {
		e.WriteInt(int(g.Font))
		e.WriteUint64(uint64(g.Glyph.Index))
	}
	return e.Bytes()
}

func encodeGarbageCollection(fps []fingerprint.Fingerprint) []byte {
	e := fingerprint.NewEncoder()
	e.WriteInt(len(fps))
	for _, fp := range fps {
		e.WriteFingerprint(fp)
	}
	return e.Bytes()
}

func encodeLayout(pages []vecir.Page) []byte {
	e := fingerprint.NewEncoder()
	e.WriteInt(len(pages))
	for _, p := range pages {
		e.WriteFingerprint(p.Content)
		e.WriteFloat64(float64(p.Size.X))
		e.WriteFloat64(float64(p.Size.Y))
	}
	return e.Bytes()
}

// WriteModule writes a complete, non-incremental module stream: a
// BuildVersion record, the full Item table, the full font/glyph tables (base
// 0), and the page Layout.
func WriteModule(w io.Writer, version BuildVersionInfo, mod *vecir.Module) error {
	ww := NewWriter(w)
	if err := ww.WriteRecord(KindBuildVersion, encodeBuildVersion(version)); err != nil {
		return err
	}
	if err := ww.WriteRecord(KindItem, encodeItemPack(mod.Items.Entries())); err != nil {
		return err
	}
	if err := ww.WriteRecord(KindFont, encodeFontPack(0, mod.Fonts)); err != nil {
		return err
	}
	glyphs := make([]glyph.Entry, len(mod.Glyphs))
	for i, gp := range mod.Glyphs {
		glyphs[i] = gp.Glyph
	}
	if err := ww.WriteRecord(KindGlyph, encodeGlyphPack(0, glyphs)); err != nil {
		return err
	}
	return ww.WriteRecord(KindLayout, encodeLayout(mod.Pages))
}

// WriteDelta writes one incremental compile's record stream: the new items
// and fonts/glyphs since the last delta, plus any fingerprints the GC pass
// evicted this epoch.
func WriteDelta(w io.Writer, fontBase, glyphBase int, delta incremental.Delta, gc []fingerprint.Fingerprint) error {
	ww := NewWriter(w)
	if err := ww.WriteRecord(KindItem, encodeItemPack(delta.Items)); err != nil {
		return err
	}
	if err := ww.WriteRecord(KindFont, encodeFontPack(fontBase, delta.Fonts)); err != nil {
		return err
	}
	if err := ww.WriteRecord(KindGlyph, encodeGlyphPack(glyphBase, delta.Glyphs)); err != nil {
		return err
	}
	if len(gc) > 0 {
		if err := ww.WriteRecord(KindGarbageCollection, encodeGarbageCollection(gc)); err != nil {
			return err
		}
	}
	return nil
}
