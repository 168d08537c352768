package wire

import (
	"bytes"
	"testing"

	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/incremental"
	"tsvr/vecir"
)

func TestWriteModuleEmitsExpectedRecordKindsInOrder(t *testing.T) {
	fb := fingerprint.New()
	path := vecir.PathItem{D: "M 0 0 Z"}
	fp := fb.Resolve(path)
	mod := &vecir.Module{
		Items: vecir.NewItemMap([]vecir.ItemEntry{{Fingerprint: fp, Item: path}}),
		Pages: []vecir.Page{{Content: fp, Size: vecir.Size{X: 10, Y: 10}}},
	}

	var buf bytes.Buffer
	if err := WriteModule(&buf, BuildVersionInfo{Version: "1", Compiler: "tsvr"}, mod); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	recs := r.Records()
	wantKinds := []Kind{KindBuildVersion, KindItem, KindFont, KindGlyph, KindLayout}
	if len(recs) != len(wantKinds) {
		t.Fatalf("expected %d records, got %d", len(wantKinds), len(recs))
	}
	for i, k := range wantKinds {
		if recs[i].Kind != k {
			t.Fatalf("record %d: expected kind %v, got %v", i, k, recs[i].Kind)
		}
	}
}

func TestWriteDeltaSkipsEmptyGarbageCollectionRecord(t *testing.T) {
	var buf bytes.Buffer
	delta := incremental.Delta{
		Items:  nil,
		Fonts:  []glyph.Font{{Family: "Sans"}},
		Glyphs: nil,
	}
	if err := WriteDelta(&buf, 0, 0, delta, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.IndexOf(KindGarbageCollection)) != 0 {
		t.Fatalf("expected no GarbageCollection record when gc list is empty")
	}
	if len(r.IndexOf(KindFont)) != 1 {
		t.Fatalf("expected exactly one Font record")
	}
}

func TestWriteDeltaIncludesGarbageCollectionWhenNonEmpty(t *testing.T) {
	var buf bytes.Buffer
	gc := []fingerprint.Fingerprint{{Hi: 1, Lo: 2}}
	if err := WriteDelta(&buf, 0, 0, incremental.Delta{}, gc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := ReadAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(r.IndexOf(KindGarbageCollection)) != 1 {
		t.Fatalf("expected exactly one GarbageCollection record")
	}
}
