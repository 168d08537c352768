package t2v

import (
	"context"
	"strings"
	"testing"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/glyph"
)

func TestDebugDumpListsStoredItemsInNaturalOrder(t *testing.T) {
	b := NewBuilder(fingerprint.New(), glyph.NewBuilder(), 2)
	d := doc.Document{
		Pages: []doc.Page{
			{Frame: doc.Frame{Items: []doc.FrameItem{
				{Kind: doc.FiText, Text: ptr(textRun("a"))},
			}}},
		},
	}
	if _, err := b.LowerDocument(context.Background(), d); err != nil {
		t.Fatalf("LowerDocument() error = %v", err)
	}

	out := b.DebugDump()
	if !strings.Contains(out, "Items:") {
		t.Fatalf("DebugDump() missing items header: %q", out)
	}
	if !strings.Contains(out, "kind=") {
		t.Fatalf("DebugDump() missing item entries: %q", out)
	}
}
