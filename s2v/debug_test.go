package s2v

import (
	"strings"
	"testing"
)

func TestDebugDumpListsRegionsAndSpans(t *testing.T) {
	tr := buildSimpleTree(t)
	out := tr.DebugDump()

	if !strings.Contains(out, "Regions: 3") {
		t.Fatalf("DebugDump() = %q, expected 3 ingested regions", out)
	}
	if !strings.Contains(out, "Spans: 2") {
		t.Fatalf("DebugDump() = %q, expected 2 spans", out)
	}
}
