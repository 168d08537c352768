package s2v

import (
	"fmt"
	"sort"

	"github.com/maruel/natural"

	"tsvr/utils/debug"
)

// DebugDump renders the ingested region tree after finalize, listing each
// region's children and the source spans that map to it. Keys are sorted
// in natural order so region/span ids (which render as plain decimal
// strings) come out in numeric rather than lexicographic order.
//
// It exists solely for manual inspection while debugging a build.
func (t *Tree) DebugDump() string {
	info := t.finalize()
	tw := debug.NewTreeWriter()

	regionKeys := make([]string, 0, len(info.children))
	byRegionKey := make(map[string]RegionID, len(info.children))
	for r := range info.children {
		k := fmt.Sprintf("%d", uint64(r))
		regionKeys = append(regionKeys, k)
		byRegionKey[k] = r
	}
	sort.Sort(natural.StringSlice(regionKeys))

	tw.Line(0, "Regions: %d (root=%d)", len(regionKeys), info.root)
	for _, k := range regionKeys {
		r := byRegionKey[k]
		lv := info.children[r]
		lv.ensureSorted()
		tw.Line(1, "Region[%s] children=%d", k, len(lv.items))
	}

	spanKeys := make([]string, 0, len(info.spanIndex))
	bySpanKey := make(map[string]uint64, len(info.spanIndex))
	for s := range info.spanIndex {
		k := fmt.Sprintf("%d", s)
		spanKeys = append(spanKeys, k)
		bySpanKey[k] = s
	}
	sort.Sort(natural.StringSlice(spanKeys))

	tw.Line(0, "Spans: %d", len(spanKeys))
	for _, k := range spanKeys {
		s := bySpanKey[k]
		tw.Line(1, "Span[%s] regions=%v", k, info.spanIndex[s])
	}
	return tw.String()
}
