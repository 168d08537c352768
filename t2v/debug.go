package t2v

import (
	"sort"

	"github.com/maruel/natural"

	"tsvr/utils/debug"
	"tsvr/vecir"
)

// DebugDump renders every stored item as a readable tree, keyed by
// fingerprint string and sorted in natural order so runs are stable and
// numerically-suffixed fingerprints (which share a prefix) sort the way a
// human would expect rather than lexicographically.
//
// It exists solely for manual inspection while debugging a build.
func (b *Builder) DebugDump() string {
	tw := debug.NewTreeWriter()

	snap := b.Snapshot()
	byKey := make(map[string]vecir.ItemEntry, len(snap))
	keys := make([]string, 0, len(snap))
	for _, e := range snap {
		k := e.Fingerprint.String()
		keys = append(keys, k)
		byKey[k] = e
	}
	sort.Sort(natural.StringSlice(keys))

	tw.Line(0, "Items: %d", len(keys))
	for _, k := range keys {
		e := byKey[k]
		tw.Line(1, "Item[%s] kind=%d", k, int(e.Item.ItemKind()))
	}
	return tw.String()
}
