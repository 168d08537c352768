package vecir

import (
	"sort"

	"tsvr/fingerprint"
	"tsvr/glyph"
)

// DefId identifies a glyph definition slot within a Module's glyph table.
type DefId int

// GlyphPackEntry pairs a DefId with the interned glyph it names.
type GlyphPackEntry struct {
	ID    DefId
	Glyph glyph.Entry
}

// ItemEntry is one (Fingerprint, VecItem) pair within a Module's item map.
type ItemEntry struct {
	Fingerprint fingerprint.Fingerprint
	Item        VecItem
}

// ItemMap is an ordered map from Fingerprint to VecItem, sorted by key for
// stable serialization (spec.md data model: "items is sorted by key").
type ItemMap struct {
	entries []ItemEntry
	index   map[fingerprint.Fingerprint]int
}

// NewItemMap builds a sorted ItemMap from an unordered set of entries.
func NewItemMap(entries []ItemEntry) *ItemMap {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fingerprint.Less(entries[j].Fingerprint)
	})
	idx := make(map[fingerprint.Fingerprint]int, len(entries))
	for i, e := range entries {
		idx[e.Fingerprint] = i
	}
	return &ItemMap{entries: entries, index: idx}
}

// Get looks up an item by fingerprint.
func (m *ItemMap) Get(fp fingerprint.Fingerprint) (VecItem, bool) {
	if i, ok := m.index[fp]; ok {
		return m.entries[i].Item, true
	}
	return nil, false
}

// Entries returns the sorted (Fingerprint, VecItem) pairs.
func (m *ItemMap) Entries() []ItemEntry { return m.entries }

// Len reports the number of items.
func (m *ItemMap) Len() int { return len(m.entries) }

// Page is one page of a document: its root content item and its size.
type Page struct {
	Content fingerprint.Fingerprint
	Size    Size
}

// Module is the immutable snapshot of an IR build. Once finalized, a Module
// is reference-shared and never mutated; its items map is closed-world (see
// invariant 1: every fingerprint referenced inside a VecItem must resolve
// within the same Module).
type Module struct {
	Fonts  []glyph.Font
	Glyphs []GlyphPackEntry
	Items  *ItemMap
	Pages  []Page
}

// Verify checks invariant 1 (closed world): every fingerprint referenced by
// a stored VecItem must itself be present in Items, and every Page's
// Content fingerprint must resolve too. It returns the first dangling
// reference found, or nil.
func (m *Module) Verify() error {
	for _, p := range m.Pages {
		if _, ok := m.Items.Get(p.Content); !ok {
			return &DanglingReferenceError{From: fingerprint.Zero, To: p.Content}
		}
	}
	for _, e := range m.Items.Entries() {
		for _, ref := range referencedFingerprints(e.Item) {
			if ref.IsZero() {
				continue
			}
			if _, ok := m.Items.Get(ref); !ok {
				return &DanglingReferenceError{From: e.Fingerprint, To: ref}
			}
		}
	}
	return nil
}

// DanglingReferenceError reports a fingerprint referenced by an item that
// the containing module does not define.
type DanglingReferenceError struct {
	From fingerprint.Fingerprint
	To   fingerprint.Fingerprint
}

func (e *DanglingReferenceError) Error() string {
	return "vecir: item " + e.From.String() + " references undefined fingerprint " + e.To.String()
}

// referencedFingerprints returns every child fingerprint an item directly
// embeds, for closed-world verification.
func referencedFingerprints(it VecItem) []fingerprint.Fingerprint {
	switch v := it.(type) {
	case GroupItem:
		refs := make([]fingerprint.Fingerprint, len(v.Children))
		for i, c := range v.Children {
			refs[i] = c.Fingerprint
		}
		return refs
	case ItemItem:
		return []fingerprint.Fingerprint{v.Child}
	case PatternItem:
		return []fingerprint.Fingerprint{v.Frame}
	case ColorTransformItem:
		return []fingerprint.Fingerprint{v.Item}
	case PathItem:
		var refs []fingerprint.Fingerprint
		for _, s := range v.Styles {
			if s.Kind == StyleFill || s.Kind == StyleStroke {
				if s.Paint.Kind != PaintSolid {
					refs = append(refs, s.Paint.Ref)
				}
			}
		}
		return refs
	case TextItem:
		var refs []fingerprint.Fingerprint
		for _, s := range v.Shape.Styles {
			if s.Kind == StyleFill || s.Kind == StyleStroke {
				if s.Paint.Kind != PaintSolid {
					refs = append(refs, s.Paint.Ref)
				}
			}
		}
		return refs
	default:
		return nil
	}
}
