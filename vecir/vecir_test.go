package vecir

import (
	"testing"

	"tsvr/fingerprint"
)

func TestFixSizeZeroDimension(t *testing.T) {
	s := FixSize(Size{X: 0, Y: 10})
	if s.X != 1 || s.Y != 10 {
		t.Fatalf("expected zero X bumped to 1pt, got %+v", s)
	}
	s = FixSize(Size{X: 5, Y: 0})
	if s.Y != 1 {
		t.Fatalf("expected zero Y bumped to 1pt, got %+v", s)
	}
}

func TestPartitionLinksStable(t *testing.T) {
	fp := func(n uint64) fingerprint.Fingerprint { return fingerprint.Fingerprint{Lo: n} }
	children := []GroupChild{
		{Fingerprint: fp(1), IsLink: false},
		{Fingerprint: fp(2), IsLink: true},
		{Fingerprint: fp(3), IsLink: false},
		{Fingerprint: fp(4), IsLink: true},
	}
	out := PartitionLinks(children)
	want := []uint64{1, 3, 2, 4}
	for i, w := range want {
		if out[i].Fingerprint.Lo != w {
			t.Fatalf("position %d: want %d, got %d", i, w, out[i].Fingerprint.Lo)
		}
	}
}

func TestMatrixComposition(t *testing.T) {
	translate := Matrix{A: 1, D: 1, E: 5, F: 5}
	scale := Matrix{A: 2, D: 2}
	combined := translate.Mul(scale)
	p := combined.Apply(Point{X: 1, Y: 1})
	if p.X != 12 || p.Y != 12 {
		t.Fatalf("expected (12,12), got (%v,%v)", p.X, p.Y)
	}
}

func TestItemMapSortedAndLookup(t *testing.T) {
	a := fingerprint.Fingerprint{Lo: 2}
	b := fingerprint.Fingerprint{Lo: 1}
	m := NewItemMap([]ItemEntry{
		{Fingerprint: a, Item: NoneItem{}},
		{Fingerprint: b, Item: LinkItem{Href: "x"}},
	})
	entries := m.Entries()
	if !entries[0].Fingerprint.Less(entries[1].Fingerprint) {
		t.Fatalf("expected sorted order")
	}
	if _, ok := m.Get(b); !ok {
		t.Fatalf("expected lookup to find b")
	}
}

func TestModuleVerifyDetectsDangling(t *testing.T) {
	child := fingerprint.Fingerprint{Lo: 1}
	group := fingerprint.Fingerprint{Lo: 2}
	mod := &Module{
		Items: NewItemMap([]ItemEntry{
			{Fingerprint: group, Item: GroupItem{Children: []GroupChild{{Fingerprint: child}}}},
		}),
		Pages: []Page{{Content: group}},
	}
	if err := mod.Verify(); err == nil {
		t.Fatalf("expected dangling reference error for missing child")
	}

	mod.Items = NewItemMap([]ItemEntry{
		{Fingerprint: group, Item: GroupItem{Children: []GroupChild{{Fingerprint: child}}}},
		{Fingerprint: child, Item: NoneItem{}},
	})
	if err := mod.Verify(); err != nil {
		t.Fatalf("expected closed module to verify, got %v", err)
	}
}

func TestItemEncodeStableDeterministic(t *testing.T) {
	b := fingerprint.New()
	item := PathItem{D: "M 0 0 L 1 1", Styles: []PathStyle{{Kind: StyleStrokeWidth, Width: 2}}}
	a1 := b.Resolve(item)
	a2 := b.Resolve(item)
	if a1 != a2 {
		t.Fatalf("expected identical fingerprints for identical items")
	}
	other := PathItem{D: "M 0 0 L 2 2", Styles: item.Styles}
	if b.Resolve(other) == a1 {
		t.Fatalf("expected distinct fingerprints for distinct path data")
	}
}
