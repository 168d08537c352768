// Package incremental drives the epoch/lifetime lifecycle over a t2v.Builder
// across repeated compilations, turning its store/cache primitives into the
// delta-shipment contract S2V/CompileActor consumers rely on: advance the
// epoch, collect what is new, evict what has gone stale.
package incremental

import (
	"context"

	"tsvr/doc"
	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/t2v"
	"tsvr/vecir"
)

// startLifetime is the epoch a fresh Builder starts at. GC thresholds are
// expressed relative to the current epoch, not to this one, so entries from
// the first epoch are collected like any other once they age past the
// threshold.
const startLifetime = 2

// Builder wraps a t2v.Builder with epoch management for incremental,
// across-compilation use. A single Builder is meant to live for the
// lifetime of one document's compile session.
type Builder struct {
	T2V *t2v.Builder
}

// New returns a fresh incremental Builder at the initial epoch.
func New() *Builder {
	return &Builder{
		T2V: t2v.NewBuilder(fingerprint.New(), glyph.NewBuilder(), startLifetime),
	}
}

// Lower runs one compile pass over d, populating/reusing the builder's
// stores. Call IncrementLifetime after consuming the returned Module's delta
// (or the whole Module, on the first pass) to advance to the next epoch.
func (b *Builder) Lower(ctx context.Context, d doc.Document) (*vecir.Module, error) {
	return b.T2V.LowerDocument(ctx, d)
}

// IncrementLifetime advances the builder to its next epoch: the lifetime
// counter moves forward by 2, and the glyph builder's incremental bases are
// not touched here (FinalizeDelta below drains them in the same call that
// drains new items, so both stay in lockstep with the same delta).
func (b *Builder) IncrementLifetime() {
	b.T2V.IncrementEpoch()
}

// GC evicts every stored item whose lifetime is older than the current
// epoch minus threshold, returning their fingerprints as tombstones for
// downstream consumers (e.g. a GarbageCollection wire record).
func (b *Builder) GC(threshold int64) []fingerprint.Fingerprint {
	min := b.T2V.CurrentLifetime() - threshold
	return b.T2V.GCOlderThan(min)
}

// Delta is one epoch's worth of newly stored IR: items plus the fonts/glyphs
// they reference that have not shipped before.
type Delta struct {
	Items  []vecir.ItemEntry
	Fonts  []glyph.Font
	Glyphs []glyph.Entry
}

// FinalizeDelta drains the new-items queue and the glyph builder's
// incremental tables together, so a delta is always self-contained: every
// font/glyph a delta's items reference either shipped in an earlier delta or
// ships in this one.
func (b *Builder) FinalizeDelta() Delta {
	items := b.T2V.DeltaItems()
	fonts, glyphs := b.T2V.GB.FinalizeDelta()
	return Delta{Items: items, Fonts: fonts, Glyphs: glyphs}
}
