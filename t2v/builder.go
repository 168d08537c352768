// Package t2v implements the Typst2Vec pass: a parallel, deduplicating
// traversal that lowers a laid-out doc.Document into a closed-world VecIR
// module, plus the content-addressed store and structural cache that give
// it its deduplication and incremental-rebuild properties.
package t2v

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"tsvr/cmap"
	"tsvr/fingerprint"
	"tsvr/glyph"
	"tsvr/vecir"
)

// itemEntry is a content-addressed store slot: the item plus the lifetime
// epoch it was last written or touched in.
type itemEntry struct {
	lifetime int64
	item     vecir.VecItem
}

// cacheEntry is a structural-cache slot: the resolved content fingerprint
// and item for a given upstream structural key, plus its lifetime.
type cacheEntry struct {
	lifetime int64
	content  fingerprint.Fingerprint
	item     vecir.VecItem
}

func fpHash(fp fingerprint.Fingerprint) uint64 { return fp.Hi ^ fp.Lo }

// Builder is the Typst2Vec pass's store: a content-addressed items table
// and a structural cache_items table, both sharded for lock-free-feeling
// concurrent access from parallel page/frame traversal.
type Builder struct {
	FB *fingerprint.Builder
	GB *glyph.Builder

	items      *cmap.Sharded[fingerprint.Fingerprint, itemEntry]
	cacheItems *cmap.Sharded[uint64, cacheEntry]
	blobs      *cmap.Sharded[fingerprint.Fingerprint, []byte]

	lifetime atomic.Int64

	newItemsMu sync.Mutex
	newItems   []fingerprint.Fingerprint

	// Exec handles image items whose Alt marker requests command
	// execution instead of ordinary decoding (doc.CommandEmbedAlt).
	Exec CommandExecutor
}

// CommandExecutor rewrites a best-effort image lowering for embedded
// commands; implementations live outside the core.
type CommandExecutor interface {
	Execute(data []byte) (vecir.VecItem, error)
}

// NewBuilder returns a Builder starting at the given lifetime epoch
// (typically 2; see package incremental for epoch management).
func NewBuilder(fb *fingerprint.Builder, gb *glyph.Builder, startLifetime int64) *Builder {
	b := &Builder{
		FB:         fb,
		GB:         gb,
		items:      cmap.NewSharded[fingerprint.Fingerprint, itemEntry](fpHash),
		cacheItems: cmap.NewSharded[uint64, cacheEntry](func(h uint64) uint64 { return h }),
		blobs:      cmap.NewSharded[fingerprint.Fingerprint, []byte](fpHash),
	}
	b.lifetime.Store(startLifetime)
	return b
}

// CurrentLifetime returns the active epoch counter.
func (b *Builder) CurrentLifetime() int64 { return b.lifetime.Load() }

// bumpLifetime advances the epoch by 2 (package incremental is the only
// caller in normal operation, via IncrementLifetime).
func (b *Builder) bumpLifetime() { b.lifetime.Add(2) }

// IncrementEpoch is bumpLifetime exported for package incremental.
func (b *Builder) IncrementEpoch() { b.bumpLifetime() }

func (b *Builder) enqueueNew(fp fingerprint.Fingerprint) {
	b.newItemsMu.Lock()
	b.newItems = append(b.newItems, fp)
	b.newItemsMu.Unlock()
}

// drainNewItems returns and clears the new-items queue.
func (b *Builder) drainNewItems() []fingerprint.Fingerprint {
	b.newItemsMu.Lock()
	out := b.newItems
	b.newItems = nil
	b.newItemsMu.Unlock()
	return out
}

// Store inserts item under its content fingerprint (computed via
// ResolveUnchecked, since freshly-built content is assumed not to recur
// verbatim and would only grow Resolve's unbounded cache) and returns that
// fingerprint. Storing an already-present fingerprint is idempotent: the
// entry's lifetime is touched (tagged lifetime-1) rather than overwritten,
// and the stored value is left byte-equal to whichever copy arrived first.
func (b *Builder) Store(item vecir.VecItem) fingerprint.Fingerprint {
	fp := b.FB.ResolveUnchecked(item)
	b.store(fp, item)
	return fp
}

func (b *Builder) store(fp fingerprint.Fingerprint, item vecir.VecItem) {
	touched := b.items.GetMut(fp, func(e *itemEntry) {
		e.lifetime = b.lifetime.Load() - 1
	})
	if touched {
		return
	}
	// First writer wins the race; a concurrent racing store for the same
	// fingerprint is fine since item content is determined entirely by fp.
	_, existed := b.items.GetOrPut(fp, func() itemEntry {
		return itemEntry{lifetime: b.lifetime.Load(), item: item}
	})
	if !existed {
		b.enqueueNew(fp)
	}
}

// StoreBlob records a raw asset (e.g. image bytes) under its content
// fingerprint, for later retrieval by the archive/bundle writer. Blobs are
// not VecItems and never appear in a Module's Items table.
func (b *Builder) StoreBlob(data []byte) fingerprint.Fingerprint {
	fp := fingerprint.Bytes(data)
	b.blobs.GetOrPut(fp, func() []byte { return data })
	return fp
}

// Blob retrieves a previously stored raw asset by fingerprint.
func (b *Builder) Blob(fp fingerprint.Fingerprint) ([]byte, bool) {
	return b.blobs.Get(fp)
}

// Get looks up a stored item by fingerprint.
func (b *Builder) Get(fp fingerprint.Fingerprint) (vecir.VecItem, bool) {
	e, ok := b.items.Get(fp)
	if !ok {
		return nil, false
	}
	return e.item, true
}

// structuralKey hashes a Hashable's canonical encoding for use as a
// cache_items lookup key. This is distinct from content fingerprinting: two
// structurally-identical upstream source items share a key even before
// either has been lowered, letting store_cached skip re-lowering entirely.
func structuralKey(key fingerprint.Hashable) uint64 {
	e := fingerprint.NewEncoder()
	key.EncodeStable(e)
	return xxhash.Sum64(e.Bytes())
}

// StoreCached implements store_cached: look up cache_items by the
// structural key's hash. On a hit, bump the cached entry's lifetime,
// re-insert its VecItem under its already-known content fingerprint (which
// also just touches that entry's lifetime), and return the fingerprint
// without calling build. On a miss, run build, store the result under a
// fresh content fingerprint, and populate both tables.
func (b *Builder) StoreCached(key fingerprint.Hashable, build func() vecir.VecItem) fingerprint.Fingerprint {
	hk := structuralKey(key)

	if e, ok := b.cacheItems.Get(hk); ok {
		b.cacheItems.GetMut(hk, func(c *cacheEntry) {
			c.lifetime = b.lifetime.Load() - 1
		})
		b.store(e.content, e.item)
		return e.content
	}

	item := build()
	fp := b.FB.ResolveUnchecked(item)
	b.store(fp, item)
	b.cacheItems.Put(hk, cacheEntry{lifetime: b.lifetime.Load(), content: fp, item: item})
	return fp
}

// Snapshot returns every stored (fingerprint, item) pair, for a
// non-incremental Finalize.
func (b *Builder) Snapshot() []vecir.ItemEntry {
	var out []vecir.ItemEntry
	b.items.Range(func(fp fingerprint.Fingerprint, e itemEntry) bool {
		out = append(out, vecir.ItemEntry{Fingerprint: fp, Item: e.item})
		return true
	})
	return out
}

// DeltaItems returns the items enqueued since the previous DeltaItems call
// (or since construction), for finalize_delta. IncrementEpoch does not
// clear the queue.
func (b *Builder) DeltaItems() []vecir.ItemEntry {
	fps := b.drainNewItemsPeek()
	out := make([]vecir.ItemEntry, 0, len(fps))
	for _, fp := range fps {
		if e, ok := b.items.Get(fp); ok {
			out = append(out, vecir.ItemEntry{Fingerprint: fp, Item: e.item})
		}
	}
	return out
}

// drainNewItemsPeek drains the queue; package incremental reaches it through
// DeltaItems, once per FinalizeDelta call.
func (b *Builder) drainNewItemsPeek() []fingerprint.Fingerprint {
	return b.drainNewItems()
}

// GCOlderThan evicts every items/cache_items entry whose lifetime is older
// than min, returning the evicted content fingerprints (items table only —
// cache_items entries are internal bookkeeping, not shipped as tombstones).
func (b *Builder) GCOlderThan(min int64) []fingerprint.Fingerprint {
	var evicted []fingerprint.Fingerprint
	b.items.Retain(func(fp fingerprint.Fingerprint, e itemEntry) bool {
		if e.lifetime < min {
			evicted = append(evicted, fp)
			return false
		}
		return true
	})
	b.cacheItems.Retain(func(_ uint64, e cacheEntry) bool {
		return e.lifetime >= min
	})
	return evicted
}
