// Package cmap implements a concurrent, open-addressed hash map with
// per-bucket reader/writer locks, and a coarser sharded variant for
// higher-throughput hot paths. Lock ordering is fixed throughout: the
// map-level lock is always acquired before any bucket lock, never the
// reverse.
package cmap

import (
	"sync"
	"sync/atomic"
)

const (
	minBuckets         = 8
	maxLoadFactorNum   = 85
	maxLoadFactorDenom = 100
)

type bucketState int

const (
	stateEmpty bucketState = iota
	stateRemoved
	stateContains
)

type bucket[K comparable, V any] struct {
	mu    sync.RWMutex
	state bucketState
	key   K
	val   V
}

// Map is a fixed vector of lock-protected buckets, resized under a global
// write lock when the load factor ceiling is crossed.
type Map[K comparable, V any] struct {
	mu      sync.RWMutex // map-level lock: read for normal ops, write for resize/clear
	buckets []*bucket[K, V]
	length  atomic.Int64
	hash    func(K) uint64
}

// New creates an empty Map using hash to place keys.
func New[K comparable, V any](hash func(K) uint64) *Map[K, V] {
	m := &Map[K, V]{hash: hash}
	m.buckets = newBuckets[K, V](minBuckets)
	return m
}

func newBuckets[K comparable, V any](n int) []*bucket[K, V] {
	bs := make([]*bucket[K, V], n)
	for i := range bs {
		bs[i] = &bucket[K, V]{state: stateEmpty}
	}
	return bs
}

func capacityFor(needed int) int {
	cap := needed*maxLoadFactorDenom/maxLoadFactorNum + 1
	if cap < minBuckets {
		cap = minBuckets
	}
	return cap
}

// Len returns the current number of stored entries.
func (m *Map[K, V]) Len() int {
	return int(m.length.Load())
}

// Get looks up k, returning its value and whether it was found.
func (m *Map[K, V]) Get(k K) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, found := m.probeFind(k)
	if !found {
		var zero V
		return zero, false
	}
	b.mu.RLock()
	v := b.val
	b.mu.RUnlock()
	return v, true
}

// Contains reports whether k is present.
func (m *Map[K, V]) Contains(k K) bool {
	_, ok := m.Get(k)
	return ok
}

// GetMut applies fn to the stored value for k under the bucket's write lock,
// returning false if k is absent. This is the scoped-mutation substitute for
// a pinned write handle: the lock is held only for the duration of fn.
func (m *Map[K, V]) GetMut(k K, fn func(v *V)) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, found := m.probeFind(k)
	if !found {
		return false
	}
	b.mu.Lock()
	fn(&b.val)
	b.mu.Unlock()
	return true
}

// probeFind walks from k's home bucket, wrapping around, stopping at the
// first Empty bucket (Removed buckets must be traversed, not stopped at).
// Caller must hold at least the map read lock.
func (m *Map[K, V]) probeFind(k K) (*bucket[K, V], bool) {
	n := len(m.buckets)
	home := int(m.hash(k) % uint64(n))
	for i := 0; i < n; i++ {
		idx := (home + i) % n
		b := m.buckets[idx]
		b.mu.RLock()
		switch b.state {
		case stateEmpty:
			b.mu.RUnlock()
			return nil, false
		case stateContains:
			if b.key == k {
				b.mu.RUnlock()
				return b, true
			}
		}
		b.mu.RUnlock()
	}
	return nil, false
}

// Put stores (k, v), overwriting any prior value for k. Put never fails.
func (m *Map[K, V]) Put(k K, v V) {
	m.mu.RLock()
	grew := m.insertLocked(k, v)
	m.mu.RUnlock()

	if grew {
		m.maybeResize()
	}
}

// insertLocked performs the probe-and-place under an already-held map read
// lock, returning true if the map grew by one entry (so the caller should
// check the load factor afterwards).
func (m *Map[K, V]) insertLocked(k K, v V) bool {
	n := len(m.buckets)
	home := int(m.hash(k) % uint64(n))
	var firstFree *bucket[K, V]

	for i := 0; i < n; i++ {
		idx := (home + i) % n
		b := m.buckets[idx]

		b.mu.Lock()
		switch b.state {
		case stateContains:
			if b.key == k {
				b.val = v
				b.mu.Unlock()
				return false
			}
			b.mu.Unlock()
			continue
		case stateRemoved:
			if firstFree == nil {
				firstFree = b
				b.mu.Unlock()
				continue
			}
			b.mu.Unlock()
			continue
		case stateEmpty:
			target := b
			if firstFree != nil {
				b.mu.Unlock()
				target = firstFree
				target.mu.Lock()
			}
			target.state = stateContains
			target.key = k
			target.val = v
			target.mu.Unlock()
			m.length.Add(1)
			return true
		}
	}
	// Table was full despite load-factor bookkeeping; place in the first
	// free (removed) slot found during the scan.
	if firstFree != nil {
		firstFree.mu.Lock()
		firstFree.state = stateContains
		firstFree.key = k
		firstFree.val = v
		firstFree.mu.Unlock()
		m.length.Add(1)
		return true
	}
	panic("cmap: table full, resize policy invariant violated")
}

func (m *Map[K, V]) maybeResize() {
	m.mu.RLock()
	n := len(m.buckets)
	l := int(m.length.Load())
	needResize := l*maxLoadFactorDenom > n*maxLoadFactorNum
	m.mu.RUnlock()

	if needResize {
		m.Reserve(1)
	}
}

// Remove deletes k if present, returning whether it was found.
func (m *Map[K, V]) Remove(k K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, found := m.probeFind(k)
	if !found {
		return false
	}
	b.mu.Lock()
	if b.state == stateContains && b.key == k {
		var zero V
		b.state = stateRemoved
		b.val = zero
		b.mu.Unlock()
		m.length.Add(-1)
		return true
	}
	b.mu.Unlock()
	return false
}

// Retain keeps only entries for which pred returns true, evicting the rest.
// Implementations may choose either a read- or write-held retain as long as
// per-shard consistency holds (spec leaves this open); this one takes the
// map write lock for the duration, trading a little concurrency for a
// straightforward, obviously-correct implementation.
func (m *Map[K, V]) Retain(pred func(K, V) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, b := range m.buckets {
		b.mu.Lock()
		if b.state == stateContains && !pred(b.key, b.val) {
			var zero V
			b.state = stateRemoved
			b.val = zero
			m.length.Add(-1)
		}
		b.mu.Unlock()
	}
}

// Range calls fn for every stored entry; iteration stops early if fn returns
// false. Readers may observe either side of a concurrent write but never a
// torn value.
func (m *Map[K, V]) Range(fn func(K, V) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, b := range m.buckets {
		b.mu.RLock()
		if b.state == stateContains {
			k, v := b.key, b.val
			b.mu.RUnlock()
			if !fn(k, v) {
				return
			}
			continue
		}
		b.mu.RUnlock()
	}
}

// Clear empties the map.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buckets = newBuckets[K, V](minBuckets)
	m.length.Store(0)
}

// Reserve grows the table so it can hold at least Len()+n entries without
// another resize, per the `(len + n) · 2` policy.
func (m *Map[K, V]) Reserve(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target := (int(m.length.Load()) + n) * 2
	newCap := capacityFor(target)
	if newCap <= len(m.buckets) {
		return
	}
	m.resizeLocked(newCap)
}

// resizeLocked reallocates the bucket array and re-inserts every Contains
// entry by probing (the key's hash is recomputed; no new hash function is
// introduced). Caller must hold the map write lock.
func (m *Map[K, V]) resizeLocked(newCap int) {
	old := m.buckets
	m.buckets = newBuckets[K, V](newCap)

	for _, b := range old {
		b.mu.RLock()
		if b.state == stateContains {
			k, v := b.key, b.val
			b.mu.RUnlock()
			m.reinsertLocked(k, v)
			continue
		}
		b.mu.RUnlock()
	}
}

// reinsertLocked places (k, v) into m.buckets without touching m.length;
// used only by resizeLocked, where the count is already correct.
func (m *Map[K, V]) reinsertLocked(k K, v V) {
	n := len(m.buckets)
	home := int(m.hash(k) % uint64(n))
	for i := 0; i < n; i++ {
		idx := (home + i) % n
		b := m.buckets[idx]
		if b.state == stateEmpty {
			b.state = stateContains
			b.key = k
			b.val = v
			return
		}
	}
	panic("cmap: resize target undersized")
}
