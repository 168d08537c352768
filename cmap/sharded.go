package cmap

import "sync"

// shardBits selects the top bits of a 64-bit hash as the shard index,
// leaving the low bits for in-shard distribution.
const shardBits = 7
const numShards = 1 << shardBits

type plainShard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// Sharded is the coarser-grained variant used by the hot IR store: a fixed
// array of independent (rwlock, map) pairs. It halves contention relative to
// per-bucket locking at the cost of a coarser, per-shard resize (the
// underlying Go map grows on its own).
type Sharded[K comparable, V any] struct {
	shards [numShards]*plainShard[K, V]
	hash   func(K) uint64
}

// NewSharded creates a Sharded map using hash to both pick a shard (its top
// shardBits bits) and, within the shard's Go map, to place the key.
func NewSharded[K comparable, V any](hash func(K) uint64) *Sharded[K, V] {
	s := &Sharded[K, V]{hash: hash}
	for i := range s.shards {
		s.shards[i] = &plainShard[K, V]{m: make(map[K]V)}
	}
	return s
}

func (s *Sharded[K, V]) shardFor(k K) *plainShard[K, V] {
	h := s.hash(k)
	return s.shards[h>>57]
}

// Get looks up k.
func (s *Sharded[K, V]) Get(k K) (V, bool) {
	sh := s.shardFor(k)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[k]
	return v, ok
}

// Put stores (k, v).
func (s *Sharded[K, V]) Put(k K, v V) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	sh.m[k] = v
	sh.mu.Unlock()
}

// GetMut applies fn under the owning shard's write lock.
func (s *Sharded[K, V]) GetMut(k K, fn func(v *V)) bool {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	v, ok := sh.m[k]
	if !ok {
		return false
	}
	fn(&v)
	sh.m[k] = v
	return true
}

// GetOrPut returns the existing value for k, or stores and returns dflt if
// absent. The returned bool reports whether the value already existed.
func (s *Sharded[K, V]) GetOrPut(k K, dflt func() V) (V, bool) {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if v, ok := sh.m[k]; ok {
		return v, true
	}
	v := dflt()
	sh.m[k] = v
	return v, false
}

// Remove deletes k, returning whether it was present.
func (s *Sharded[K, V]) Remove(k K) bool {
	sh := s.shardFor(k)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.m[k]; !ok {
		return false
	}
	delete(sh.m, k)
	return true
}

// Contains reports whether k is present.
func (s *Sharded[K, V]) Contains(k K) bool {
	_, ok := s.Get(k)
	return ok
}

// Retain keeps only entries for which pred returns true, per shard.
func (s *Sharded[K, V]) Retain(pred func(K, V) bool) {
	for _, sh := range s.shards {
		sh.mu.Lock()
		for k, v := range sh.m {
			if !pred(k, v) {
				delete(sh.m, k)
			}
		}
		sh.mu.Unlock()
	}
}

// Range calls fn for every stored entry across all shards; iteration stops
// early if fn returns false.
func (s *Sharded[K, V]) Range(fn func(K, V) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.m {
			if !fn(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// Len returns the total number of stored entries across all shards.
func (s *Sharded[K, V]) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.m)
		sh.mu.RUnlock()
	}
	return total
}
