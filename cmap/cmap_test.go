package cmap

import (
	"fmt"
	"sync"
	"testing"
)

func hashInt(k int) uint64 { return uint64(k) * 2654435761 }

func TestPutGetRemove(t *testing.T) {
	m := New[int, string](hashInt)
	m.Put(1, "one")
	m.Put(2, "two")

	if v, ok := m.Get(1); !ok || v != "one" {
		t.Fatalf("expected one, got %v, %v", v, ok)
	}
	if !m.Remove(1) {
		t.Fatalf("expected remove to succeed")
	}
	if _, ok := m.Get(1); ok {
		t.Fatalf("expected key gone after remove")
	}
	// Removed slots must still let probes find keys placed behind them.
	m.Put(3, "three")
	if v, ok := m.Get(2); !ok || v != "two" {
		t.Fatalf("expected two still findable, got %v %v", v, ok)
	}
}

func TestIdempotentInsert(t *testing.T) {
	m := New[int, string](hashInt)
	for i := 0; i < 5; i++ {
		m.Put(42, "v")
	}
	if m.Len() != 1 {
		t.Fatalf("expected len 1 after repeated insert of same key, got %d", m.Len())
	}
}

func TestResizeKeepsAllKeysFindable(t *testing.T) {
	m := New[int, int](hashInt)
	const n = 5000
	for i := 0; i < n; i++ {
		m.Put(i, i*i)
	}
	if m.Len() != n {
		t.Fatalf("expected %d entries, got %d", n, m.Len())
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(i)
		if !ok || v != i*i {
			t.Fatalf("key %d not found correctly after resizes: %v %v", i, v, ok)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int, int](hashInt)
	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := base*500 + i
				m.Put(k, k)
			}
		}(w)
	}
	wg.Wait()
	if m.Len() != 16*500 {
		t.Fatalf("expected %d, got %d", 16*500, m.Len())
	}
}

func TestRetain(t *testing.T) {
	m := New[int, int](hashInt)
	for i := 0; i < 100; i++ {
		m.Put(i, i)
	}
	m.Retain(func(k, v int) bool { return k%2 == 0 })
	if m.Len() != 50 {
		t.Fatalf("expected 50 even entries, got %d", m.Len())
	}
	m.Range(func(k, v int) bool {
		if k%2 != 0 {
			t.Fatalf("odd key %d survived retain", k)
		}
		return true
	})
}

func TestShardedBasic(t *testing.T) {
	s := NewSharded[int, string](hashInt)
	s.Put(7, "seven")
	if v, ok := s.Get(7); !ok || v != "seven" {
		t.Fatalf("got %v %v", v, ok)
	}
	if !s.Remove(7) {
		t.Fatalf("expected removal")
	}
	if s.Contains(7) {
		t.Fatalf("expected absent after remove")
	}
}

func TestShardedConcurrent(t *testing.T) {
	s := NewSharded[string, int](func(k string) uint64 {
		var h uint64 = 14695981039346656037
		for i := 0; i < len(k); i++ {
			h ^= uint64(k[i])
			h *= 1099511628211
		}
		return h
	})
	var wg sync.WaitGroup
	for i := 0; i < 2000; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Put(fmt.Sprintf("k-%d", i), i)
		}(i)
	}
	wg.Wait()
	if s.Len() != 2000 {
		t.Fatalf("expected 2000, got %d", s.Len())
	}
}
