package cache

import (
	"fmt"
	"sync/atomic"
)

// Memo caches derived views. A key combines the collection version, the
// canonical filter key and the calendar day, so a new snapshot or a new
// day never serves a stale view.
type Memo[T any] struct {
	cache  Cache[T]
	hits   atomic.Int64
	misses atomic.Int64
}

func NewMemo[T any](c Cache[T]) *Memo[T] {
	return &Memo[T]{cache: c}
}

// MemoKey builds the lookup key for a derivation.
func MemoKey(version uint64, specKey, day string) string {
	return fmt.Sprintf("%d|%s|%s", version, day, specKey)
}

// Get returns the cached value for key or computes and stores it.
func (m *Memo[T]) Get(key string, compute func() T) T {
	if v, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return v
	}
	m.misses.Add(1)
	v := compute()
	m.cache.Set(key, v)
	return v
}

// Reset drops every memoized view.
func (m *Memo[T]) Reset() { m.cache.Purge() }

// Stats returns the hit and miss counters.
func (m *Memo[T]) Stats() (hits, misses int64) {
	return m.hits.Load(), m.misses.Load()
}
