package cache

import (
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "v")
	c.Set("other", "v")
	now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("entry expired too early")
	}
	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("entry should be expired")
	}
	if c.Size() != 1 {
		t.Fatalf("expired entry should be dropped on read, size = %d", c.Size())
	}
}

func TestMemo(t *testing.T) {
	memo := NewMemo[[]string](NewLRUCache[[]string](8, 0))
	calls := 0
	compute := func() []string { calls++; return []string{"x"} }

	k1 := MemoKey(1, "spec", "2026-01-01")
	memo.Get(k1, compute)
	memo.Get(k1, compute)
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}

	memo.Get(MemoKey(2, "spec", "2026-01-01"), compute)
	memo.Get(MemoKey(2, "spec", "2026-01-02"), compute)
	if calls != 3 {
		t.Fatalf("new version or day must recompute, got %d calls", calls)
	}

	hits, misses := memo.Stats()
	if hits != 1 || misses != 3 {
		t.Fatalf("stats = %d/%d", hits, misses)
	}

	memo.Reset()
	memo.Get(k1, compute)
	if calls != 4 {
		t.Fatalf("reset must drop entries")
	}
}
