package cache

import (
	"testing"
	"time"
)

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	now := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](size, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss on empty cache")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("got %q %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("overwrite failed, got %q", v)
	}
	if s := c.Stats(); s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should remain")
	}
	if c.Size() != 2 || c.Stats().Evictions != 1 {
		t.Fatalf("size=%d stats=%+v", c.Size(), c.Stats())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, now := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	*now = now.Add(2 * time.Minute)
	c.Set("c", "3")

	if n := c.CleanExpired(); n != 2 {
		t.Fatalf("cleaned %d, want 2", n)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("fresh entry removed")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("c"); ok {
		t.Fatal("expired entry returned")
	}
}

func TestLRUCachePurgeAndGeneration(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")

	gen := c.Generation()
	c.Purge()

	if c.Size() != 0 {
		t.Fatalf("purge left %d entries", c.Size())
	}
	if c.SetIfGeneration(gen, "stale", "x") {
		t.Fatal("stale generation should be rejected")
	}
	if !c.SetIfGeneration(c.Generation(), "fresh", "y") {
		t.Fatal("current generation should be accepted")
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry missing")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c, now := newTestCache(10, time.Second)
	c.Set("a", "1")
	*now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager(nil).Stop()
}
