package cache

import (
	"testing"
	"time"
)

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	now := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](size, ttl)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCacheGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("transactions", "a")
	if got, ok := c.Get("transactions"); !ok || got != "a" {
		t.Fatalf("Get = %q, %v", got, ok)
	}
	c.Set("transactions", "b")
	if got, _ := c.Get("transactions"); got != "b" {
		t.Errorf("overwrite = %q", got)
	}
	if c.Size() != 1 {
		t.Errorf("Size = %d", c.Size())
	}
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")
	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was recently used and should survive")
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c, now := newTestCache(4, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	*now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size = %d after cleanup", c.Size())
	}
}

func TestLRUCacheDeleteAndClear(t *testing.T) {
	c, _ := newTestCache(4, time.Minute)
	c.Set("transactions", "x")
	c.Set("categories", "y")
	c.Delete("transactions")
	if _, ok := c.Get("transactions"); ok {
		t.Error("deleted key still present")
	}
	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d", c.Size())
	}
}

func TestLRUCacheDisabled(t *testing.T) {
	c, _ := newTestCache(4, 0)
	c.Set("a", "1")
	if _, ok := c.Get("a"); ok {
		t.Error("zero TTL must disable caching")
	}
}

func TestManagerCleanNow(t *testing.T) {
	c, now := newTestCache(4, time.Second)
	c.Set("a", "1")
	*now = now.Add(time.Hour)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanNow(); n != 1 {
		t.Errorf("CleanNow = %d, want 1", n)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
