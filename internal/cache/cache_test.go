package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGetDelete(t *testing.T) {
	c := NewTTLCache[[]string](time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set("u1:entrada", []string{"a", "b"})
	got, ok := c.Get("u1:entrada")
	if !ok || len(got) != 2 {
		t.Fatalf("expected hit with 2 items, got %v (ok=%v)", got, ok)
	}
	if c.Size() != 1 {
		t.Fatalf("size = %d, want 1", c.Size())
	}

	c.Delete("u1:entrada")
	if _, ok := c.Get("u1:entrada"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[int](20 * time.Millisecond)
	c.Set("k", 7)
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestTTLCacheDefaultTTL(t *testing.T) {
	c := NewTTLCache[int](0)
	c.Set("k", 1)
	if v, ok := c.Get("k"); !ok || v != 1 {
		t.Fatalf("got %v (ok=%v)", v, ok)
	}
}

func TestTTLCacheFlush(t *testing.T) {
	c := NewTTLCache[int](time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()
	if c.Size() != 0 {
		t.Fatalf("size after flush = %d", c.Size())
	}
}
