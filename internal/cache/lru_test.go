package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](2, time.Minute)
	c.Set(ctx, "a", 1)
	c.Set(ctx, "b", 2)
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("a should be present")
	}
	c.Set(ctx, "c", 3)

	if _, ok := c.Get(ctx, "b"); ok {
		t.Error("b was least recently used and should be evicted")
	}
	if v, ok := c.Get(ctx, "a"); !ok || v != 1 {
		t.Errorf("a = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d", c.Size())
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[string](10, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set(ctx, "k", "v")
	c.Set(ctx, "j", "w")
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expired entry returned")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("CleanExpired() = %d, want 1", removed)
	}
	if c.Size() != 0 {
		t.Fatalf("Size() = %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewLRUCache[int](10, time.Minute)
	c.Set(ctx, "summary:7:2025-03", 1)
	c.Set(ctx, "summary:7:2025-02", 2)
	c.Set(ctx, "summary:70:2025-03", 3)
	c.Set(ctx, "chart:7", 4)

	c.DeletePrefix(ctx, "summary:7:")
	c.Delete(ctx, "chart:7")

	if c.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", c.Size())
	}
	if _, ok := c.Get(ctx, "summary:70:2025-03"); !ok {
		t.Fatal("other user's entry must survive")
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	c := NewLRUCache[int](10, time.Millisecond)
	c.Set(context.Background(), "k", 1)

	m := NewManager()
	m.Register(c)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	deadline := time.Now().Add(time.Second)
	for c.Size() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Size() != 0 {
		t.Fatal("expired entry was not swept")
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	done := make(chan struct{})
	go func() {
		m.Stop()
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup loop")
	}
}
