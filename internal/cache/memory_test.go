package cache

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestMemoryCacheSetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, time.Minute)

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get(ctx, "k"); !ok || got != "v" {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	if err := c.Set(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get(ctx, "k"); got != "v2" {
		t.Fatalf("overwrite gave %q", got)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestMemoryCacheTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(10, 10*time.Millisecond)

	if err := c.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected expired entry to miss")
	}
	if n := c.CleanExpired(); n != 0 {
		// the Get above already dropped it
		t.Fatalf("CleanExpired removed %d entries after lazy eviction", n)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(3, time.Minute)

	for i := 0; i < 4; i++ {
		if err := c.Set(ctx, "k"+strconv.Itoa(i), "v"); err != nil {
			t.Fatal(err)
		}
	}
	if c.Size() != 3 {
		t.Fatalf("size = %d, want 3", c.Size())
	}
	if _, ok := c.Get(ctx, "k0"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := c.Get(ctx, "k3"); !ok {
		t.Fatal("newest entry missing")
	}
}
