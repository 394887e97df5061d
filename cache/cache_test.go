package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"scholarmate/cache"
)

func TestMemorySetGetDelete(t *testing.T) {
	mem := cache.NewMemory()
	ctx := context.Background()

	if _, err := mem.Get(ctx, "missing"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("missing key = %v, want ErrNotFound", err)
	}

	if err := mem.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := mem.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	if err := mem.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := mem.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("deleted key = %v, want ErrNotFound", err)
	}
}

func TestMemoryExpiry(t *testing.T) {
	now := time.Now()
	mem := cache.NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := mem.Set(ctx, "k", "v", 60*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := mem.Get(ctx, "k"); err != nil {
		t.Fatalf("key expired too early: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := mem.Get(ctx, "k"); !errors.Is(err, cache.ErrNotFound) {
		t.Errorf("expired key = %v, want ErrNotFound", err)
	}
}

func TestMemoryOverwriteResetsTTL(t *testing.T) {
	now := time.Now()
	mem := cache.NewMemoryWithClock(func() time.Time { return now })
	ctx := context.Background()

	mem.Set(ctx, "k", "old", 10*time.Second)
	now = now.Add(9 * time.Second)
	mem.Set(ctx, "k", "new", 10*time.Second)
	now = now.Add(5 * time.Second)

	got, err := mem.Get(ctx, "k")
	if err != nil || got != "new" {
		t.Fatalf("Get = %q, %v, want refreshed value", got, err)
	}
}
