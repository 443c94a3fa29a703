package main

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	m := newMemoryCache()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	m.set(ctx, "short", "a", time.Minute)
	m.set(ctx, "forever", "b", 0)

	if v, ok, _ := m.get(ctx, "short"); !ok || v != "a" {
		t.Fatalf("get short = %q, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok, _ := m.get(ctx, "short"); ok {
		t.Error("short entry still present after ttl")
	}
	if v, ok, _ := m.get(ctx, "forever"); !ok || v != "b" {
		t.Errorf("get forever = %q, %v", v, ok)
	}
	if _, ok, _ := m.get(ctx, "missing"); ok {
		t.Error("missing key reported present")
	}
}

// TestMemoryCache_SetSweepsExpired verifies entries that are never read again
// are still dropped once they expire.
func TestMemoryCache_SetSweepsExpired(t *testing.T) {
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	m := newMemoryCache()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		m.set(ctx, key, "v", time.Minute)
	}
	m.set(ctx, "keep", "v", 0)
	if m.len() != 4 {
		t.Fatalf("len = %d, want 4", m.len())
	}

	// Within the sweep interval nothing is scanned.
	now = now.Add(30 * time.Second)
	m.set(ctx, "d", "v", time.Hour)
	if m.len() != 5 {
		t.Fatalf("len before sweep = %d, want 5", m.len())
	}

	now = now.Add(memoryCacheSweepInterval)
	m.set(ctx, "e", "v", time.Hour)
	if m.len() != 3 {
		t.Errorf("len after sweep = %d, want 3 (keep, d, e)", m.len())
	}
}
