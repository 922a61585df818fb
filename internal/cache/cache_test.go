package cache_test

import (
	"testing"
	"time"

	"glowshop/internal/cache"
)

func TestGetWithinTTLReturnsPayloadUnchanged(t *testing.T) {
	m := cache.NewManager()
	want := []string{"MAC", "Chanel"}
	m.Set("brands", want, 300*time.Millisecond)

	got, ok := m.Get("brands")
	if !ok {
		t.Fatal("expected hit right after set")
	}
	names, ok := got.([]string)
	if !ok || len(names) != 2 || names[0] != "MAC" || names[1] != "Chanel" {
		t.Fatalf("payload changed: %#v", got)
	}
}

func TestGetAfterTTLPurgesEntry(t *testing.T) {
	m := cache.NewManager()
	m.Set("products_raw", 42, 10*time.Millisecond)
	if m.Stats().Total != 1 {
		t.Fatalf("want 1 entry, got %+v", m.Stats())
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := m.Get("products_raw"); ok {
		t.Fatal("expected miss after ttl elapsed")
	}
	if m.Stats().Total != 0 {
		t.Fatalf("expired entry not purged: %+v", m.Stats())
	}
}

func TestSetOverwritesExistingEntry(t *testing.T) {
	m := cache.NewManager()
	m.Set("k", "old", time.Minute)
	m.Set("k", "new", time.Minute)
	got, _ := m.Get("k")
	if got != "new" {
		t.Fatalf("want new, got %v", got)
	}
	if m.Stats().Total != 1 {
		t.Fatalf("overwrite should not grow the store: %+v", m.Stats())
	}
}

func TestInvalidateRemovesOnlyMatchingPrefix(t *testing.T) {
	m := cache.NewManager()
	m.Set("products_raw", 1, time.Minute)
	m.Set("products_by_category", 2, time.Minute)
	m.Set("brands", 3, time.Minute)

	if n := m.Invalidate("products"); n != 2 {
		t.Fatalf("want 2 removed, got %d", n)
	}
	if _, ok := m.Get("brands"); !ok {
		t.Fatal("unrelated key was removed")
	}
	if _, ok := m.Get("products_raw"); ok {
		t.Fatal("prefixed key survived invalidation")
	}
}

func TestClearReportsWhetherAnythingRemoved(t *testing.T) {
	m := cache.NewManager()
	if m.Clear() {
		t.Fatal("clear on empty store should report false")
	}
	m.Set("k", 1, time.Minute)
	if !m.Clear() {
		t.Fatal("clear should report true when entries existed")
	}
	if m.Stats().Total != 0 {
		t.Fatalf("store not empty after clear: %+v", m.Stats())
	}
}

// Scenario: an entry set with a long ttl survives an immediate sweep, then
// gets removed once its ttl has elapsed.
func TestCleanupSweepsOnlyExpired(t *testing.T) {
	m := cache.NewManager()
	m.Set("brands", []int{1, 2, 3}, 5*time.Minute)
	m.Set("filtered_products_x", "stale", 5*time.Millisecond)

	time.Sleep(1 * time.Millisecond)
	m.Cleanup()
	if _, ok := m.Get("brands"); !ok {
		t.Fatal("fresh entry removed by sweep")
	}

	time.Sleep(10 * time.Millisecond)
	if !m.Cleanup() {
		t.Fatal("sweep should report removal of expired entry")
	}
	if m.Stats().Total != 1 {
		t.Fatalf("want only brands left, got %+v", m.Stats())
	}
}

func TestGenerateKeyDeterministic(t *testing.T) {
	m := cache.NewManager()
	type params struct {
		Brand string
		Min   float64
	}
	a := m.GenerateKey("filtered_products", params{Brand: "MAC", Min: 10})
	b := m.GenerateKey("filtered_products", params{Brand: "MAC", Min: 10})
	if a != b {
		t.Fatalf("same params must derive same key: %q vs %q", a, b)
	}
	c := m.GenerateKey("filtered_products", params{Brand: "Chanel", Min: 10})
	if a == c {
		t.Fatal("different params must derive different keys")
	}
	if m.GenerateKey("brands", nil) != "brands" {
		t.Fatal("nil params should yield bare prefix")
	}
}

func TestGenerateKeyFallbackIsNeverCacheable(t *testing.T) {
	m := cache.NewManager()
	// Channels cannot be JSON-encoded, forcing the timestamp fallback.
	k1 := m.GenerateKey("filtered_products", make(chan int))
	time.Sleep(time.Millisecond)
	k2 := m.GenerateKey("filtered_products", make(chan int))
	if k1 == k2 {
		t.Fatal("fallback keys must not collide, they exist to always miss")
	}
}
