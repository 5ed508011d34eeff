package market

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRuntimeCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewRuntimeCache()
	shops := make([]*Shop, runtimeCacheCapacity+1)
	for i := range shops {
		shops[i] = testShop("world", i, 64, 0)
	}

	for i := 0; i < runtimeCacheCapacity; i++ {
		c.Put(shops[i].RuntimeID(), shops[i])
	}
	// Touch the oldest so it becomes most recent.
	if c.Get(shops[0].RuntimeID(), true) == nil {
		t.Fatalf("expected shops[0] cached")
	}

	// Inserting one more evicts the now-oldest entry, shops[1].
	c.Put(shops[runtimeCacheCapacity].RuntimeID(), shops[runtimeCacheCapacity])
	if c.Len() != runtimeCacheCapacity {
		t.Fatalf("len = %d, want %d", c.Len(), runtimeCacheCapacity)
	}
	if c.Get(shops[1].RuntimeID(), true) != nil {
		t.Fatalf("shops[1] should have been evicted")
	}
	if c.Get(shops[0].RuntimeID(), true) == nil {
		t.Fatalf("recently touched shops[0] should survive")
	}
}

func TestRuntimeCache_IdleExpiry(t *testing.T) {
	c := NewRuntimeCache()
	now := time.Now()
	c.now = func() time.Time { return now }

	s := testShop("world", 0, 64, 0)
	c.Put(s.RuntimeID(), s)

	now = now.Add(runtimeCacheIdle - time.Second)
	if c.Get(s.RuntimeID(), true) == nil {
		t.Fatalf("entry expired before the idle window")
	}

	// The Get above refreshed the access time.
	now = now.Add(runtimeCacheIdle + time.Second)
	if c.Get(s.RuntimeID(), true) != nil {
		t.Fatalf("entry should have expired")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry still counted, len = %d", c.Len())
	}
}

func TestRuntimeCache_InvalidFilter(t *testing.T) {
	c := NewRuntimeCache()
	inv := NewBasicInventory(-1)
	s := NewShop(BlockPos{World: "world"}, uuid.New(), 10, Item{ID: "minecraft:dirt", Amount: 1}, Selling, inv)
	c.Put(s.RuntimeID(), s)

	inv.Destroy()
	if c.Get(s.RuntimeID(), false) != nil {
		t.Fatalf("invalid shop returned with includeInvalid=false")
	}
	if c.Get(s.RuntimeID(), true) != s {
		t.Fatalf("invalid shop not returned with includeInvalid=true")
	}
}

func TestRuntimeCache_Remove(t *testing.T) {
	c := NewRuntimeCache()
	s := testShop("world", 0, 64, 0)
	c.Put(s.RuntimeID(), s)
	c.Remove(s.RuntimeID())
	if c.Get(s.RuntimeID(), true) != nil {
		t.Fatalf("removed entry still cached")
	}
	// Removing twice is fine.
	c.Remove(s.RuntimeID())
}
