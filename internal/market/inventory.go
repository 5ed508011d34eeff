package market

import (
	"fmt"
	"sync"
)

// Inventory is the external container collaborator. Implementations own slot
// mechanics; the core only counts, adds and removes whole item bundles.
type Inventory interface {
	// CountItems returns how many single items matching the signature are held.
	CountItems(item Item) int
	// CountSpace returns how many more matching single items would fit.
	CountSpace(item Item) int
	Add(item Item, n int) error
	Remove(item Item, n int) error
	// Valid is the liveness check: false once the underlying container is gone.
	Valid() bool
}

type invKey struct {
	id   string
	meta string
}

// BasicInventory is a map-backed Inventory with an optional total-item
// capacity. It backs the standalone server's containers and the tests.
type BasicInventory struct {
	mu       sync.Mutex
	items    map[invKey]int
	capacity int // total items; -1 = unbounded
	dead     bool
}

func NewBasicInventory(capacity int) *BasicInventory {
	return &BasicInventory{
		items:    map[invKey]int{},
		capacity: capacity,
	}
}

func (b *BasicInventory) CountItems(item Item) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.items[invKey{item.ID, item.Meta}]
}

func (b *BasicInventory) CountSpace(item Item) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.capacity < 0 {
		return int(^uint(0) >> 1)
	}
	total := 0
	for _, n := range b.items {
		total += n
	}
	space := b.capacity - total
	if space < 0 {
		return 0
	}
	return space
}

func (b *BasicInventory) Add(item Item, n int) error {
	if n < 0 {
		return fmt.Errorf("add %d: negative count", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dead {
		return fmt.Errorf("container destroyed")
	}
	if b.capacity >= 0 {
		total := 0
		for _, c := range b.items {
			total += c
		}
		if total+n > b.capacity {
			return fmt.Errorf("add %d: only %d space left", n, b.capacity-total)
		}
	}
	b.items[invKey{item.ID, item.Meta}] += n
	return nil
}

func (b *BasicInventory) Remove(item Item, n int) error {
	if n < 0 {
		return fmt.Errorf("remove %d: negative count", n)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dead {
		return fmt.Errorf("container destroyed")
	}
	k := invKey{item.ID, item.Meta}
	if b.items[k] < n {
		return fmt.Errorf("remove %d %s: only %d held", n, item.ID, b.items[k])
	}
	b.items[k] -= n
	if b.items[k] == 0 {
		delete(b.items, k)
	}
	return nil
}

func (b *BasicInventory) Valid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.dead
}

// Destroy marks the container gone; all further mutation fails.
func (b *BasicInventory) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dead = true
}
