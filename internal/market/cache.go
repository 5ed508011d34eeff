package market

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	runtimeCacheCapacity = 50
	runtimeCacheIdle     = 10 * time.Minute
)

// RuntimeCache maps a shop's runtime id to the shop for fast reverse lookup.
// Bounded by capacity with least-recently-accessed eviction, plus an idle
// expiry checked on access. Eviction is deterministic so it can be tested;
// callers fall back to scanning the loaded set on a miss.
type RuntimeCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*list.Element
	order   *list.List // front = most recently accessed
	cap     int
	idle    time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	id       uuid.UUID
	shop     *Shop
	accessed time.Time
}

func NewRuntimeCache() *RuntimeCache {
	return &RuntimeCache{
		entries: map[uuid.UUID]*list.Element{},
		order:   list.New(),
		cap:     runtimeCacheCapacity,
		idle:    runtimeCacheIdle,
		now:     time.Now,
	}
}

func (c *RuntimeCache) Put(id uuid.UUID, shop *Shop) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		e := el.Value.(*cacheEntry)
		e.shop = shop
		e.accessed = c.now()
		c.order.MoveToFront(el)
		return
	}
	el := c.order.PushFront(&cacheEntry{id: id, shop: shop, accessed: c.now()})
	c.entries[id] = el
	for len(c.entries) > c.cap {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Get returns the cached shop, or nil on miss. An entry idle past the expiry
// window counts as a miss and is dropped. includeInvalid=false filters shops
// that fail their liveness check even if still cached.
func (c *RuntimeCache) Get(id uuid.UUID, includeInvalid bool) *Shop {
	c.mu.Lock()
	el, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	e := el.Value.(*cacheEntry)
	if c.now().Sub(e.accessed) > c.idle {
		c.removeLocked(el)
		c.mu.Unlock()
		return nil
	}
	e.accessed = c.now()
	c.order.MoveToFront(el)
	shop := e.shop
	c.mu.Unlock()

	if includeInvalid {
		return shop
	}
	if shop.Valid() {
		return shop
	}
	return nil
}

func (c *RuntimeCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		c.removeLocked(el)
	}
}

func (c *RuntimeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *RuntimeCache) removeLocked(el *list.Element) {
	e := el.Value.(*cacheEntry)
	c.order.Remove(el)
	delete(c.entries, e.id)
}
