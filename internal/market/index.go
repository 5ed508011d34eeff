package market

import "sync"

// Index is the authoritative in-memory shop directory: a three-level
// concurrent map world -> chunk -> position -> shop. Every level is safe for
// concurrent reads against single-writer mutation; compound check-then-insert
// is NOT atomic, so creation must be serialized on the coordinator.
type Index struct {
	worlds sync.Map // world id -> *worldShops
}

type worldShops struct {
	chunks sync.Map // ChunkKey -> *ChunkShops
}

// ChunkShops is the per-chunk position map. It is live: readers may observe
// mutations that happen during a Range.
type ChunkShops struct {
	byPos sync.Map // BlockPos -> *Shop
}

func NewIndex() *Index {
	return &Index{}
}

// Register inserts the shop at its stored position, lazily creating the world
// and chunk levels. A later registration at the same position wins.
func (ix *Index) Register(shop *Shop) {
	wv, _ := ix.worlds.LoadOrStore(shop.Pos.World, &worldShops{})
	w := wv.(*worldShops)
	cv, _ := w.chunks.LoadOrStore(ChunkOf(shop.Pos), &ChunkShops{})
	cv.(*ChunkShops).byPos.Store(shop.Pos, shop)
}

// Remove deletes the shop's position entry. Empty chunk and world levels are
// left in place; they are cheap and avoid a delete/create race with readers.
func (ix *Index) Remove(shop *Shop) {
	wv, ok := ix.worlds.Load(shop.Pos.World)
	if !ok {
		return
	}
	cv, ok := wv.(*worldShops).chunks.Load(ChunkOf(shop.Pos))
	if !ok {
		return
	}
	cv.(*ChunkShops).byPos.Delete(shop.Pos)
}

// Lookup returns the shop at the exact position, or nil. Safe from any
// goroutine.
func (ix *Index) Lookup(pos BlockPos) *Shop {
	wv, ok := ix.worlds.Load(pos.World)
	if !ok {
		return nil
	}
	cv, ok := wv.(*worldShops).chunks.Load(ChunkOf(pos))
	if !ok {
		return nil
	}
	sv, ok := cv.(*ChunkShops).byPos.Load(pos)
	if !ok {
		return nil
	}
	return sv.(*Shop)
}

// Chunk returns the live position map for a chunk, or nil if the bucket was
// never created.
func (ix *Index) Chunk(world string, chunkX, chunkZ int) *ChunkShops {
	wv, ok := ix.worlds.Load(world)
	if !ok {
		return nil
	}
	cv, ok := wv.(*worldShops).chunks.Load(ChunkKey{World: world, X: chunkX, Z: chunkZ})
	if !ok {
		return nil
	}
	return cv.(*ChunkShops)
}

func (c *ChunkShops) Get(pos BlockPos) *Shop {
	if c == nil {
		return nil
	}
	sv, ok := c.byPos.Load(pos)
	if !ok {
		return nil
	}
	return sv.(*Shop)
}

func (c *ChunkShops) Range(fn func(pos BlockPos, shop *Shop) bool) {
	if c == nil {
		return
	}
	c.byPos.Range(func(k, v any) bool {
		return fn(k.(BlockPos), v.(*Shop))
	})
}

func (c *ChunkShops) Len() int {
	n := 0
	c.Range(func(BlockPos, *Shop) bool { n++; return true })
	return n
}

// Clear drops every entry. Shutdown path only.
func (ix *Index) Clear() {
	ix.worlds.Range(func(k, _ any) bool {
		ix.worlds.Delete(k)
		return true
	})
}

// Iterator returns a forward-only, single-pass iterator over all shops.
// It does not snapshot: shops registered or removed while iterating may or
// may not be observed, but iteration never fails. Construct a new iterator
// to restart from the first world.
func (ix *Index) Iterator() *ShopIterator {
	it := &ShopIterator{}
	ix.worlds.Range(func(_, v any) bool {
		it.worlds = append(it.worlds, v.(*worldShops))
		return true
	})
	return it
}

type ShopIterator struct {
	worlds []*worldShops
	chunks []*ChunkShops
	shops  []*Shop
}

// Next returns the next shop, or nil when the pass is exhausted.
func (it *ShopIterator) Next() *Shop {
	for {
		if len(it.shops) > 0 {
			s := it.shops[0]
			it.shops = it.shops[1:]
			return s
		}
		if len(it.chunks) > 0 {
			c := it.chunks[0]
			it.chunks = it.chunks[1:]
			c.byPos.Range(func(_, v any) bool {
				it.shops = append(it.shops, v.(*Shop))
				return true
			})
			continue
		}
		if len(it.worlds) > 0 {
			w := it.worlds[0]
			it.worlds = it.worlds[1:]
			w.chunks.Range(func(_, v any) bool {
				it.chunks = append(it.chunks, v.(*ChunkShops))
				return true
			})
			continue
		}
		return nil
	}
}
