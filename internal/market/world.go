package market

import (
	"sync"

	"github.com/google/uuid"
)

// SignSpace describes whether a sign can go next to a shop container.
type SignSpace int

const (
	SignSpaceFree SignSpace = iota
	SignSpaceNone
	SignSpaceOccupied
)

// WorldAccess is the game-world collaborator: block/actor facts the core
// needs but does not own.
type WorldAccess interface {
	// ContainerAt returns the inventory backing the block, or nil when the
	// block cannot hold items.
	ContainerAt(pos BlockPos) Inventory
	// CanHostShop reports block eligibility (container block still present).
	CanHostShop(pos BlockPos) bool
	IsDoubleChest(pos BlockPos) bool
	SignSpaceAt(pos BlockPos) SignSpace
	PositionOf(actor uuid.UUID) (BlockPos, bool)
	InventoryOf(actor uuid.UUID) Inventory
	InCreative(actor uuid.UUID) bool
	Online(actor uuid.UUID) bool
	// RefreshDisplay re-renders the shop's sign/counters. Outbound only.
	RefreshDisplay(shop *Shop)
}

// ProtectionChecker asks external protection plugins whether the actor may
// build at the position.
type ProtectionChecker interface {
	CanBuild(actor uuid.UUID, pos BlockPos) (bool, string)
}

// MemoryWorld is a self-contained WorldAccess used by the standalone server
// and the tests: containers, actor positions and inventories held in maps.
type MemoryWorld struct {
	mu          sync.Mutex
	containers  map[BlockPos]Inventory
	doubles     map[BlockPos]bool
	signBlocks  map[BlockPos]SignSpace
	positions   map[uuid.UUID]BlockPos
	inventories map[uuid.UUID]Inventory
	creative    map[uuid.UUID]bool
	offline     map[uuid.UUID]bool
}

func NewMemoryWorld() *MemoryWorld {
	return &MemoryWorld{
		containers:  map[BlockPos]Inventory{},
		doubles:     map[BlockPos]bool{},
		signBlocks:  map[BlockPos]SignSpace{},
		positions:   map[uuid.UUID]BlockPos{},
		inventories: map[uuid.UUID]Inventory{},
		creative:    map[uuid.UUID]bool{},
		offline:     map[uuid.UUID]bool{},
	}
}

func (w *MemoryWorld) PlaceContainer(pos BlockPos, inv Inventory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.containers[pos] = inv
}

func (w *MemoryWorld) BreakContainer(pos BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.containers, pos)
}

func (w *MemoryWorld) SetDoubleChest(pos BlockPos, double bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doubles[pos] = double
}

func (w *MemoryWorld) SetSignSpace(pos BlockPos, s SignSpace) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signBlocks[pos] = s
}

// Join registers an actor with a position and a personal inventory.
func (w *MemoryWorld) Join(actor uuid.UUID, pos BlockPos, inv Inventory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.positions[actor] = pos
	w.inventories[actor] = inv
	delete(w.offline, actor)
}

func (w *MemoryWorld) Leave(actor uuid.UUID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.offline[actor] = true
}

func (w *MemoryWorld) MoveActor(actor uuid.UUID, pos BlockPos) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.positions[actor] = pos
}

func (w *MemoryWorld) SetCreative(actor uuid.UUID, on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.creative[actor] = on
}

func (w *MemoryWorld) ContainerAt(pos BlockPos) Inventory {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.containers[pos]
}

func (w *MemoryWorld) CanHostShop(pos BlockPos) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	inv := w.containers[pos]
	return inv != nil && inv.Valid()
}

func (w *MemoryWorld) IsDoubleChest(pos BlockPos) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doubles[pos]
}

func (w *MemoryWorld) SignSpaceAt(pos BlockPos) SignSpace {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.signBlocks[pos] // zero value = SignSpaceFree
}

func (w *MemoryWorld) PositionOf(actor uuid.UUID) (BlockPos, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	pos, ok := w.positions[actor]
	return pos, ok
}

func (w *MemoryWorld) InventoryOf(actor uuid.UUID) Inventory {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inventories[actor]
}

func (w *MemoryWorld) InCreative(actor uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.creative[actor]
}

func (w *MemoryWorld) Online(actor uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.positions[actor]; !ok {
		return false
	}
	return !w.offline[actor]
}

func (w *MemoryWorld) RefreshDisplay(*Shop) {}
