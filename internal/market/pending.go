package market

import (
	"sync"

	"github.com/google/uuid"
)

type ActionKind int

const (
	ActionCreate ActionKind = iota + 1
	ActionTrade
)

// Snapshot freezes the shop attributes shown to the actor when the question
// was asked. A trade is rejected if the live shop no longer matches.
type Snapshot struct {
	Price float64
	Item  Item
	Type  ShopType
}

func SnapshotOf(shop *Shop) Snapshot {
	return Snapshot{Price: shop.Price, Item: shop.Item, Type: shop.Type}
}

// PendingAction is the single-consumption record of a question awaiting the
// actor's chat reply.
type PendingAction struct {
	Actor    uuid.UUID
	Pos      BlockPos
	Kind     ActionKind
	Snapshot Snapshot
	// Creation only: the item the new shop will trade.
	Item Item
	// Creation only: skip the protection check (admin flows).
	BypassProtection bool
}

// Changed reports whether the live shop drifted from the snapshot.
func (p PendingAction) Changed(shop *Shop) bool {
	return p.Snapshot.Price != shop.Price ||
		!p.Snapshot.Item.Matches(shop.Item) ||
		p.Snapshot.Item.Amount != shop.Item.Amount ||
		p.Snapshot.Type != shop.Type
}

// Tracker holds at most one pending action per actor. Registration is
// last-write-wins; Consume atomically takes the entry so concurrent chat
// deliveries cannot both proceed.
type Tracker struct {
	mu      sync.Mutex
	pending map[uuid.UUID]PendingAction
}

func NewTracker() *Tracker {
	return &Tracker{pending: map[uuid.UUID]PendingAction{}}
}

func (t *Tracker) Register(p PendingAction) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[p.Actor] = p
}

// Consume removes and returns the actor's pending action. Losers of a
// concurrent delivery race observe ok=false and must treat it as a no-op.
func (t *Tracker) Consume(actor uuid.UUID) (PendingAction, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.pending[actor]
	if ok {
		delete(t.pending, actor)
	}
	return p, ok
}

// Peek reports whether an action is pending without consuming it.
func (t *Tracker) Peek(actor uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[actor]
	return ok
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = map[uuid.UUID]PendingAction{}
}
