package market

import (
	"fmt"

	"github.com/google/uuid"
)

type ShopType int

const (
	Selling ShopType = iota
	Buying
)

func (t ShopType) String() string {
	if t == Buying {
		return "BUYING"
	}
	return "SELLING"
}

// Shop is one priced buy/sell offer bound to a container at a block position.
// At most one shop exists per exact position; a double shop is two adjacent
// shops joined by an attachment reference, never a merged record.
type Shop struct {
	Pos      BlockPos
	Owner    uuid.UUID
	Price    float64
	Currency string // empty = world default currency
	Type     ShopType
	Item     Item
	Name     string // optional display name

	Unlimited bool
	// Count the backing container even for unlimited shops.
	AlwaysCountingContainer bool

	// Optional per-shop override for the tax leg destination.
	TaxAccount *uuid.UUID

	// Staff grants beyond the owner's implicit full access.
	Staff map[uuid.UUID]map[Permission]bool

	runtimeID uuid.UUID
	container Inventory
	attached  *Shop
}

// NewShop binds a fresh shop to its container and mints the runtime id. The
// runtime id is stable for the shop's loaded lifetime and distinct from the
// persisted identity.
func NewShop(pos BlockPos, owner uuid.UUID, price float64, item Item, typ ShopType, container Inventory) *Shop {
	return &Shop{
		Pos:       pos,
		Owner:     owner,
		Price:     price,
		Type:      typ,
		Item:      item,
		container: container,
		runtimeID: uuid.New(),
	}
}

func (s *Shop) RuntimeID() uuid.UUID { return s.runtimeID }

func (s *Shop) Container() Inventory { return s.container }

func (s *Shop) IsSelling() bool { return s.Type == Selling }
func (s *Shop) IsBuying() bool  { return s.Type == Buying }

// Valid is the liveness check used by cache lookups: the backing container
// must still exist.
func (s *Shop) Valid() bool {
	return s.container != nil && s.container.Valid()
}

// RemainingStock returns how many trades a selling shop can still serve, or
// -1 for unbounded. -1 is a messaging sentinel only; capacity math never uses
// it as a number.
func (s *Shop) RemainingStock() int {
	if s.Unlimited && !s.AlwaysCountingContainer {
		return -1
	}
	return s.container.CountItems(s.Item) / s.Item.Bundle()
}

// RemainingSpace mirrors RemainingStock for buying shops.
func (s *Shop) RemainingSpace() int {
	if s.Unlimited && !s.AlwaysCountingContainer {
		return -1
	}
	return s.container.CountSpace(s.Item) / s.Item.Bundle()
}

// Authorize reports whether the actor holds the given per-shop permission.
// The owner implicitly holds everything; everyone else starts from the
// everyone-group defaults, with explicit staff entries overriding either way.
func (s *Shop) Authorize(actor uuid.UUID, p Permission) bool {
	if actor == s.Owner {
		return true
	}
	if perms, ok := s.Staff[actor]; ok {
		if v, ok := perms[p]; ok {
			return v
		}
	}
	return everyoneDefaults[p]
}

// Grant adds a staff permission.
func (s *Shop) Grant(actor uuid.UUID, perms ...Permission) {
	m := s.staffEntry(actor)
	for _, p := range perms {
		m[p] = true
	}
}

// Revoke explicitly denies a permission, overriding the everyone defaults.
func (s *Shop) Revoke(actor uuid.UUID, perms ...Permission) {
	m := s.staffEntry(actor)
	for _, p := range perms {
		m[p] = false
	}
}

func (s *Shop) staffEntry(actor uuid.UUID) map[Permission]bool {
	if s.Staff == nil {
		s.Staff = map[uuid.UUID]map[Permission]bool{}
	}
	m := s.Staff[actor]
	if m == nil {
		m = map[Permission]bool{}
		s.Staff[actor] = m
	}
	return m
}

// HoldersOf lists actors holding a permission, the owner included.
func (s *Shop) HoldersOf(p Permission) []uuid.UUID {
	out := []uuid.UUID{s.Owner}
	for actor, perms := range s.Staff {
		if actor != s.Owner && perms[p] {
			out = append(out, actor)
		}
	}
	return out
}

func (s *Shop) Matches(item Item) bool { return s.Item.Matches(item) }

// Attach joins this shop with its double-chest partner.
func (s *Shop) Attach(other *Shop) { s.attached = other }

func (s *Shop) Attached() *Shop { return s.attached }

func (s *Shop) IsDouble() bool { return s.attached != nil }

// Buy moves items from the trader's inventory into the shop (buying shops).
// Unlimited shops without container counting absorb the items.
func (s *Shop) Buy(from Inventory, amount int) error {
	n := amount * s.Item.Bundle()
	if err := from.Remove(s.Item, n); err != nil {
		return fmt.Errorf("take from trader: %w", err)
	}
	if s.Unlimited && !s.AlwaysCountingContainer {
		return nil
	}
	if err := s.container.Add(s.Item, n); err != nil {
		// Undo the take so the trader is whole again.
		_ = from.Add(s.Item, n)
		return fmt.Errorf("stock container: %w", err)
	}
	return nil
}

// Sell moves items from the shop into the trader's inventory (selling shops).
// Unlimited shops without container counting conjure the items.
func (s *Shop) Sell(to Inventory, amount int) error {
	n := amount * s.Item.Bundle()
	if !s.Unlimited || s.AlwaysCountingContainer {
		if err := s.container.Remove(s.Item, n); err != nil {
			return fmt.Errorf("take from container: %w", err)
		}
	}
	if err := to.Add(s.Item, n); err != nil {
		if !s.Unlimited || s.AlwaysCountingContainer {
			_ = s.container.Add(s.Item, n)
		}
		return fmt.Errorf("give to trader: %w", err)
	}
	return nil
}
