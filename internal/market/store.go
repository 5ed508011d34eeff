package market

import "github.com/google/uuid"

// ShopRecord is the flattened persisted identity of a shop. The core treats
// the on-disk layout as opaque; only stable identity matters for
// round-tripping.
type ShopRecord struct {
	World      string
	X, Y, Z    int
	Owner      string
	Price      float64
	Currency   string
	ItemID     string
	ItemMeta   string
	ItemAmount int
	Buying     bool
	Unlimited  bool
	TaxAccount string
	Name       string
}

func RecordOf(shop *Shop) ShopRecord {
	rec := ShopRecord{
		World:      shop.Pos.World,
		X:          shop.Pos.X,
		Y:          shop.Pos.Y,
		Z:          shop.Pos.Z,
		Owner:      shop.Owner.String(),
		Price:      shop.Price,
		Currency:   shop.Currency,
		ItemID:     shop.Item.ID,
		ItemMeta:   shop.Item.Meta,
		ItemAmount: shop.Item.Amount,
		Buying:     shop.IsBuying(),
		Unlimited:  shop.Unlimited,
		Name:       shop.Name,
	}
	if shop.TaxAccount != nil {
		rec.TaxAccount = shop.TaxAccount.String()
	}
	return rec
}

// ShopOf rebuilds a shop from its record, binding it to the given container.
func ShopOf(rec ShopRecord, container Inventory) (*Shop, error) {
	owner, err := uuid.Parse(rec.Owner)
	if err != nil {
		return nil, err
	}
	typ := Selling
	if rec.Buying {
		typ = Buying
	}
	shop := NewShop(
		BlockPos{World: rec.World, X: rec.X, Y: rec.Y, Z: rec.Z},
		owner,
		rec.Price,
		Item{ID: rec.ItemID, Meta: rec.ItemMeta, Amount: rec.ItemAmount},
		typ,
		container,
	)
	shop.Currency = rec.Currency
	shop.Unlimited = rec.Unlimited
	shop.Name = rec.Name
	if rec.TaxAccount != "" {
		if ta, err := uuid.Parse(rec.TaxAccount); err == nil {
			shop.TaxAccount = &ta
		}
	}
	return shop, nil
}

// Store is the persistence collaborator. Both calls are asynchronous: done
// (may be nil) fires off the coordinator when the write lands or fails.
type Store interface {
	CreateShop(rec ShopRecord, done func(error))
	RemoveShop(world string, x, y, z int, done func(error))
}
