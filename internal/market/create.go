package market

import (
	"math"
	"strconv"

	"github.com/google/uuid"

	"chestshop.dev/internal/economy"
)

// actionCreate answers a pending creation question: the chat line is the
// asking price for the item the actor held when interacting.
func (m *Manager) actionCreate(actor uuid.UUID, info PendingAction, message string) {
	price, err := strconv.ParseFloat(message, 64)
	if err != nil {
		m.msg.Send(actor, MsgNotANumber, message)
		return
	}
	if math.IsInf(price, 0) {
		m.msg.Send(actor, MsgExceededMaximum, message)
		return
	}
	if m.cfg.MaximumDigitsInPrice != -1 && fractionalDigits(price) > m.cfg.MaximumDigitsInPrice {
		m.msg.Send(actor, MsgDigitsReachLimit, m.cfg.MaximumDigitsInPrice)
		return
	}
	container := m.world.ContainerAt(info.Pos)
	if container == nil {
		m.msg.Send(actor, MsgInvalidContainer)
		return
	}
	shop := NewShop(info.Pos, actor, price, info.Item, Selling, container)
	m.CreateShop(shop, actor, info.BypassProtection)
}

// CreateShop runs the creation gate chain and, when every gate passes,
// registers the shop and persists it. Gates run in a fixed order and the
// first failing gate reports and aborts. Coordinator only.
func (m *Manager) CreateShop(shop *Shop, creator uuid.UUID, bypassProtection bool) bool {
	if !m.world.Online(creator) {
		m.log.Printf("create shop at %v: creator %s is offline", shop.Pos, creator)
		return false
	}
	if m.eco == nil {
		m.msg.Send(creator, MsgEconomyUnavailable)
		return false
	}
	if shop.Item.ID == "" {
		m.msg.Send(creator, MsgNothingInHand)
		return false
	}
	if m.reachedLimit(creator) {
		m.msg.Send(creator, MsgReachedCreateLimit, m.cfg.Limits.Max)
		return false
	}
	if !m.world.CanHostShop(shop.Pos) {
		m.msg.Send(creator, MsgChestWasRemoved)
		return false
	}
	if m.blacklisted != nil && m.blacklisted(shop.Item) && !m.hasCap(creator, BlacklistBypass(shop.Item.ID)) {
		m.msg.Send(creator, MsgBlacklistedItem, shop.Item.ID)
		return false
	}
	if shop.Item.Amount > 1 && !m.hasCap(creator, CapStacks) {
		shop.Item.Amount = 1
	}
	if !bypassProtection && m.prot != nil {
		if ok, reason := m.prot.CanBuild(creator, shop.Pos); !ok {
			m.msg.Send(creator, MsgProtectionDenied, reason)
			return false
		}
	}
	if m.index.Lookup(shop.Pos) != nil {
		m.msg.Send(creator, MsgShopAlreadyOwned)
		return false
	}
	if m.world.IsDoubleChest(shop.Pos) && !m.hasCap(creator, CapDoubleChest) {
		m.msg.Send(creator, MsgNoDoubleChests)
		return false
	}
	if m.cfg.Shop.AutoSign && !m.cfg.Shop.AllowShopWithoutSpaceForSign {
		if m.world.SignSpaceAt(shop.Pos) != SignSpaceFree {
			m.msg.Send(creator, MsgFailedToPutSign)
			return false
		}
	}
	if m.hooks.PreCreate != nil {
		if d := m.hooks.PreCreate(creator, shop.Pos); d.Cancelled {
			m.msg.Send(creator, MsgHookCancelled, d.Reason)
			return false
		}
	}

	check := m.limiter.Check(shop.Item, m.currencyOf(shop), shop.Price)
	switch check.Status {
	case PriceNotValid:
		m.msg.Send(creator, MsgNotANumber, shop.Price)
		return false
	case PriceNotAWholeNumber:
		m.msg.Send(creator, MsgNotAnInteger, shop.Price)
		return false
	case PriceRestricted:
		m.msg.Send(creator, MsgRestrictedPrices, shop.Item.ID, m.formatPrice(check.Min), m.formatPrice(check.Max))
		return false
	case PriceReachedMinLimit:
		m.msg.Send(creator, MsgPriceTooCheap, m.formatPrice(check.Min))
		return false
	case PriceReachedMaxLimit:
		m.msg.Send(creator, MsgPriceTooHigh, m.formatPrice(check.Max))
		return false
	}

	if m.hooks.Create != nil {
		if d := m.hooks.Create(shop, creator); d.Cancelled {
			m.msg.Send(creator, MsgHookCancelled, d.Reason)
			return false
		}
	}

	if m.cfg.Shop.Cost > 0 && !m.hasCap(creator, CapFeeExempt) {
		fee := economy.NewTransaction(economy.Spec{
			Core:     m.eco,
			From:     &creator,
			To:       m.taxAccount,
			Amount:   m.cfg.Shop.Cost,
			World:    shop.Pos.World,
			Currency: m.currencyOf(shop),
		})
		if !fee.CheckBalance() {
			m.msg.Send(creator, MsgCantAffordNewShop, m.formatPrice(m.cfg.Shop.Cost))
			return false
		}
		if !fee.FailSafeCommit() {
			m.msg.Send(creator, MsgTransactionFailed, fee.LastError())
			m.log.Printf("SEVERE: shop creation fee failed, last error: %s", fee.LastError())
			return false
		}
	}

	if !m.cfg.Shop.Lock {
		m.msg.Send(creator, MsgShopsArentLocked)
	}
	m.linkDoubleShop(shop, creator)

	m.registerShop(shop)
	return true
}

// linkDoubleShop attaches the new shop to a partner sharing its double chest
// and warns the owner when the pair would buy items for more than it sells
// them, a classic self-draining setup.
func (m *Manager) linkDoubleShop(shop *Shop, creator uuid.UUID) {
	if !m.world.IsDoubleChest(shop.Pos) {
		return
	}
	other := m.adjacentShop(shop.Pos)
	if other == nil || !other.Matches(shop.Item) {
		return
	}
	shop.Attach(other)
	other.Attach(shop)
	buying, selling := shop, other
	if shop.IsSelling() {
		buying, selling = other, shop
	}
	if buying.IsBuying() && selling.IsSelling() && buying.Price > selling.Price {
		m.msg.Send(creator, MsgBuyingMoreThanSells)
	}
}

// adjacentShop finds a registered shop on one of the four horizontally
// neighboring blocks, where the second half of a double chest sits.
func (m *Manager) adjacentShop(pos BlockPos) *Shop {
	neighbors := [4]BlockPos{
		{World: pos.World, X: pos.X + 1, Y: pos.Y, Z: pos.Z},
		{World: pos.World, X: pos.X - 1, Y: pos.Y, Z: pos.Z},
		{World: pos.World, X: pos.X, Y: pos.Y, Z: pos.Z + 1},
		{World: pos.World, X: pos.X, Y: pos.Y, Z: pos.Z - 1},
	}
	for _, n := range neighbors {
		if s := m.index.Lookup(n); s != nil {
			return s
		}
	}
	return nil
}

// registerShop makes the shop live and persists it. A failed write gets one
// retry; a second failure evicts the shop again and tells the owner, so memory
// never holds a shop the store will not restore.
func (m *Manager) registerShop(shop *Shop) {
	m.LoadShop(shop)
	m.world.RefreshDisplay(shop)
	if m.store == nil {
		return
	}
	rec := RecordOf(shop)
	m.store.CreateShop(rec, func(err error) {
		if err == nil {
			return
		}
		m.log.Printf("persist shop at %v failed, retrying: %v", shop.Pos, err)
		m.store.CreateShop(rec, func(err error) {
			if err == nil {
				return
			}
			m.log.Printf("persist shop at %v failed twice, evicting: %v", shop.Pos, err)
			m.Submit(func() {
				m.UnloadShop(shop)
				m.msg.Send(shop.Owner, MsgShopCreationFailed)
			})
		})
	})
}

// formatPrice renders a price for user-facing messages.
func (m *Manager) formatPrice(v float64) string {
	if m.cfg.UseDecimalFormat {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
