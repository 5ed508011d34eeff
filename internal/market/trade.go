package market

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"chestshop.dev/internal/economy"
)

// Unbounded stock/space is shown to actors as this cap. Messaging only;
// capacity math never treats the sentinel as a real number.
const unboundedDisplayCap = 10000

// actionTrade answers a pending trade question. The amount is either a
// positive integer literal or the configured trade-all word.
func (m *Manager) actionTrade(actor uuid.UUID, info PendingAction, message string) {
	shop := m.index.Lookup(info.Pos)
	if shop == nil || !m.world.CanHostShop(info.Pos) {
		m.msg.Send(actor, MsgChestWasRemoved)
		return
	}
	if m.cfg.Shop.DisableCreativeModeTrading && m.world.InCreative(actor) {
		m.msg.Send(actor, MsgTradingInCreativeDenied)
		return
	}
	if info.Changed(shop) {
		m.msg.Send(actor, MsgShopHasChanged)
		return
	}
	inv := m.world.InventoryOf(actor)
	if inv == nil {
		m.msg.Send(actor, MsgPurchaseCancelled)
		return
	}

	var amount int
	if n, err := strconv.Atoi(message); err == nil {
		amount = n
	} else if strings.EqualFold(message, m.allWord) {
		if shop.IsBuying() {
			amount = m.buyingAllCalc(shop, actor, inv)
		} else {
			amount = m.sellingAllCalc(shop, actor, inv)
		}
		if amount == 0 {
			// The calc already told the actor why.
			return
		}
	} else {
		m.msg.Send(actor, MsgNotAnInteger, message)
		return
	}

	if shop.IsBuying() {
		m.actionBuying(actor, inv, info, shop, amount)
	} else {
		m.actionSelling(actor, inv, info, shop, amount)
	}
}

// actionBuying executes a trade against a buying shop: the actor sells items
// into it and the shop owner pays.
func (m *Manager) actionBuying(actor uuid.UUID, inv Inventory, info PendingAction, shop *Shop, amount int) {
	if !shop.Authorize(actor, PermPurchase) && !m.hasCap(actor, CapUseOthers) {
		m.msg.Send(actor, MsgNoPermission)
		return
	}
	if m.shopIsStale(actor, info, shop) {
		return
	}
	space := shop.RemainingSpace()
	if space == -1 {
		space = unboundedDisplayCap
	}
	if space < amount {
		m.msg.Send(actor, MsgShopHasNoSpace, space, shop.Item.ID)
		return
	}
	count := inv.CountItems(shop.Item) / shop.Item.Bundle()
	if amount > count {
		m.msg.Send(actor, MsgNotEnoughItems, count, shop.Item.ID)
		return
	}
	if amount < 1 {
		m.msg.Send(actor, MsgNegativeAmount)
		return
	}

	// Money flows shop owner -> actor.
	taxModifier := m.taxer.Rate(shop, actor)
	total := mulExact(amount, shop.Price)
	d := m.firePurchaseHook(shop, actor, amount, total)
	if d.Cancelled {
		m.msg.Send(actor, MsgHookCancelled, d.Reason)
		return
	}
	total = d.Total

	spec := economy.Spec{
		Core:        m.eco,
		To:          &actor,
		Amount:      total,
		TaxModifier: taxModifier,
		TaxAccount:  m.TaxAccountFor(shop),
		World:       shop.Pos.World,
		Currency:    m.currencyOf(shop),
	}
	if !shop.Unlimited || m.cfg.Shop.PayUnlimitedShopOwners {
		owner := shop.Owner
		spec.From = &owner
	}
	tx := economy.NewTransaction(spec)
	if !tx.CheckBalance() {
		m.msg.Send(actor, MsgOwnerCantAfford, total, m.balanceOf(shop.Owner, shop))
		return
	}
	if !tx.FailSafeCommit() {
		m.msg.Send(actor, MsgTransactionFailed, tx.LastError())
		m.log.Printf("SEVERE: economy transaction failed, last error: %s", tx.LastError())
		return
	}
	if err := shop.Buy(inv, amount); err != nil {
		m.log.Printf("failed to move purchased goods, rolling back: %v", err)
		tx.Rollback(true)
		m.msg.Send(actor, MsgShopTransactionFailed, err.Error())
		return
	}

	m.msg.Send(actor, MsgSuccessfullySold, amount*shop.Item.Bundle(), shop.Item.ID, total)
	m.fireSuccess(shop, actor, amount, total, tx.Tax())
	m.world.RefreshDisplay(shop)
	m.recordTrade(shop, actor, amount, total, tx.Tax())
	m.notifyStaff(shop, MsgSoldToYourStore, actor.String(), amount*shop.Item.Bundle(), shop.Item.ID)
	if space == amount {
		m.notifyStaff(shop, MsgShopOutOfSpace, shop.Pos.X, shop.Pos.Y, shop.Pos.Z)
	}
}

// actionSelling executes a trade against a selling shop: the actor buys items
// out of it and pays the owner.
func (m *Manager) actionSelling(actor uuid.UUID, inv Inventory, info PendingAction, shop *Shop, amount int) {
	if !shop.Authorize(actor, PermPurchase) && !m.hasCap(actor, CapUseOthers) {
		m.msg.Send(actor, MsgNoPermission)
		return
	}
	if m.shopIsStale(actor, info, shop) {
		return
	}
	stock := shop.RemainingStock()
	if stock == -1 {
		stock = unboundedDisplayCap
	}
	if stock < amount {
		m.msg.Send(actor, MsgShopStockTooLow, stock, shop.Item.ID)
		return
	}
	space := inv.CountSpace(shop.Item) / shop.Item.Bundle()
	if amount > space {
		m.msg.Send(actor, MsgNotEnoughSpace, space)
		return
	}
	if amount < 1 {
		m.msg.Send(actor, MsgNegativeAmount)
		return
	}

	// Money flows actor -> shop owner.
	taxModifier := m.taxer.Rate(shop, actor)
	total := mulExact(amount, shop.Price)
	d := m.firePurchaseHook(shop, actor, amount, total)
	if d.Cancelled {
		m.msg.Send(actor, MsgHookCancelled, d.Reason)
		return
	}
	total = d.Total

	spec := economy.Spec{
		Core:        m.eco,
		From:        &actor,
		Amount:      total,
		TaxModifier: taxModifier,
		TaxAccount:  m.TaxAccountFor(shop),
		World:       shop.Pos.World,
		Currency:    m.currencyOf(shop),
		AllowLoan:   m.cfg.Shop.AllowEconomyLoan,
	}
	if !shop.Unlimited || m.cfg.Shop.PayUnlimitedShopOwners {
		owner := shop.Owner
		spec.To = &owner
	}
	tx := economy.NewTransaction(spec)
	if !tx.CheckBalance() {
		m.msg.Send(actor, MsgYouCantAfford, total, m.balanceOf(actor, shop))
		return
	}
	if !tx.FailSafeCommit() {
		m.msg.Send(actor, MsgTransactionFailed, tx.LastError())
		m.log.Printf("SEVERE: economy transaction failed, last error: %s", tx.LastError())
		return
	}
	if err := shop.Sell(inv, amount); err != nil {
		m.log.Printf("failed to move purchased goods, rolling back: %v", err)
		tx.Rollback(true)
		m.msg.Send(actor, MsgShopTransactionFailed, err.Error())
		return
	}

	m.msg.Send(actor, MsgSuccessfulPurchase, amount*shop.Item.Bundle(), shop.Item.ID, total)
	m.fireSuccess(shop, actor, amount, total, tx.Tax())
	m.world.RefreshDisplay(shop)
	m.recordTrade(shop, actor, amount, total, tx.Tax())
	m.notifyStaff(shop, MsgBoughtFromYourStore, actor.String(), amount*shop.Item.Bundle(), shop.Item.ID, total-tx.Tax())
	if stock == amount {
		m.notifyStaff(shop, MsgShopOutOfStock, shop.Pos.X, shop.Pos.Y, shop.Pos.Z, shop.Item.ID)
	}
}

// sellingAllCalc resolves the trade-all amount when buying from a selling
// shop: min(stock, actor space, affordable), with the stock term dropped for
// unlimited non-counted shops. A zero result sends a cause-specific message
// in this order: no stock, no space, no funds.
func (m *Manager) sellingAllCalc(shop *Shop, actor uuid.UUID, inv Inventory) int {
	counting := shop.AlwaysCountingContainer || !shop.Unlimited
	stock := shop.RemainingStock()
	space := inv.CountSpace(shop.Item) / shop.Item.Bundle()

	amount := space
	if counting {
		amount = minInt(stock, space)
	}
	balance := m.balanceOf(actor, shop)
	amount = minInt(amount, affordable(balance, shop.Price))
	if amount < 1 {
		if counting && stock < 1 {
			m.msg.Send(actor, MsgShopStockTooLow, stock, shop.Item.ID)
			return 0
		}
		if space <= 0 {
			m.msg.Send(actor, MsgNotEnoughSpace, space)
			return 0
		}
		m.msg.Send(actor, MsgYouCantAfford, shop.Price, balance)
		return 0
	}
	return amount
}

// buyingAllCalc resolves the trade-all amount when selling into a buying
// shop: min(space, actor items, owner affordable). Unlimited shops skip the
// afford cap unless owners must be paid. Zero-result messages in this order:
// no space, owner funds, no items.
func (m *Manager) buyingAllCalc(shop *Shop, actor uuid.UUID, inv Inventory) int {
	counting := shop.AlwaysCountingContainer || !shop.Unlimited
	space := shop.RemainingSpace()
	items := inv.CountItems(shop.Item) / shop.Item.Bundle()

	ownerBalance := m.balanceOf(shop.Owner, shop)
	ownerAfford := affordable(ownerBalance, shop.Price)

	var amount int
	if counting {
		amount = minInt(minInt(space, items), ownerAfford)
	} else {
		amount = items
		// Unlimited owners must still afford the buyout when the server pays
		// them real money.
		if m.cfg.Shop.PayUnlimitedShopOwners {
			amount = minInt(amount, ownerAfford)
		}
	}
	if amount < 1 {
		if counting && space == 0 {
			m.msg.Send(actor, MsgShopHasNoSpace, space, shop.Item.ID)
			return 0
		}
		if ownerAfford == 0 && (!shop.Unlimited || m.cfg.Shop.PayUnlimitedShopOwners) {
			m.msg.Send(actor, MsgOwnerCantAfford, shop.Price, ownerBalance)
			return 0
		}
		m.msg.Send(actor, MsgNotEnoughItems, items, shop.Item.ID)
		return 0
	}
	return amount
}

// shopIsStale rejects trades whose pending snapshot no longer matches the
// live shop. Nothing is mutated on rejection.
func (m *Manager) shopIsStale(actor uuid.UUID, info PendingAction, shop *Shop) bool {
	if !m.world.CanHostShop(info.Pos) {
		m.msg.Send(actor, MsgChestWasRemoved)
		return true
	}
	if info.Changed(shop) {
		m.msg.Send(actor, MsgShopHasChanged)
		return true
	}
	return false
}

func (m *Manager) firePurchaseHook(shop *Shop, actor uuid.UUID, amount int, total float64) Decision {
	if m.hooks.Purchase == nil {
		return Proceed(total)
	}
	return m.hooks.Purchase(PurchaseEvent{Shop: shop, Actor: actor, Amount: amount, Total: total})
}

func (m *Manager) fireSuccess(shop *Shop, actor uuid.UUID, amount int, total, tax float64) {
	if m.hooks.Success != nil {
		m.hooks.Success(SuccessEvent{Shop: shop, Actor: actor, Amount: amount, Total: total, Tax: tax})
	}
}

// notifyStaff routes an alert to every holder of the receive-alert grant, or
// just the owner when staff alerts are disabled.
func (m *Manager) notifyStaff(shop *Shop, messageID string, args ...any) {
	if m.cfg.Shop.SendingStockMessageToStaffs {
		for _, recv := range shop.HoldersOf(PermReceiveAlert) {
			m.msg.Send(recv, messageID, args...)
		}
		return
	}
	m.msg.Send(shop.Owner, messageID, args...)
}

func (m *Manager) recordTrade(shop *Shop, actor uuid.UUID, amount int, total, tax float64) {
	if m.audit == nil {
		return
	}
	err := m.audit.WriteTrade(TradeLogEntry{
		Time:      time.Now().UnixMilli(),
		World:     shop.Pos.World,
		X:         shop.Pos.X,
		Y:         shop.Pos.Y,
		Z:         shop.Pos.Z,
		Actor:     actor.String(),
		Owner:     shop.Owner.String(),
		Direction: shop.Type.String(),
		ItemID:    shop.Item.ID,
		Amount:    amount,
		Total:     total,
		Tax:       tax,
		Currency:  m.currencyOf(shop),
	})
	if err != nil {
		m.log.Printf("trade audit write: %v", err)
	}
}

func (m *Manager) hasCap(actor uuid.UUID, c Capability) bool {
	return m.caps != nil && m.caps.Has(actor, c)
}

func (m *Manager) currencyOf(shop *Shop) string {
	if shop.Currency != "" {
		return shop.Currency
	}
	return m.cfg.Currency
}

func (m *Manager) balanceOf(actor uuid.UUID, shop *Shop) float64 {
	bal, err := m.eco.Balance(actor, shop.Pos.World, m.currencyOf(shop))
	if err != nil {
		m.log.Printf("balance lookup for %s: %v", actor, err)
		return 0
	}
	return bal
}

// mulExact computes amount*price with decimal arithmetic so currency totals
// carry no binary floating-point drift.
func mulExact(amount int, price float64) float64 {
	return decimal.NewFromInt(int64(amount)).Mul(decimal.NewFromFloat(price)).InexactFloat64()
}

// affordable is how many units a balance covers at the given price. A free
// price affords everything.
func affordable(balance, price float64) int {
	if price <= 0 {
		return math.MaxInt32
	}
	f := math.Floor(balance / price)
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f < 0 {
		return 0
	}
	return int(f)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
