package market

import "github.com/google/uuid"

// Messenger delivers localizable notices: a message id plus positional args.
// No text rendering happens in the core.
type Messenger interface {
	Send(actor uuid.UUID, messageID string, args ...any)
}

// Message ids produced by the core. Clients map these to localized templates.
const (
	MsgNoPermission            = "no-permission"
	MsgNotLookingAtShop        = "not-looking-at-shop"
	MsgChestWasRemoved         = "chest-was-removed"
	MsgShopHasChanged          = "shop-has-changed"
	MsgShopHasNoSpace          = "shop-has-no-space"
	MsgShopStockTooLow         = "shop-stock-too-low"
	MsgNotEnoughItems          = "you-dont-have-that-many-items"
	MsgNotEnoughSpace          = "not-enough-space"
	MsgNegativeAmount          = "negative-amount"
	MsgNotANumber              = "not-a-number"
	MsgNotAnInteger            = "not-a-integer"
	MsgExceededMaximum         = "exceeded-maximum"
	MsgDigitsReachLimit        = "digits-reach-the-limit"
	MsgOwnerCantAfford         = "the-owner-cant-afford-to-buy-from-you"
	MsgYouCantAfford           = "you-cant-afford-to-buy"
	MsgCantAffordNewShop       = "you-cant-afford-a-new-shop"
	MsgTransactionFailed       = "economy-transaction-failed"
	MsgShopTransactionFailed   = "shop-transaction-failed"
	MsgHookCancelled           = "plugin-cancelled"
	MsgPurchaseCancelled       = "shop-purchase-cancelled"
	MsgTradingInCreativeDenied = "trading-in-creative-mode-is-disabled"
	MsgSuccessfulPurchase      = "menu.successful-purchase"
	MsgSuccessfullySold        = "menu.successfully-sold"
	MsgSoldToYourStore         = "player-sold-to-your-store"
	MsgBoughtFromYourStore     = "player-bought-from-your-store"
	MsgShopOutOfStock          = "shop-out-of-stock"
	MsgShopOutOfSpace          = "shop-out-of-space"

	MsgReachedCreateLimit  = "reached-maximum-create-limit"
	MsgBlacklistedItem     = "blacklisted-item"
	MsgProtectionDenied    = "3rd-plugin-build-check-failed"
	MsgShopAlreadyOwned    = "shop-already-owned"
	MsgNoDoubleChests      = "no-double-chests"
	MsgFailedToPutSign     = "failed-to-put-sign"
	MsgPriceTooCheap       = "price-too-cheap"
	MsgPriceTooHigh        = "price-too-high"
	MsgRestrictedPrices    = "restricted-prices"
	MsgShopsArentLocked    = "shops-arent-locked"
	MsgBuyingMoreThanSells = "buying-more-than-selling"
	MsgInvalidContainer    = "invalid-container"
	MsgNothingInHand       = "no-anythings-in-your-hand"
	MsgShopCreationFailed  = "shop-creation-failed"
	MsgEconomyUnavailable  = "economy-unavailable"

	MsgHowManyBuy        = "how-many-buy"
	MsgHowManySell       = "how-many-sell"
	MsgHowMuchToTradeFor = "how-much-to-trade-for"
)

// NopMessenger drops everything. Useful default for embedders that only care
// about hook callbacks.
type NopMessenger struct{}

func (NopMessenger) Send(uuid.UUID, string, ...any) {}
