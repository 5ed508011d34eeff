package market

import "github.com/google/uuid"

// Permission is a per-shop capability granted by the owner to other actors.
type Permission string

const (
	PermPurchase        Permission = "purchase"
	PermShowInformation Permission = "show_information"
	PermReceiveAlert    Permission = "receive_alert"
	PermDelete          Permission = "delete"
)

// everyoneDefaults are the grants every actor holds on any shop without an
// explicit staff entry: strangers may trade and read shop details unless the
// owner revokes them.
var everyoneDefaults = map[Permission]bool{
	PermPurchase:        true,
	PermShowInformation: true,
}

// Capability is a server-wide grant checked against the external permission
// policy. The policy implementation lives outside the core.
type Capability string

const (
	// Operator-level bypass for using shops the actor has no grant on.
	CapUseOthers Capability = "shop.other.use"

	CapTaxExempt          Capability = "shop.tax.exempt"
	CapUnlimitedTaxExempt Capability = "shop.tax.exempt_unlimited"
	CapFeeExempt          Capability = "shop.create.fee_exempt"
	CapDoubleChest        Capability = "shop.create.double"
	CapStacks             Capability = "shop.create.stacks"
	CapProtectionAlert    Capability = "shop.alert"
)

// BlacklistBypass names the capability that lets an actor trade a blacklisted
// item id anyway.
func BlacklistBypass(itemID string) Capability {
	return Capability("shop.blacklist.bypass." + itemID)
}

type CapabilityChecker interface {
	Has(actor uuid.UUID, c Capability) bool
}

// StaticCapabilities is a fixed grant table, enough for the standalone server
// and tests. Real deployments plug in their policy engine instead.
type StaticCapabilities map[uuid.UUID]map[Capability]bool

func (s StaticCapabilities) Has(actor uuid.UUID, c Capability) bool {
	return s[actor][c]
}

// Grant adds a capability, allocating the inner map on first use.
func (s StaticCapabilities) Grant(actor uuid.UUID, caps ...Capability) {
	m := s[actor]
	if m == nil {
		m = map[Capability]bool{}
		s[actor] = m
	}
	for _, c := range caps {
		m[c] = true
	}
}
