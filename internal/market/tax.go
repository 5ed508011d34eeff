package market

import (
	"log"

	"github.com/google/uuid"
)

// TaxHook may override the resolved tax rate before it is used. The returned
// value is clamped back to [0,1).
type TaxHook func(shop *Shop, actor uuid.UUID, rate float64) float64

// TaxCalculator derives the effective tax rate for one (shop, actor) pair.
type TaxCalculator struct {
	base             float64
	freeForUnlimited bool
	caps             CapabilityChecker
	hook             TaxHook
	log              *log.Logger
}

func NewTaxCalculator(base float64, freeForUnlimited bool, caps CapabilityChecker, hook TaxHook, logger *log.Logger) *TaxCalculator {
	return &TaxCalculator{
		base:             base,
		freeForUnlimited: freeForUnlimited,
		caps:             caps,
		hook:             hook,
		log:              logger,
	}
}

// Rate always returns a value in [0,1). Owners trading with their own shop
// pay no tax.
func (t *TaxCalculator) Rate(shop *Shop, actor uuid.UUID) float64 {
	tax := t.base
	if t.caps != nil {
		if t.caps.Has(actor, CapTaxExempt) {
			tax = 0
		}
		if shop.Unlimited && t.caps.Has(actor, CapUnlimitedTaxExempt) {
			tax = 0
		}
	}
	if shop.Unlimited && t.freeForUnlimited {
		tax = 0
	}
	if tax >= 1.0 {
		if t.log != nil {
			t.log.Printf("tax %v out of range 0.0-1.0, disabling tax", tax)
		}
		tax = 0
	}
	if tax < 0 {
		tax = 0
	}
	if shop.Owner == actor {
		tax = 0
	}
	if t.hook != nil {
		tax = t.hook(shop, actor, tax)
		if tax < 0 || tax >= 1.0 {
			tax = 0
		}
	}
	return tax
}
