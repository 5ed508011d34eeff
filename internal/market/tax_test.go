package market

import (
	"testing"

	"github.com/google/uuid"
)

func TestTaxCalculator_Base(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	actor := uuid.New()
	calc := NewTaxCalculator(0.1, false, nil, nil, nil)
	if got := calc.Rate(shop, actor); got != 0.1 {
		t.Fatalf("rate = %v, want 0.1", got)
	}
}

func TestTaxCalculator_OwnerPaysNoTax(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	calc := NewTaxCalculator(0.1, false, nil, nil, nil)
	if got := calc.Rate(shop, shop.Owner); got != 0 {
		t.Fatalf("owner rate = %v, want 0", got)
	}
}

func TestTaxCalculator_OutOfRangeDisabled(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	actor := uuid.New()
	for _, base := range []float64{1.0, 2.5, -0.3} {
		calc := NewTaxCalculator(base, false, nil, nil, nil)
		if got := calc.Rate(shop, actor); got != 0 {
			t.Fatalf("rate(base=%v) = %v, want 0", base, got)
		}
	}
}

func TestTaxCalculator_Exemptions(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	actor := uuid.New()
	caps := StaticCapabilities{}
	caps.Grant(actor, CapTaxExempt)
	calc := NewTaxCalculator(0.2, false, caps, nil, nil)
	if got := calc.Rate(shop, actor); got != 0 {
		t.Fatalf("exempt actor rate = %v, want 0", got)
	}

	other := uuid.New()
	caps.Grant(other, CapUnlimitedTaxExempt)
	// The unlimited exemption only fires on unlimited shops.
	if got := calc.Rate(shop, other); got != 0.2 {
		t.Fatalf("unlimited exemption leaked to normal shop: %v", got)
	}
	shop.Unlimited = true
	if got := calc.Rate(shop, other); got != 0 {
		t.Fatalf("unlimited-exempt rate = %v, want 0", got)
	}
}

func TestTaxCalculator_FreeForUnlimited(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	shop.Unlimited = true
	actor := uuid.New()
	calc := NewTaxCalculator(0.2, true, nil, nil, nil)
	if got := calc.Rate(shop, actor); got != 0 {
		t.Fatalf("unlimited-shop rate = %v, want 0", got)
	}
}

func TestTaxCalculator_HookOverride(t *testing.T) {
	shop := testShop("world", 0, 64, 0)
	actor := uuid.New()
	hook := func(_ *Shop, _ uuid.UUID, rate float64) float64 { return rate * 2 }
	calc := NewTaxCalculator(0.1, false, nil, hook, nil)
	if got := calc.Rate(shop, actor); got != 0.2 {
		t.Fatalf("hooked rate = %v, want 0.2", got)
	}

	// Hook output outside [0,1) is discarded.
	bad := NewTaxCalculator(0.1, false, nil, func(*Shop, uuid.UUID, float64) float64 { return 1.5 }, nil)
	if got := bad.Rate(shop, actor); got != 0 {
		t.Fatalf("out-of-range hook rate = %v, want 0", got)
	}
}
