package market

import (
	"math"
	"testing"

	"chestshop.dev/internal/config"
)

func limiterWith(mutate func(*config.Config)) *PriceLimiter {
	cfg := config.Defaults()
	if mutate != nil {
		mutate(&cfg)
	}
	return NewPriceLimiter(cfg)
}

func TestPriceLimiter_OK(t *testing.T) {
	l := limiterWith(nil)
	got := l.Check(Item{ID: "minecraft:diamond"}, "", 10)
	if got.Status != PriceOK {
		t.Fatalf("status = %v, want OK", got.Status)
	}
}

func TestPriceLimiter_NotValid(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		// Invalid inputs outrank every other rule, including whole-number.
		c.PriceLimits.WholeNumberOnly = true
		c.MaximumDigitsInPrice = 0
	})
	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -3} {
		if got := l.Check(Item{ID: "minecraft:diamond"}, "", price); got.Status != PriceNotValid {
			t.Fatalf("Check(%v) = %v, want NOT_VALID", price, got.Status)
		}
	}
}

func TestPriceLimiter_WholeNumberDigits(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		c.PriceLimits.WholeNumberOnly = true
		c.MaximumDigitsInPrice = 5
	})
	got := l.Check(Item{ID: "minecraft:diamond"}, "", 10.123456789)
	if got.Status != PriceNotAWholeNumber {
		t.Fatalf("status = %v, want NOT_A_WHOLE_NUMBER", got.Status)
	}
	if got := l.Check(Item{ID: "minecraft:diamond"}, "", 10.12345); got.Status != PriceOK {
		t.Fatalf("5 fractional digits rejected: %v", got.Status)
	}
	// Digit limit -1 disables the check entirely.
	open := limiterWith(func(c *config.Config) {
		c.PriceLimits.WholeNumberOnly = true
		c.MaximumDigitsInPrice = -1
	})
	if got := open.Check(Item{ID: "minecraft:diamond"}, "", 10.123456789); got.Status != PriceOK {
		t.Fatalf("unlimited digits still rejected: %v", got.Status)
	}
}

func TestPriceLimiter_Restricted(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		c.PriceLimits.Rules = []config.Rule{{
			Items:  []string{"minecraft:emerald"},
			Ranges: [][2]float64{{5, 10}, {50, 60}},
		}}
	})
	got := l.Check(Item{ID: "minecraft:emerald"}, "", 20)
	if got.Status != PriceRestricted {
		t.Fatalf("status = %v, want PRICE_RESTRICTED", got.Status)
	}
	if got.Min != 5 || got.Max != 60 {
		t.Fatalf("bounds = (%v,%v), want (5,60)", got.Min, got.Max)
	}
	if got := l.Check(Item{ID: "minecraft:emerald"}, "", 55); got.Status != PriceOK {
		t.Fatalf("in-range price rejected: %v", got.Status)
	}
	// Other items are untouched by the rule.
	if got := l.Check(Item{ID: "minecraft:diamond"}, "", 20); got.Status != PriceOK {
		t.Fatalf("rule leaked to unlisted item: %v", got.Status)
	}
}

func TestPriceLimiter_RuleCurrencyScope(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		c.PriceLimits.Rules = []config.Rule{{
			Items:      []string{"minecraft:emerald"},
			Currencies: []string{"gems"},
			Ranges:     [][2]float64{{5, 10}},
		}}
	})
	if got := l.Check(Item{ID: "minecraft:emerald"}, "gems", 20); got.Status != PriceRestricted {
		t.Fatalf("matching currency not restricted: %v", got.Status)
	}
	if got := l.Check(Item{ID: "minecraft:emerald"}, "coins", 20); got.Status != PriceOK {
		t.Fatalf("non-matching currency restricted: %v", got.Status)
	}
}

func TestPriceLimiter_MinMax(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		c.PriceLimits.Min = 1
		c.PriceLimits.Max = 100
	})
	if got := l.Check(Item{ID: "minecraft:dirt"}, "", 0.5); got.Status != PriceReachedMinLimit {
		t.Fatalf("status = %v, want REACHED_PRICE_MIN_LIMIT", got.Status)
	}
	if got := l.Check(Item{ID: "minecraft:dirt"}, "", 500); got.Status != PriceReachedMaxLimit {
		t.Fatalf("status = %v, want REACHED_PRICE_MAX_LIMIT", got.Status)
	}
	// Max -1 means no upper bound.
	open := limiterWith(func(c *config.Config) { c.PriceLimits.Max = -1 })
	if got := open.Check(Item{ID: "minecraft:dirt"}, "", 1e12); got.Status != PriceOK {
		t.Fatalf("unlimited max rejected: %v", got.Status)
	}
}

func TestPriceLimiter_RuleOverridesBounds(t *testing.T) {
	l := limiterWith(func(c *config.Config) {
		c.PriceLimits.Min = 0.01
		c.PriceLimits.Max = -1
		c.PriceLimits.Rules = []config.Rule{{
			Items: []string{"minecraft:netherite_ingot"},
			Min:   100,
			Max:   1000,
		}}
	})
	if got := l.Check(Item{ID: "minecraft:netherite_ingot"}, "", 50); got.Status != PriceReachedMinLimit {
		t.Fatalf("status = %v, want REACHED_PRICE_MIN_LIMIT from rule", got.Status)
	}
	if got := l.Check(Item{ID: "minecraft:netherite_ingot"}, "", 5000); got.Status != PriceReachedMaxLimit {
		t.Fatalf("status = %v, want REACHED_PRICE_MAX_LIMIT from rule", got.Status)
	}
}
