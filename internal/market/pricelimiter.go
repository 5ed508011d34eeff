package market

import (
	"math"
	"strconv"
	"strings"

	"chestshop.dev/internal/config"
)

type PriceStatus int

const (
	PriceOK PriceStatus = iota
	PriceNotValid
	PriceNotAWholeNumber
	PriceRestricted
	PriceReachedMinLimit
	PriceReachedMaxLimit
)

func (s PriceStatus) String() string {
	switch s {
	case PriceOK:
		return "OK"
	case PriceNotValid:
		return "NOT_VALID"
	case PriceNotAWholeNumber:
		return "NOT_A_WHOLE_NUMBER"
	case PriceRestricted:
		return "PRICE_RESTRICTED"
	case PriceReachedMinLimit:
		return "REACHED_PRICE_MIN_LIMIT"
	case PriceReachedMaxLimit:
		return "REACHED_PRICE_MAX_LIMIT"
	}
	return "UNKNOWN"
}

// PriceCheck carries the verdict plus the bounds to show the actor.
type PriceCheck struct {
	Status PriceStatus
	Min    float64
	Max    float64
}

// PriceLimiter validates proposed shop prices. Pure: no side effects, same
// input gives the same verdict. Rules are evaluated in a fixed order and the
// first match wins.
type PriceLimiter struct {
	limits    config.PriceLimits
	maxDigits int
}

func NewPriceLimiter(cfg config.Config) *PriceLimiter {
	return &PriceLimiter{
		limits:    cfg.PriceLimits,
		maxDigits: cfg.MaximumDigitsInPrice,
	}
}

func (l *PriceLimiter) Check(item Item, currency string, price float64) PriceCheck {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return PriceCheck{Status: PriceNotValid}
	}

	if l.limits.WholeNumberOnly && l.maxDigits != -1 {
		if fractionalDigits(price) > l.maxDigits {
			return PriceCheck{Status: PriceNotAWholeNumber, Min: float64(l.maxDigits)}
		}
	}

	min := l.limits.Min
	max := l.limits.Max
	for _, rule := range l.limits.Rules {
		if !ruleApplies(rule, item, currency) {
			continue
		}
		if len(rule.Ranges) > 0 {
			if ok, lo, hi := withinRanges(rule.Ranges, price); !ok {
				return PriceCheck{Status: PriceRestricted, Min: lo, Max: hi}
			}
		}
		if rule.Min != 0 {
			min = rule.Min
		}
		if rule.Max != 0 {
			max = rule.Max
		}
		break
	}

	if price < min {
		return PriceCheck{Status: PriceReachedMinLimit, Min: min, Max: max}
	}
	if max >= 0 && price > max {
		return PriceCheck{Status: PriceReachedMaxLimit, Min: min, Max: max}
	}
	return PriceCheck{Status: PriceOK, Min: min, Max: max}
}

func ruleApplies(rule config.Rule, item Item, currency string) bool {
	found := false
	for _, id := range rule.Items {
		if id == item.ID {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	if len(rule.Currencies) == 0 {
		return true
	}
	for _, c := range rule.Currencies {
		if strings.EqualFold(c, currency) {
			return true
		}
	}
	return false
}

// withinRanges reports whether price falls inside any allowed sub-range; when
// it does not, it returns the tightest bounds for the rejection message.
func withinRanges(ranges [][2]float64, price float64) (ok bool, lo, hi float64) {
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, r := range ranges {
		if price >= r[0] && price <= r[1] {
			return true, r[0], r[1]
		}
		if r[0] < lo {
			lo = r[0]
		}
		if r[1] > hi {
			hi = r[1]
		}
	}
	return false, lo, hi
}

// fractionalDigits counts decimal digits after the point, capped at nine the
// way the price prompt formats them.
func fractionalDigits(v float64) int {
	s := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	frac := s[dot+1:]
	if len(frac) > 9 {
		frac = frac[:9]
	}
	frac = strings.TrimRight(frac, "0")
	return len(frac)
}
