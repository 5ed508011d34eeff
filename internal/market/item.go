package market

// Item identifies what a shop trades. ID and Meta are the equality-relevant
// signature; Amount is the bundle size per trade (stacking shops) and never
// participates in matching.
type Item struct {
	ID     string
	Meta   string
	Amount int
}

// Matches reports whether two items are the same tradeable thing, ignoring
// bundle size.
func (i Item) Matches(other Item) bool {
	return i.ID == other.ID && i.Meta == other.Meta
}

// Bundle returns the per-trade stack size, never below 1.
func (i Item) Bundle() int {
	if i.Amount < 1 {
		return 1
	}
	return i.Amount
}
