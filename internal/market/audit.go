package market

// TradeLogEntry is one committed trade, written to the audit log after the
// goods have moved. Time is unix milliseconds.
type TradeLogEntry struct {
	Time      int64   `json:"time"`
	World     string  `json:"world"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Z         int     `json:"z"`
	Actor     string  `json:"actor"`
	Owner     string  `json:"owner"`
	Direction string  `json:"direction"` // SELLING or BUYING, from the shop's view
	ItemID    string  `json:"item_id"`
	Amount    int     `json:"amount"`
	Total     float64 `json:"total"`
	Tax       float64 `json:"tax"`
	Currency  string  `json:"currency,omitempty"`
}

// TradeAuditor records committed trades. May be nil on a Manager.
type TradeAuditor interface {
	WriteTrade(TradeLogEntry) error
}
