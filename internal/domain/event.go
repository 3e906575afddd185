package domain

// Side distinguishes the buy-side of a good (a trader buys from the market)
// from the sell-side (a trader sells to the market).
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// EventKind classifies a market event.
type EventKind string

const (
	EventKindBought     EventKind = "bought"
	EventKindSold       EventKind = "sold"
	EventKindLockedBuy  EventKind = "locked_buy"
	EventKindLockedSell EventKind = "locked_sell"
	EventKindWait       EventKind = "wait"
)

// Event is emitted by a market after every successful lock or redemption
// and after each simulated day.
type Event struct {
	EventID  string
	Market   string
	Kind     EventKind
	GoodKind GoodKind
	Quantity float64
	Price    float64 // EUR
}

// Side returns the side of the market an event touched. Wait events have
// no side and return "".
func (e Event) Side() Side {
	switch e.Kind {
	case EventKindBought, EventKindLockedBuy:
		return SideBuy
	case EventKindSold, EventKindLockedSell:
		return SideSell
	}
	return ""
}

// IsTrade reports whether the event completed a trade, as opposed to only
// reserving one.
func (e Event) IsTrade() bool {
	return e.Kind == EventKindBought || e.Kind == EventKindSold
}
