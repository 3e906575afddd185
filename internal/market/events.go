package market

import (
	"log/slog"

	"github.com/efreitasn/sgx/internal/domain"
)

const (
	dailyBuyDecay  = 0.90
	dailySellDecay = 0.95
	// Applied to the opposite side when a peer trades a good.
	crossMarketPressure = 1.05
)

// WaitOneDay advances the market by one day: foreign rates decay, every
// reservation ages, and reservations that have reached the maximum age are
// released. A Wait event is emitted afterwards.
func (m *Market) WaitOneDay() {
	m.mu.Lock()
	for _, e := range m.goods.Entries() {
		if e.Good.Kind() == domain.DefaultGoodKind {
			continue
		}
		e.Meta.FluctuateBuyPrice(dailyBuyDecay)
		e.Meta.FluctuateSellPrice(dailySellDecay)
	}
	for _, l := range m.goods.AgeLocks(m.maxLockAge) {
		m.logger.Info("lock expired",
			slog.String("market", m.name),
			slog.String("token", l.Token),
			slog.String("kind", string(l.Kind)),
			slog.String("trader", l.Trader),
			slog.Int("age_days", l.AgeInDays),
		)
	}
	m.mu.Unlock()

	m.publish(m.newEvent(domain.EventKindWait, "", 0, 0))
}

// OnEvent reacts to a trade or reservation reported by a subscribed market.
// A buy elsewhere makes the good scarcer, so the sell rate rises and the
// buy rate is pulled toward the clearing price. Sells mirror this. Wait
// events and events without a finite positive price are ignored; each
// market's day is advanced by its own caller.
func (m *Market) OnEvent(e domain.Event) {
	if e.Kind == domain.EventKindWait || !domain.Finite(e.Price) || e.Price <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.goods.Entry(e.GoodKind)
	if !ok {
		return
	}
	switch e.Side() {
	case domain.SideBuy:
		ours, err := m.quoteBuy(e.GoodKind, e.Quantity)
		if err != nil {
			return
		}
		entry.Meta.FluctuateSellPrice(crossMarketPressure)
		if ours > e.Price {
			entry.Meta.FluctuateBuyPrice(e.Price / ours)
		}
	case domain.SideSell:
		ours, err := m.quoteSell(e.GoodKind, e.Quantity)
		if err != nil {
			return
		}
		entry.Meta.FluctuateBuyPrice(crossMarketPressure)
		if ours > e.Price {
			entry.Meta.FluctuateSellPrice(e.Price / ours)
		}
	}
}
