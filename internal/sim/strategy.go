package sim

import (
	"log/slog"

	"github.com/efreitasn/sgx/internal/domain"
)

// Strategy decides what a trader does with its wallet on each step.
type Strategy interface {
	// Apply runs one trading step.
	Apply(trader string, w *Wallet, markets []Exchange)
	// SellRemaining turns every foreign good in w back into EUR where any
	// market will pay for it.
	SellRemaining(trader string, w *Wallet, markets []Exchange)
}

const (
	defaultBudgetShare = 0.3
	defaultMaxTries    = 20
	// A bid is only placed when its unit price stays below this multiple
	// of the market's buy rate.
	maxBuyRateMultiple = 1.5
)

// offer is a priced quantity at one market.
type offer struct {
	market   Exchange
	kind     domain.GoodKind
	quantity float64
	price    float64
}

func (o offer) unitPrice() float64 {
	return o.price / o.quantity
}

// position tracks what was paid for the goods of one kind still held.
type position struct {
	cost     float64
	quantity float64
}

func (p position) average() float64 {
	if p.quantity <= 0 {
		return 0
	}
	return p.cost / p.quantity
}

// SimpleStrategy buys the foreign good the trader holds least of wherever
// it is cheapest, and sells a good wherever a market pays more per unit
// than the trader paid for it on average.
type SimpleStrategy struct {
	logger      *slog.Logger
	budgetShare float64
	maxTries    int
	positions   map[domain.GoodKind]position
}

// NewSimpleStrategy creates a SimpleStrategy that spends at most a third
// of its EUR per purchase.
func NewSimpleStrategy(logger *slog.Logger) *SimpleStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimpleStrategy{
		logger:      logger,
		budgetShare: defaultBudgetShare,
		maxTries:    defaultMaxTries,
		positions:   make(map[domain.GoodKind]position),
	}
}

// Apply sells whatever is profitable, then buys once.
func (s *SimpleStrategy) Apply(trader string, w *Wallet, markets []Exchange) {
	for _, kind := range domain.GoodKinds {
		if kind == domain.DefaultGoodKind {
			continue
		}
		held := w.Good(kind).Quantity()
		if held <= 0 {
			continue
		}
		avg := s.positions[kind].average()
		best, ok := s.bestSellOffer(markets, kind, held, func(o offer) bool {
			return o.unitPrice() > avg
		})
		if ok {
			s.sell(trader, w, best)
		}
	}

	kind := scarcestForeign(w)
	maxEUR := w.Good(domain.DefaultGoodKind).Quantity() * s.budgetShare
	if best, ok := s.cheapestBuyOffer(markets, kind, maxEUR); ok {
		s.buy(trader, w, best)
	}
}

// SellRemaining sells every foreign good regardless of what it cost. When
// no market can pay for the whole holding, smaller parcels are tried.
func (s *SimpleStrategy) SellRemaining(trader string, w *Wallet, markets []Exchange) {
	for _, kind := range domain.GoodKinds {
		if kind == domain.DefaultGoodKind {
			continue
		}
		qty := w.Good(kind).Quantity()
		for tries := 0; qty > 0 && tries < s.maxTries; tries++ {
			best, ok := s.bestSellOffer(markets, kind, qty, func(offer) bool { return true })
			if !ok {
				qty /= 2
				continue
			}
			if !s.sell(trader, w, best) {
				break
			}
			qty = w.Good(kind).Quantity()
		}
	}
}

// cheapestBuyOffer asks every market for the largest quantity of kind that
// costs at most maxEUR, and returns the one with the lowest unit price.
func (s *SimpleStrategy) cheapestBuyOffer(markets []Exchange, kind domain.GoodKind, maxEUR float64) (offer, bool) {
	var best offer
	found := false
	for _, m := range markets {
		o, ok := s.findBid(m, kind, maxEUR)
		if !ok {
			continue
		}
		if !found || o.unitPrice() < best.unitPrice() {
			best, found = o, true
		}
	}
	return best, found
}

// findBid halves the quantity, starting from the market's whole stock,
// until the quote fits maxEUR at a reasonable unit price.
func (s *SimpleStrategy) findBid(m Exchange, kind domain.GoodKind, maxEUR float64) (offer, bool) {
	if kind == domain.DefaultGoodKind || maxEUR <= 0 {
		return offer{}, false
	}
	var qty, rate float64
	for _, l := range m.Goods() {
		if l.Kind == kind {
			qty, rate = l.Quantity, l.ExchangeRateBuy
		}
	}
	for tries := 0; qty > 0 && tries < s.maxTries; tries++ {
		price, err := m.QuoteBuy(kind, qty)
		if err == nil && price <= maxEUR && price/qty < rate*maxBuyRateMultiple {
			return offer{market: m, kind: kind, quantity: qty, price: price}, true
		}
		qty /= 2
	}
	return offer{}, false
}

// bestSellOffer quotes the full quantity at every market that can pay for
// it and returns the highest accepted offer.
func (s *SimpleStrategy) bestSellOffer(markets []Exchange, kind domain.GoodKind, qty float64, accept func(offer) bool) (offer, bool) {
	var best offer
	found := false
	for _, m := range markets {
		price, err := m.QuoteSell(kind, qty)
		if err != nil || price <= 0 || price > m.Budget() {
			continue
		}
		o := offer{market: m, kind: kind, quantity: qty, price: price}
		if !accept(o) {
			continue
		}
		if !found || o.price > best.price {
			best, found = o, true
		}
	}
	return best, found
}

func (s *SimpleStrategy) buy(trader string, w *Wallet, o offer) bool {
	token, err := o.market.LockBuy(o.kind, o.quantity, o.price, trader)
	if err != nil {
		s.logger.Debug("lock buy failed",
			slog.String("market", o.market.Name()),
			slog.String("kind", string(o.kind)),
			slog.String("error", err.Error()),
		)
		return false
	}
	got, err := o.market.Buy(token, w.Good(domain.DefaultGoodKind))
	if err != nil {
		s.logger.Warn("buy failed",
			slog.String("market", o.market.Name()),
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		return false
	}
	if err := w.Deposit(got); err != nil {
		s.logger.Error("deposit failed", slog.String("error", err.Error()))
		return false
	}

	p := s.positions[o.kind]
	p.cost += o.price
	p.quantity += o.quantity
	s.positions[o.kind] = p

	s.logger.Info("bought",
		slog.String("trader", trader),
		slog.String("market", o.market.Name()),
		slog.String("kind", string(o.kind)),
		slog.Float64("quantity", o.quantity),
		slog.Float64("price", o.price),
	)
	return true
}

func (s *SimpleStrategy) sell(trader string, w *Wallet, o offer) bool {
	token, err := o.market.LockSell(o.kind, o.quantity, o.price, trader)
	if err != nil {
		s.logger.Debug("lock sell failed",
			slog.String("market", o.market.Name()),
			slog.String("kind", string(o.kind)),
			slog.String("error", err.Error()),
		)
		return false
	}
	cash, err := o.market.Sell(token, w.Good(o.kind))
	if err != nil {
		s.logger.Warn("sell failed",
			slog.String("market", o.market.Name()),
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		return false
	}
	if err := w.Deposit(cash); err != nil {
		s.logger.Error("deposit failed", slog.String("error", err.Error()))
		return false
	}

	p := s.positions[o.kind]
	p.cost -= p.average() * o.quantity
	p.quantity -= o.quantity
	if p.quantity <= 0 {
		p = position{}
	}
	s.positions[o.kind] = p

	s.logger.Info("sold",
		slog.String("trader", trader),
		slog.String("market", o.market.Name()),
		slog.String("kind", string(o.kind)),
		slog.Float64("quantity", o.quantity),
		slog.Float64("price", o.price),
	)
	return true
}

// scarcestForeign returns the foreign kind w holds least of. Ties go to
// the kind listed first.
func scarcestForeign(w *Wallet) domain.GoodKind {
	var kind domain.GoodKind
	lowest := 0.0
	for _, k := range domain.GoodKinds {
		if k == domain.DefaultGoodKind {
			continue
		}
		if q := w.Good(k).Quantity(); kind == "" || q < lowest {
			kind, lowest = k, q
		}
	}
	return kind
}
