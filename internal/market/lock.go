package market

import (
	"log/slog"
	"strconv"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/google/uuid"
)

// LockBuy reserves quantity of kind for trader at bid and returns the
// token that redeems it through Buy.
func (m *Market) LockBuy(kind domain.GoodKind, quantity, bid float64, trader string) (string, error) {
	m.mu.Lock()
	token, err := m.lockBuy(kind, quantity, bid, trader)
	if err != nil {
		m.audit.LockBuyError(trader, kind, quantity, bid)
		m.mu.Unlock()
		return "", err
	}
	m.audit.LockBuy(trader, kind, quantity, bid, token)
	m.mu.Unlock()

	m.publish(m.newEvent(domain.EventKindLockedBuy, kind, quantity, bid))
	return token, nil
}

func (m *Market) lockBuy(kind domain.GoodKind, quantity, bid float64, trader string) (string, error) {
	e, err := m.entry(kind)
	if err != nil {
		return "", err
	}
	if l, ok := e.Meta.LockFor(domain.SideBuy); ok {
		return "", &domain.AlreadyLockedError{Token: l.Token}
	}
	if m.goods.LockCount(domain.SideBuy) >= m.goods.MaxLocks() {
		return "", domain.ErrMaxLocksReached
	}
	lowest, err := m.quoteBuy(kind, quantity)
	if err != nil {
		return "", err
	}
	if err := domain.CheckPositive(domain.ErrNonPositiveBid, bid); err != nil {
		return "", err
	}
	if bid < lowest {
		return "", &domain.BidTooLowError{Kind: kind, Quantity: quantity, Bid: bid, LowestAcceptableBid: lowest}
	}

	token := m.newToken(domain.SideBuy, trader, kind, quantity)
	e.Meta.Lock(domain.SideBuy, ledger.NewLock(quantity, kind, bid, trader, token))

	available := e.Good.Quantity()
	e.Meta.FluctuateBuyPrice(available / (available - quantity))

	m.logger.Debug("buy locked",
		slog.String("market", m.name),
		slog.String("token", token),
		slog.String("kind", string(kind)),
		slog.Float64("quantity", quantity),
		slog.Float64("bid", bid),
	)
	return token, nil
}

// LockSell reserves a purchase of quantity of kind from trader at offer
// and returns the token that redeems it through Sell.
func (m *Market) LockSell(kind domain.GoodKind, quantity, offer float64, trader string) (string, error) {
	m.mu.Lock()
	token, err := m.lockSell(kind, quantity, offer, trader)
	if err != nil {
		m.audit.LockSellError(trader, kind, quantity, offer)
		m.mu.Unlock()
		return "", err
	}
	m.audit.LockSell(trader, kind, quantity, offer, token)
	m.mu.Unlock()

	m.publish(m.newEvent(domain.EventKindLockedSell, kind, quantity, offer))
	return token, nil
}

func (m *Market) lockSell(kind domain.GoodKind, quantity, offer float64, trader string) (string, error) {
	e, err := m.entry(kind)
	if err != nil {
		return "", err
	}
	if l, ok := e.Meta.LockFor(domain.SideSell); ok {
		return "", &domain.AlreadyLockedError{Token: l.Token}
	}
	if m.goods.LockCount(domain.SideSell) >= m.goods.MaxLocks() {
		return "", domain.ErrMaxLocksReached
	}
	if err := domain.CheckPositive(domain.ErrNonPositiveQuantity, quantity); err != nil {
		return "", err
	}
	if !domain.Finite(offer) {
		return "", &domain.NonFiniteError{Value: offer}
	}
	if balance := m.goods.Default().Good.Quantity(); offer > balance {
		return "", &domain.InsufficientSettlementError{Kind: kind, Offer: offer, Available: balance}
	}
	highest, err := m.quoteSell(kind, quantity)
	if err != nil {
		return "", err
	}
	if err := domain.CheckPositive(domain.ErrNonPositiveOffer, offer); err != nil {
		return "", err
	}
	if offer > highest {
		return "", &domain.OfferTooHighError{Kind: kind, Quantity: quantity, Offer: offer, HighestAcceptableOffer: highest}
	}

	token := m.newToken(domain.SideSell, trader, kind, quantity)
	e.Meta.Lock(domain.SideSell, ledger.NewLock(quantity, kind, offer, trader, token))

	if available := e.Good.Quantity(); available > 0 {
		e.Meta.FluctuateSellPrice(available / (available + quantity))
	}

	m.logger.Debug("sell locked",
		slog.String("market", m.name),
		slog.String("token", token),
		slog.String("kind", string(kind)),
		slog.Float64("quantity", quantity),
		slog.Float64("offer", offer),
	)
	return token, nil
}

// newToken derives the token of a new lock. A token already live or
// expired on side gets a numeric suffix so it can never be revived.
func (m *Market) newToken(side domain.Side, trader string, kind domain.GoodKind, quantity float64) string {
	base := ledger.Token(trader, kind, quantity)
	if m.uniqueTokens {
		return base + "-" + uuid.NewString()
	}
	token := base
	for n := 2; m.goods.TokenInUse(side, token); n++ {
		token = base + "-" + strconv.Itoa(n)
	}
	return token
}
