package market

import (
	"fmt"
	"log/slog"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
)

// Buy redeems a buy reservation. cash must be an EUR parcel holding at
// least the agreed bid; the bid is taken out of it and the locked goods are
// returned. Once token resolves, the reservation is released whether or
// not the redemption succeeds.
func (m *Market) Buy(token string, cash *domain.Good) (*domain.Good, error) {
	m.mu.Lock()
	good, lock, err := m.buy(token, cash)
	m.audit.Buy(token, err == nil)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.publish(m.newEvent(domain.EventKindBought, lock.Kind, lock.Quantity, lock.AgreedPrice))
	return good, nil
}

func (m *Market) buy(token string, cash *domain.Good) (*domain.Good, ledger.Lock, error) {
	e, lock, err := m.resolve(domain.SideBuy, token)
	if err != nil {
		return nil, ledger.Lock{}, err
	}
	defer m.release(e, domain.SideBuy, lock)

	if cash.Kind() != domain.DefaultGoodKind {
		return nil, lock, &domain.WrongGoodKindError{Err: domain.ErrGoodKindNotDefault, Got: cash.Kind(), Want: domain.DefaultGoodKind}
	}
	if cash.Quantity() < lock.AgreedPrice {
		return nil, lock, &domain.InsufficientGoodQuantityError{Contained: cash.Quantity(), PreAgreed: lock.AgreedPrice}
	}
	if total := m.goods.Default().Good.Quantity() + lock.AgreedPrice; !domain.Finite(total) {
		return nil, lock, &domain.NonFiniteError{Value: total}
	}

	payment, err := cash.Split(lock.AgreedPrice)
	if err != nil {
		return nil, lock, fmt.Errorf("take payment: %w", err)
	}
	before := e.Good.Quantity()
	out, err := e.Good.Split(lock.Quantity)
	if err != nil {
		// Hand the payment back before failing.
		_ = cash.Merge(payment)
		return nil, lock, fmt.Errorf("split locked quantity: %w", err)
	}
	if after := e.Good.Quantity(); after > 0 {
		e.Meta.FluctuateBuyPrice(before / after)
	}
	if err := m.goods.Default().Good.Merge(payment); err != nil {
		panic(fmt.Sprintf("market: settle payment: %v", err))
	}
	return out, lock, nil
}

// Sell redeems a sell reservation. good must be of the locked kind and hold
// at least the locked quantity; that quantity is taken out of it and an EUR
// parcel of exactly the agreed offer is returned. Once token resolves, the
// reservation is released whether or not the redemption succeeds.
func (m *Market) Sell(token string, good *domain.Good) (*domain.Good, error) {
	m.mu.Lock()
	cash, lock, err := m.sell(token, good)
	m.audit.Sell(token, err == nil)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.publish(m.newEvent(domain.EventKindSold, lock.Kind, lock.Quantity, lock.AgreedPrice))
	return cash, nil
}

func (m *Market) sell(token string, good *domain.Good) (*domain.Good, ledger.Lock, error) {
	e, lock, err := m.resolve(domain.SideSell, token)
	if err != nil {
		return nil, ledger.Lock{}, err
	}
	defer m.release(e, domain.SideSell, lock)

	if good.Kind() != lock.Kind {
		return nil, lock, &domain.WrongGoodKindError{Err: domain.ErrWrongGoodKind, Got: good.Kind(), Want: lock.Kind}
	}
	if good.Quantity() < lock.Quantity {
		return nil, lock, &domain.InsufficientGoodQuantityError{Contained: good.Quantity(), PreAgreed: lock.Quantity}
	}
	if total := e.Good.Quantity() + lock.Quantity; !domain.Finite(total) {
		return nil, lock, &domain.NonFiniteError{Value: total}
	}
	settlement := m.goods.Default().Good
	if settlement.Quantity() < lock.AgreedPrice {
		return nil, lock, &domain.InsufficientSettlementError{Kind: lock.Kind, Offer: lock.AgreedPrice, Available: settlement.Quantity()}
	}

	payout, err := settlement.Split(lock.AgreedPrice)
	if err != nil {
		return nil, lock, fmt.Errorf("take payout: %w", err)
	}
	received, err := good.Split(lock.Quantity)
	if err != nil {
		_ = settlement.Merge(payout)
		return nil, lock, fmt.Errorf("split offered good: %w", err)
	}
	before := e.Good.Quantity()
	if err := e.Good.Merge(received); err != nil {
		panic(fmt.Sprintf("market: stock received good: %v", err))
	}
	if before > 0 {
		e.Meta.FluctuateSellPrice(before / e.Good.Quantity())
	}
	return payout, lock, nil
}

// resolve finds the live lock for token on side. A token that is not live
// is reported as expired when any good has released it, else unrecognized.
func (m *Market) resolve(side domain.Side, token string) (ledger.Entry, ledger.Lock, error) {
	e, ok := m.goods.EntryForToken(side, token)
	if !ok {
		if m.goods.HasExpiredToken(side, token) {
			return ledger.Entry{}, ledger.Lock{}, &domain.TokenError{Err: domain.ErrExpiredToken, Token: token}
		}
		return ledger.Entry{}, ledger.Lock{}, &domain.TokenError{Err: domain.ErrUnrecognizedToken, Token: token}
	}
	lock, _ := e.Meta.LockFor(side)
	return e, lock, nil
}

func (m *Market) release(e ledger.Entry, side domain.Side, lock ledger.Lock) {
	e.Meta.Unlock(side)
	m.logger.Debug("lock released",
		slog.String("market", m.name),
		slog.String("side", string(side)),
		slog.String("token", lock.Token),
	)
}
