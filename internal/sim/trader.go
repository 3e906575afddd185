package sim

import (
	"fmt"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
)

// Exchange is the part of a market a trader talks to. *market.Market
// satisfies it.
type Exchange interface {
	Name() string
	Goods() []ledger.GoodLabel
	Budget() float64
	QuoteBuy(kind domain.GoodKind, quantity float64) (float64, error)
	QuoteSell(kind domain.GoodKind, quantity float64) (float64, error)
	LockBuy(kind domain.GoodKind, quantity, bid float64, trader string) (string, error)
	LockSell(kind domain.GoodKind, quantity, offer float64, trader string) (string, error)
	Buy(token string, cash *domain.Good) (*domain.Good, error)
	Sell(token string, good *domain.Good) (*domain.Good, error)
	WaitOneDay()
}

// Wallet holds one parcel per kind.
type Wallet struct {
	goods map[domain.GoodKind]*domain.Good
}

// NewWallet creates a wallet holding only eur.
func NewWallet(eur float64) *Wallet {
	w := &Wallet{goods: make(map[domain.GoodKind]*domain.Good, len(domain.GoodKinds))}
	for _, kind := range domain.GoodKinds {
		w.goods[kind] = domain.NewGood(kind, 0)
	}
	w.goods[domain.DefaultGoodKind] = domain.NewGood(domain.DefaultGoodKind, eur)
	return w
}

// Good returns the wallet's parcel of kind. The parcel is live: splitting
// from it or merging into it changes the wallet.
func (w *Wallet) Good(kind domain.GoodKind) *domain.Good {
	return w.goods[kind]
}

// Deposit merges g into the wallet.
func (w *Wallet) Deposit(g *domain.Good) error {
	own, ok := w.goods[g.Kind()]
	if !ok {
		return fmt.Errorf("deposit %s: %w", g.Kind(), domain.ErrDifferentKinds)
	}
	return own.Merge(g)
}

// Holdings snapshots the wallet.
func (w *Wallet) Holdings() ledger.Quantities {
	return ledger.Quantities{
		EUR:  w.goods[domain.GoodKindEUR].Quantity(),
		USD:  w.goods[domain.GoodKindUSD].Quantity(),
		YEN:  w.goods[domain.GoodKindYEN].Quantity(),
		YUAN: w.goods[domain.GoodKindYUAN].Quantity(),
	}
}

// Trader is a named wallet driven by a strategy.
type Trader struct {
	Name     string
	Wallet   *Wallet
	Strategy Strategy
}

// NewTrader creates a trader starting with capital EUR.
func NewTrader(name string, capital float64, strategy Strategy) (*Trader, error) {
	if name == "" {
		return nil, &domain.ValidationError{Message: "trader name must not be empty"}
	}
	if capital <= 0 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("trader capital must be positive, got %v", capital)}
	}
	if strategy == nil {
		return nil, &domain.ValidationError{Message: "trader strategy must not be nil"}
	}
	return &Trader{
		Name:     name,
		Wallet:   NewWallet(capital),
		Strategy: strategy,
	}, nil
}
