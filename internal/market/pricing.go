package market

import (
	"github.com/efreitasn/sgx/internal/domain"
)

const (
	buyMargin  = 0.05
	sellMargin = 0.15
)

// QuoteBuy returns the EUR price a trader pays to buy quantity of kind.
func (m *Market) QuoteBuy(kind domain.GoodKind, quantity float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, err := m.quoteBuy(kind, quantity)
	if err != nil {
		m.audit.QuoteBuyError(kind, quantity)
		return 0, err
	}
	return price, nil
}

// QuoteSell returns the EUR price the market pays for quantity of kind.
func (m *Market) QuoteSell(kind domain.GoodKind, quantity float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	price, err := m.quoteSell(kind, quantity)
	if err != nil {
		m.audit.QuoteSellError(kind, quantity)
		return 0, err
	}
	return price, nil
}

// quoteBuy prices a purchase from the market. The demand factor grows
// without bound as the purchase approaches the whole stock, so buying the
// entire stock is rejected.
func (m *Market) quoteBuy(kind domain.GoodKind, quantity float64) (float64, error) {
	if err := domain.CheckPositive(domain.ErrNonPositiveQuantity, quantity); err != nil {
		return 0, err
	}
	e, err := m.entry(kind)
	if err != nil {
		return 0, err
	}
	available := e.Good.Quantity()
	if quantity >= available {
		return 0, &domain.InsufficientQuantityError{Kind: kind, Requested: quantity, Available: available}
	}
	exchange := quantity * e.Meta.BaseBuyPrice
	demand := available / (available - quantity)
	margin := exchange * buyMargin
	return (exchange + margin) * demand, nil
}

// quoteSell prices a sale to the market. Stock is not checked.
func (m *Market) quoteSell(kind domain.GoodKind, quantity float64) (float64, error) {
	if err := domain.CheckPositive(domain.ErrNonPositiveQuantity, quantity); err != nil {
		return 0, err
	}
	e, err := m.entry(kind)
	if err != nil {
		return 0, err
	}
	available := e.Good.Quantity()
	exchange := quantity * e.Meta.BaseSellPrice
	demand := available / (available + quantity)
	margin := exchange * sellMargin
	return (exchange + margin) * demand, nil
}
