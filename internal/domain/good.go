package domain

import (
	"errors"
	"fmt"
)

// GoodKind identifies one of the four tradable goods.
type GoodKind string

const (
	GoodKindEUR  GoodKind = "EUR"
	GoodKindUSD  GoodKind = "USD"
	GoodKindYEN  GoodKind = "YEN"
	GoodKindYUAN GoodKind = "YUAN"
)

// DefaultGoodKind is the settlement currency. Every trade clears through it.
const DefaultGoodKind = GoodKindEUR

// Exchange rates of the foreign goods against EUR used to seed a market.
const (
	DefaultEURUSDExchangeRate  = 1.03576
	DefaultEURYENExchangeRate  = 144.3
	DefaultEURYUANExchangeRate = 7.32
)

// GoodKinds lists every kind in inventory order.
var GoodKinds = []GoodKind{GoodKindEUR, GoodKindUSD, GoodKindYEN, GoodKindYUAN}

// Valid reports whether k is one of the four known kinds.
func (k GoodKind) Valid() bool {
	switch k {
	case GoodKindEUR, GoodKindUSD, GoodKindYEN, GoodKindYUAN:
		return true
	}
	return false
}

// DefaultExchangeRate returns the seed rate of k against EUR.
func (k GoodKind) DefaultExchangeRate() float64 {
	switch k {
	case GoodKindUSD:
		return DefaultEURUSDExchangeRate
	case GoodKindYEN:
		return DefaultEURYENExchangeRate
	case GoodKindYUAN:
		return DefaultEURYUANExchangeRate
	default:
		return 1
	}
}

// Errors returned by Good.Split and Good.Merge.
var (
	ErrNonPositiveSplit  = errors.New("non_positive_split")
	ErrNotEnoughQuantity = errors.New("not_enough_quantity")
	ErrDifferentKinds    = errors.New("different_kinds")
)

// Good is a parcel of a single kind. Parcels move between traders and
// markets through Split and Merge so quantity is never created or lost.
type Good struct {
	kind     GoodKind
	quantity float64
}

// NewGood creates a parcel. Negative and non-finite quantities are clamped
// to zero.
func NewGood(kind GoodKind, quantity float64) *Good {
	if !Finite(quantity) || quantity < 0 {
		quantity = 0
	}
	return &Good{kind: kind, quantity: quantity}
}

// Kind returns the parcel's kind.
func (g *Good) Kind() GoodKind {
	return g.kind
}

// Quantity returns the parcel's quantity.
func (g *Good) Quantity() float64 {
	return g.quantity
}

// Split removes quantity from g and returns it as a new parcel.
func (g *Good) Split(quantity float64) (*Good, error) {
	if !Finite(quantity) {
		return nil, &NonFiniteError{Value: quantity}
	}
	if quantity <= 0 {
		return nil, ErrNonPositiveSplit
	}
	if quantity > g.quantity {
		return nil, fmt.Errorf("split %v %s from %v: %w", quantity, g.kind, g.quantity, ErrNotEnoughQuantity)
	}
	g.quantity -= quantity
	return &Good{kind: g.kind, quantity: quantity}, nil
}

// Merge moves the whole of other into g. other is left empty. A merge whose
// total would overflow leaves both parcels untouched.
func (g *Good) Merge(other *Good) error {
	if other.kind != g.kind {
		return fmt.Errorf("merge %s into %s: %w", other.kind, g.kind, ErrDifferentKinds)
	}
	total := g.quantity + other.quantity
	if !Finite(total) {
		return fmt.Errorf("merge %v %s into %v: %w", other.quantity, other.kind, g.quantity, &NonFiniteError{Value: total})
	}
	g.quantity = total
	other.quantity = 0
	return nil
}

func (g *Good) String() string {
	return fmt.Sprintf("%v %s", g.quantity, g.kind)
}
