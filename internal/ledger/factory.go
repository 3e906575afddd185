package ledger

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/shopspring/decimal"
)

// Quantities holds the starting stock of each good.
type Quantities struct {
	EUR  float64 `json:"eur" yaml:"eur"`
	USD  float64 `json:"usd" yaml:"usd"`
	YEN  float64 `json:"yen" yaml:"yen"`
	YUAN float64 `json:"yuan" yaml:"yuan"`
}

// Total returns the sum of the quantities.
func (q Quantities) Total() float64 {
	return q.EUR + q.USD + q.YEN + q.YUAN
}

// Of returns the quantity of kind.
func (q Quantities) Of(kind domain.GoodKind) float64 {
	switch kind {
	case domain.GoodKindEUR:
		return q.EUR
	case domain.GoodKindUSD:
		return q.USD
	case domain.GoodKindYEN:
		return q.YEN
	case domain.GoodKindYUAN:
		return q.YUAN
	}
	return 0
}

// Validate checks that every quantity is finite and not negative.
func (q Quantities) Validate() error {
	for _, g := range []struct {
		kind     domain.GoodKind
		quantity float64
	}{
		{domain.GoodKindEUR, q.EUR},
		{domain.GoodKindUSD, q.USD},
		{domain.GoodKindYEN, q.YEN},
		{domain.GoodKindYUAN, q.YUAN},
	} {
		if !domain.Finite(g.quantity) {
			return &domain.ValidationError{Message: fmt.Sprintf("%s quantity must be finite, got %v", g.kind, g.quantity)}
		}
		if g.quantity < 0 {
			return &domain.ValidationError{Message: fmt.Sprintf("%s quantity must not be negative", g.kind)}
		}
	}
	return nil
}

// Goods returns one parcel per kind in inventory order. Negative values are
// clamped to zero by domain.NewGood, so call Validate first when that
// matters.
func (q Quantities) Goods() []*domain.Good {
	return []*domain.Good{
		domain.NewGood(domain.GoodKindEUR, q.EUR),
		domain.NewGood(domain.GoodKindUSD, q.USD),
		domain.NewGood(domain.GoodKindYEN, q.YEN),
		domain.NewGood(domain.GoodKindYUAN, q.YUAN),
	}
}

// WithQuantities builds an inventory holding exactly q.
func WithQuantities(q Quantities) (*GoodStorage, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return NewGoodStorage(q.Goods()...)
}

// RandomQuantities splits capital into one quantity per kind. The parts
// add up to capital exactly, both in decimal arithmetic and as the float64
// Total of the result. A negative or non-finite capital yields zero
// quantities.
func RandomQuantities(capital float64, rng *rand.Rand) Quantities {
	if !domain.Finite(capital) || capital < 0 {
		return Quantities{}
	}
	parts := partition(decimal.NewFromFloat(capital), len(domain.GoodKinds), rng)
	amounts := make([]float64, len(parts))
	for i, p := range parts {
		amounts[i] = p.InexactFloat64()
	}
	settle(capital, amounts)
	return Quantities{
		EUR:  amounts[0],
		USD:  amounts[1],
		YEN:  amounts[2],
		YUAN: amounts[3],
	}
}

// Random builds an inventory from RandomQuantities.
func Random(capital float64, rng *rand.Rand) (*GoodStorage, error) {
	if !domain.Finite(capital) {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("capital must be finite, got %v", capital)}
	}
	if capital < 0 {
		return nil, &domain.ValidationError{Message: "capital must not be negative"}
	}
	return NewGoodStorage(RandomQuantities(capital, rng).Goods()...)
}

const maxSettleSteps = 256

// settle makes amounts, summed left to right, equal total exactly. The last
// amount becomes whatever the others leave; when float rounding still misses
// total, or would leave a negative remainder, the largest of the others is
// shaved by one ulp and the remainder recomputed.
func settle(total float64, amounts []float64) {
	head := amounts[:len(amounts)-1]
	var sum float64
	for step := 0; step < maxSettleSteps; step++ {
		sum = 0
		for _, a := range head {
			sum += a
		}
		last := total - sum
		if last >= 0 && sum+last == total {
			amounts[len(amounts)-1] = last
			return
		}
		largest := 0
		for i, a := range head {
			if a > head[largest] {
				largest = i
			}
		}
		head[largest] = math.Nextafter(head[largest], 0)
	}
	amounts[len(amounts)-1] = math.Max(total-sum, 0)
}

// partition cuts total into n parts. Each step keeps a random share of the
// remainder and hands out the rest; the last part is whatever remains.
func partition(total decimal.Decimal, n int, rng *rand.Rand) []decimal.Decimal {
	parts := make([]decimal.Decimal, 0, n)
	remaining := total
	for i := 0; i < n-1; i++ {
		share := decimal.Min(remaining.Mul(decimal.NewFromFloat(rng.Float64())).Round(4), remaining)
		parts = append(parts, remaining.Sub(share))
		remaining = share
	}
	return append(parts, remaining)
}
