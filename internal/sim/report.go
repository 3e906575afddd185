package sim

import (
	"fmt"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/efreitasn/sgx/internal/store"
)

// KindReport summarises the trades of one good across all markets.
type KindReport struct {
	Kind           domain.GoodKind `json:"kind"`
	Trades         int             `json:"trades"`
	TradesInWindow int             `json:"trades_in_window"`
	Volume         float64         `json:"volume"`
	VWAP           *float64        `json:"vwap"` // EUR per unit; nil when never traded
}

// Report summarises a finished run.
type Report struct {
	Days      int               `json:"days"`
	Window    int               `json:"window"`
	Start     ledger.Quantities `json:"start"`
	End       ledger.Quantities `json:"end"`
	ProfitEUR float64           `json:"profit_eur"`
	Kinds     []KindReport      `json:"kinds"`
}

// BuildReport summarises history and the trades recorded in events. The
// unit price of each foreign good is its VWAP over trades made in the last
// window days, falling back to the last trade's unit price when the window
// holds none.
func BuildReport(history []Snapshot, events *store.EventStore, window int) (*Report, error) {
	if len(history) == 0 {
		return nil, &domain.ValidationError{Message: "history must not be empty"}
	}
	if window < 1 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("window must be at least 1, got %d", window)}
	}

	start, end := history[0], history[len(history)-1]
	rep := &Report{
		Days:      end.Day,
		Window:    window,
		Start:     start.Holdings,
		End:       end.Holdings,
		ProfitEUR: end.Holdings.EUR - start.Holdings.EUR,
	}

	windowStart := end.Day - window
	for _, kind := range domain.GoodKinds {
		if kind == domain.DefaultGoodKind {
			continue
		}
		rep.Kinds = append(rep.Kinds, kindReport(kind, events.Trades(kind), windowStart))
	}
	return rep, nil
}

func kindReport(kind domain.GoodKind, trades []store.Record, windowStart int) KindReport {
	kr := KindReport{Kind: kind, Trades: len(trades)}
	if len(trades) == 0 {
		return kr
	}

	var sumPrice, sumQty float64
	for i := len(trades) - 1; i >= 0; i-- {
		t := trades[i]
		kr.Volume += t.Quantity
		if t.Day < windowStart {
			continue
		}
		sumPrice += t.Price
		sumQty += t.Quantity
		kr.TradesInWindow++
	}

	var vwap float64
	if sumQty > 0 {
		vwap = sumPrice / sumQty
	} else {
		last := trades[len(trades)-1]
		vwap = last.Price / last.Quantity
	}
	kr.VWAP = &vwap
	return kr
}
