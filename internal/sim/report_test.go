package sim

import (
	"errors"
	"fmt"
	"testing"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/efreitasn/sgx/internal/store"
	"pgregory.net/rapid"
)

func trade(id string, kind domain.EventKind, good domain.GoodKind, qty, price float64) domain.Event {
	return domain.Event{EventID: id, Market: "A", Kind: kind, GoodKind: good, Quantity: qty, Price: price}
}

func wait() domain.Event {
	return domain.Event{EventID: "wait", Market: "A", Kind: domain.EventKindWait}
}

func testHistory() []Snapshot {
	return []Snapshot{
		{Day: 0, Holdings: ledger.Quantities{EUR: 100}},
		{Day: 1, Holdings: ledger.Quantities{EUR: 88, USD: 10}},
		{Day: 2, Holdings: ledger.Quantities{EUR: 110}},
	}
}

func findKind(t *testing.T, rep *Report, kind domain.GoodKind) KindReport {
	t.Helper()
	for _, kr := range rep.Kinds {
		if kr.Kind == kind {
			return kr
		}
	}
	t.Fatalf("no report for %s", kind)
	return KindReport{}
}

func TestBuildReport(t *testing.T) {
	events := store.NewEventStore()
	events.OnEvent(trade("e-1", domain.EventKindLockedBuy, domain.GoodKindUSD, 10, 12))
	events.OnEvent(trade("e-2", domain.EventKindBought, domain.GoodKindUSD, 10, 12))
	events.OnEvent(wait())
	events.OnEvent(trade("e-3", domain.EventKindSold, domain.GoodKindUSD, 10, 8))
	events.OnEvent(wait())

	tests := []struct {
		name     string
		window   int
		inWindow int
		vwap     float64
	}{
		{"last day only", 1, 1, 0.8},
		{"whole run", 2, 2, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := BuildReport(testHistory(), events, tt.window)
			if err != nil {
				t.Fatalf("BuildReport: %v", err)
			}
			if rep.Days != 2 {
				t.Errorf("expected 2 days, got %d", rep.Days)
			}
			if rep.ProfitEUR != 10 {
				t.Errorf("expected profit 10, got %v", rep.ProfitEUR)
			}
			if len(rep.Kinds) != 3 {
				t.Fatalf("expected 3 foreign kinds, got %d", len(rep.Kinds))
			}

			usd := findKind(t, rep, domain.GoodKindUSD)
			if usd.Trades != 2 {
				t.Errorf("expected 2 trades, got %d", usd.Trades)
			}
			if usd.TradesInWindow != tt.inWindow {
				t.Errorf("expected %d trades in window, got %d", tt.inWindow, usd.TradesInWindow)
			}
			if usd.Volume != 20 {
				t.Errorf("expected volume 20, got %v", usd.Volume)
			}
			if usd.VWAP == nil || !closeEnough(*usd.VWAP, tt.vwap) {
				t.Errorf("expected vwap %v, got %v", tt.vwap, usd.VWAP)
			}

			if yen := findKind(t, rep, domain.GoodKindYEN); yen.VWAP != nil {
				t.Errorf("expected nil vwap for untraded YEN, got %v", *yen.VWAP)
			}
		})
	}
}

func TestBuildReport_Validation(t *testing.T) {
	events := store.NewEventStore()
	if _, err := BuildReport(nil, events, 1); err == nil {
		t.Error("expected error for empty history")
	}
	_, err := BuildReport(testHistory(), events, 0)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("expected ValidationError for zero window, got %v", err)
	}
}

// Feature: sgx-market, Property 8: Report VWAP
// Validates: unit VWAP over the window, last trade fallback outside it

func TestProperty_ReportVWAP(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		days := rapid.IntRange(2, 30).Draw(t, "days")
		window := rapid.IntRange(1, days-1).Draw(t, "window")
		events := store.NewEventStore()

		var sumPrice, sumQty float64
		var last domain.Event
		traded := false
		for day := 0; day < days; day++ {
			n := rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("trades-%d", day))
			for i := 0; i < n; i++ {
				e := trade(fmt.Sprintf("e-%d-%d", day, i), domain.EventKindBought, domain.GoodKindYUAN,
					float64(rapid.IntRange(1, 1000).Draw(t, fmt.Sprintf("qty-%d-%d", day, i))),
					float64(rapid.IntRange(1, 100000).Draw(t, fmt.Sprintf("price-%d-%d", day, i))),
				)
				events.OnEvent(e)
				last, traded = e, true
				if day >= days-window {
					sumPrice += e.Price
					sumQty += e.Quantity
				}
			}
			events.OnEvent(wait())
		}

		history := []Snapshot{{Day: 0}, {Day: days}}
		rep, err := BuildReport(history, events, window)
		if err != nil {
			t.Fatalf("BuildReport: %v", err)
		}
		yuan := rep.Kinds[len(rep.Kinds)-1]
		if yuan.Kind != domain.GoodKindYUAN {
			t.Fatalf("expected YUAN last, got %s", yuan.Kind)
		}

		switch {
		case !traded:
			if yuan.VWAP != nil {
				t.Fatalf("expected nil vwap, got %v", *yuan.VWAP)
			}
		case sumQty > 0:
			if !closeEnough(*yuan.VWAP, sumPrice/sumQty) {
				t.Fatalf("vwap %v, want %v", *yuan.VWAP, sumPrice/sumQty)
			}
		default:
			if !closeEnough(*yuan.VWAP, last.Price/last.Quantity) {
				t.Fatalf("fallback vwap %v, want %v", *yuan.VWAP, last.Price/last.Quantity)
			}
		}
	})
}
