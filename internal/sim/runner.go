package sim

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
)

// Snapshot is the trader's wallet at the end of a day. Day 0 is the
// starting wallet.
type Snapshot struct {
	Day      int               `json:"day"`
	Holdings ledger.Quantities `json:"holdings"`
}

// Runner drives one trader against a set of markets, day by day.
type Runner struct {
	trader  *Trader
	markets []Exchange
	logger  *slog.Logger
}

// NewRunner creates a Runner. At least one market is required.
func NewRunner(trader *Trader, markets []Exchange, logger *slog.Logger) (*Runner, error) {
	if trader == nil {
		return nil, &domain.ValidationError{Message: "trader must not be nil"}
	}
	if len(markets) == 0 {
		return nil, &domain.ValidationError{Message: "at least one market is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{trader: trader, markets: markets, logger: logger}, nil
}

// Run simulates days days. On each day the strategy is applied
// stepsPerDay times, remaining goods are sold on the last day, and every
// market is advanced one day. It returns one snapshot per day plus the
// starting one. A cancelled ctx stops the run between days and returns the
// history so far along with ctx's error.
func (r *Runner) Run(ctx context.Context, days, stepsPerDay int) ([]Snapshot, error) {
	if days < 1 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("days must be at least 1, got %d", days)}
	}
	if stepsPerDay < 1 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("steps per day must be at least 1, got %d", stepsPerDay)}
	}

	t := r.trader
	history := make([]Snapshot, 0, days+1)
	history = append(history, Snapshot{Day: 0, Holdings: t.Wallet.Holdings()})

	for day := 1; day <= days; day++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		for step := 0; step < stepsPerDay; step++ {
			t.Strategy.Apply(t.Name, t.Wallet, r.markets)
		}
		if day == days {
			t.Strategy.SellRemaining(t.Name, t.Wallet, r.markets)
		}
		for _, m := range r.markets {
			m.WaitOneDay()
		}

		h := t.Wallet.Holdings()
		history = append(history, Snapshot{Day: day, Holdings: h})
		r.logger.Debug("day finished",
			slog.Int("day", day),
			slog.String("trader", t.Name),
			slog.Float64("eur", h.EUR),
		)
	}

	r.logger.Info("simulation finished",
		slog.String("trader", t.Name),
		slog.Int("days", days),
		slog.Float64("start_eur", history[0].Holdings.EUR),
		slog.Float64("end_eur", history[len(history)-1].Holdings.EUR),
	)
	return history, nil
}
