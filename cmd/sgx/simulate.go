package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/efreitasn/sgx/internal/audit"
	"github.com/efreitasn/sgx/internal/market"
	"github.com/efreitasn/sgx/internal/sim"
	"github.com/efreitasn/sgx/internal/store"
	"github.com/spf13/cobra"
)

type simulateOutput struct {
	History []sim.Snapshot `json:"history"`
	Report  *sim.Report    `json:"report"`
}

func newSimulateCmd(a *app) *cobra.Command {
	var (
		scenarioPath string
		days         int
		steps        int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a trader against one or more markets and print its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := &sim.Scenario{}
			if scenarioPath != "" {
				loaded, err := sim.LoadScenario(scenarioPath)
				if err != nil {
					return err
				}
				s = loaded
			}
			if days > 0 {
				s.Days = days
			}
			if steps > 0 {
				s.StepsPerDay = steps
			}
			s.Defaults(a.cfg)
			if err := s.Validate(); err != nil {
				return fmt.Errorf("invalid scenario: %w", err)
			}
			return a.simulate(cmd, s)
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file")
	cmd.Flags().IntVar(&days, "days", 0, "days to simulate (overrides scenario and SIM_DAYS)")
	cmd.Flags().IntVar(&steps, "steps", 0, "trader steps per day (overrides scenario and SIM_STEP_INTERVAL)")
	return cmd
}

func (a *app) simulate(cmd *cobra.Command, s *sim.Scenario) error {
	var logs []*audit.Log
	defer func() {
		for _, l := range logs {
			if err := l.Close(); err != nil {
				a.logger.Warn("close audit log", slog.String("path", l.Path()), slog.String("error", err.Error()))
			}
		}
	}()

	optsFor := func(name string) ([]market.Option, error) {
		l, err := audit.Open(a.cfg.AuditDir, name, a.cfg.AuditMaxSizeMB, audit.WithLogger(a.logger))
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
		opts := []market.Option{
			market.WithAuditLog(l),
			market.WithLogger(a.logger),
			market.WithMaxLockAge(a.cfg.LockMaxAgeDays),
		}
		if a.cfg.UniqueTokens {
			opts = append(opts, market.WithUniqueTokens())
		}
		return opts, nil
	}
	markets, err := s.BuildMarkets(optsFor)
	if err != nil {
		return err
	}

	events := store.NewEventStore()
	market.SubscribeAll(markets...)
	for _, m := range markets {
		m.Subscribe(events)
	}

	trader, err := sim.NewTrader(s.Trader.Name, s.Trader.Capital, sim.NewSimpleStrategy(a.logger))
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(trader, sim.Exchanges(markets), a.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logger.Info("simulation starting",
		slog.Int("markets", len(markets)),
		slog.Int("days", s.Days),
		slog.Int("steps_per_day", s.StepsPerDay),
	)
	history, err := runner.Run(ctx, s.Days, s.StepsPerDay)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			return err
		}
		a.logger.Warn("simulation interrupted", slog.Int("days_completed", len(history)-1))
	}

	report, err := sim.BuildReport(history, events, s.ReportWindow)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(simulateOutput{History: history, Report: report})
}
