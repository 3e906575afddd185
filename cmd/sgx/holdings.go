package main

import (
	"encoding/json"
	"math/rand/v2"

	"github.com/efreitasn/sgx/internal/market"
	"github.com/spf13/cobra"
)

func newHoldingsCmd(a *app) *cobra.Command {
	var (
		name    string
		capital float64
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "holdings",
		Short: "Print the goods of a freshly randomised market",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("name") {
				name = a.cfg.MarketName
			}
			if !cmd.Flags().Changed("capital") {
				capital = a.cfg.StartingCapital
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.Seed
			}

			opts := []market.Option{market.WithLogger(a.logger)}
			if seed != 0 {
				opts = append(opts, market.WithRand(rand.New(rand.NewPCG(seed, 0))))
			}
			m, err := market.NewRandom(name, capital, opts...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(m.Goods())
		},
	}
	cmd.Flags().StringVar(&name, "name", market.DefaultName, "market name (default MARKET_NAME)")
	cmd.Flags().Float64Var(&capital, "capital", 0, "capital to split across goods (default STARTING_CAPITAL)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 for a random one (default SEED)")
	return cmd
}
