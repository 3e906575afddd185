package sim

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"github.com/efreitasn/sgx/internal/config"
	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/efreitasn/sgx/internal/market"
	"gopkg.in/yaml.v3"
)

const defaultTraderName = "trader"

// TraderSpec describes the simulated trader.
type TraderSpec struct {
	Name    string  `yaml:"name"`
	Capital float64 `yaml:"capital"`
}

// MarketSpec describes one market. Quantities, when set, fix the starting
// stock; otherwise Capital is split at random.
type MarketSpec struct {
	Name       string             `yaml:"name"`
	Capital    float64            `yaml:"capital"`
	Quantities *ledger.Quantities `yaml:"quantities"`
}

// Scenario is a simulation read from YAML. Zero fields are filled from the
// environment configuration by Defaults.
type Scenario struct {
	Days         int          `yaml:"days"`
	StepsPerDay  int          `yaml:"steps_per_day"`
	Seed         uint64       `yaml:"seed"`
	ReportWindow int          `yaml:"report_window"`
	Trader       TraderSpec   `yaml:"trader"`
	Markets      []MarketSpec `yaml:"markets"`
}

// ParseScenario decodes a scenario. Unknown fields are rejected.
func ParseScenario(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return &s, nil
		}
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

// LoadScenario reads and decodes the scenario file at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(bytes.NewReader(data))
}

// Defaults fills every zero field from cfg. A scenario without markets
// gets a single random market named after cfg.MarketName.
func (s *Scenario) Defaults(cfg *config.Config) {
	if s.Days == 0 {
		s.Days = cfg.SimDays
	}
	if s.StepsPerDay == 0 {
		s.StepsPerDay = cfg.StepsPerDay()
	}
	if s.Seed == 0 {
		s.Seed = cfg.Seed
	}
	if s.ReportWindow == 0 {
		s.ReportWindow = s.Days
	}
	if s.Trader.Name == "" {
		s.Trader.Name = defaultTraderName
	}
	if s.Trader.Capital == 0 {
		s.Trader.Capital = cfg.TraderCapital
	}
	if len(s.Markets) == 0 {
		s.Markets = []MarketSpec{{Name: cfg.MarketName}}
	}
	for i := range s.Markets {
		if s.Markets[i].Quantities == nil && s.Markets[i].Capital == 0 {
			s.Markets[i].Capital = cfg.StartingCapital
		}
	}
}

// Validate checks a scenario after Defaults has run.
func (s *Scenario) Validate() error {
	if s.Days < 1 {
		return &domain.ValidationError{Message: fmt.Sprintf("days must be at least 1, got %d", s.Days)}
	}
	if s.StepsPerDay < 1 {
		return &domain.ValidationError{Message: fmt.Sprintf("steps_per_day must be at least 1, got %d", s.StepsPerDay)}
	}
	if s.ReportWindow < 1 {
		return &domain.ValidationError{Message: fmt.Sprintf("report_window must be at least 1, got %d", s.ReportWindow)}
	}
	if !domain.Finite(s.Trader.Capital) || s.Trader.Capital <= 0 {
		return &domain.ValidationError{Message: fmt.Sprintf("trader capital must be finite and positive, got %v", s.Trader.Capital)}
	}
	if len(s.Markets) == 0 {
		return &domain.ValidationError{Message: "at least one market is required"}
	}

	seen := make(map[string]bool, len(s.Markets))
	for _, m := range s.Markets {
		if m.Name == "" {
			return &domain.ValidationError{Message: "market name must not be empty"}
		}
		if seen[m.Name] {
			return &domain.ValidationError{Message: fmt.Sprintf("duplicate market name %q", m.Name)}
		}
		seen[m.Name] = true
		if !domain.Finite(m.Capital) || m.Capital < 0 {
			return &domain.ValidationError{Message: fmt.Sprintf("market %s: capital must be finite and not negative, got %v", m.Name, m.Capital)}
		}
		if m.Quantities != nil {
			if err := m.Quantities.Validate(); err != nil {
				return fmt.Errorf("market %s: %w", m.Name, err)
			}
		}
	}
	return nil
}

// BuildMarkets creates the scenario's markets in order. optsFor supplies
// the options of each market by name. A non-zero seed makes the random
// stock of every market reproducible.
func (s *Scenario) BuildMarkets(optsFor func(name string) ([]market.Option, error)) ([]*market.Market, error) {
	markets := make([]*market.Market, 0, len(s.Markets))
	for i, spec := range s.Markets {
		var opts []market.Option
		if optsFor != nil {
			o, err := optsFor(spec.Name)
			if err != nil {
				return nil, fmt.Errorf("market %s: %w", spec.Name, err)
			}
			opts = o
		}
		if s.Seed != 0 {
			opts = append(opts, market.WithRand(rand.New(rand.NewPCG(s.Seed, uint64(i)))))
		}

		var (
			m   *market.Market
			err error
		)
		if spec.Quantities != nil {
			m, err = market.NewWithQuantities(spec.Name, *spec.Quantities, opts...)
		} else {
			m, err = market.NewRandom(spec.Name, spec.Capital, opts...)
		}
		if err != nil {
			return nil, fmt.Errorf("market %s: %w", spec.Name, err)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

// Exchanges adapts markets to the Exchange slice a Runner takes.
func Exchanges(markets []*market.Market) []Exchange {
	out := make([]Exchange, len(markets))
	for i, m := range markets {
		out[i] = m
	}
	return out
}

var _ Exchange = (*market.Market)(nil)
