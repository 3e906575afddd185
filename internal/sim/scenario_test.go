package sim

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/efreitasn/sgx/internal/config"
	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/efreitasn/sgx/internal/market"
	"github.com/google/go-cmp/cmp"
)

const sampleScenario = `
days: 10
steps_per_day: 2
seed: 7
trader:
  name: bob
  capital: 5000
markets:
  - name: SGX
    capital: 100000
  - name: ALT
    quantities:
      eur: 1000
      usd: 2000
      yen: 3000
      yuan: 4000
`

func testConfig() *config.Config {
	return &config.Config{
		MarketName:      "SGX",
		LogLevel:        "info",
		AuditDir:        ".",
		AuditMaxSizeMB:  100,
		StartingCapital: 1_000_000,
		LockMaxAgeDays:  15,
		SimDays:         30,
		SimStepInterval: 6 * time.Hour,
		TraderCapital:   10_000,
	}
}

func TestParseScenario(t *testing.T) {
	s, err := ParseScenario(strings.NewReader(sampleScenario))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	want := &Scenario{
		Days:        10,
		StepsPerDay: 2,
		Seed:        7,
		Trader:      TraderSpec{Name: "bob", Capital: 5000},
		Markets: []MarketSpec{
			{Name: "SGX", Capital: 100000},
			{Name: "ALT", Quantities: &ledger.Quantities{EUR: 1000, USD: 2000, YEN: 3000, YUAN: 4000}},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("scenario mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScenario_Empty(t *testing.T) {
	s, err := ParseScenario(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if diff := cmp.Diff(&Scenario{}, s); diff != "" {
		t.Errorf("expected zero scenario (-want +got):\n%s", diff)
	}
}

func TestParseScenario_UnknownField(t *testing.T) {
	_, err := ParseScenario(strings.NewReader("days: 3\nweeks: 2\n"))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(sampleScenario), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if s.Days != 10 || len(s.Markets) != 2 {
		t.Errorf("unexpected scenario %+v", s)
	}

	if _, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestScenario_Defaults(t *testing.T) {
	s := &Scenario{}
	s.Defaults(testConfig())

	want := &Scenario{
		Days:         30,
		StepsPerDay:  4,
		ReportWindow: 30,
		Trader:       TraderSpec{Name: "trader", Capital: 10_000},
		Markets:      []MarketSpec{{Name: "SGX", Capital: 1_000_000}},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate after Defaults: %v", err)
	}
}

func TestScenario_DefaultsKeepFileValues(t *testing.T) {
	s, err := ParseScenario(strings.NewReader(sampleScenario))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	s.Defaults(testConfig())

	if s.Days != 10 || s.StepsPerDay != 2 || s.Seed != 7 {
		t.Errorf("file values overridden: %+v", s)
	}
	if s.ReportWindow != 10 {
		t.Errorf("expected report window to follow days, got %d", s.ReportWindow)
	}
	if s.Markets[0].Capital != 100000 {
		t.Errorf("expected SGX capital 100000, got %v", s.Markets[0].Capital)
	}
	if s.Markets[1].Capital != 0 {
		t.Errorf("expected ALT capital to stay 0 with fixed quantities, got %v", s.Markets[1].Capital)
	}
}

func TestScenario_Validate(t *testing.T) {
	valid := func() *Scenario {
		s := &Scenario{}
		s.Defaults(testConfig())
		return s
	}

	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"negative days", func(s *Scenario) { s.Days = -1 }},
		{"negative steps", func(s *Scenario) { s.StepsPerDay = -2 }},
		{"negative window", func(s *Scenario) { s.ReportWindow = -1 }},
		{"negative trader capital", func(s *Scenario) { s.Trader.Capital = -10 }},
		{"no markets", func(s *Scenario) { s.Markets = nil }},
		{"empty market name", func(s *Scenario) { s.Markets[0].Name = "" }},
		{"duplicate market", func(s *Scenario) { s.Markets = append(s.Markets, s.Markets[0]) }},
		{"negative market capital", func(s *Scenario) { s.Markets[0].Capital = -1 }},
		{"negative quantity", func(s *Scenario) { s.Markets[0].Quantities = &ledger.Quantities{EUR: 1, USD: -1} }},
		{"NaN trader capital", func(s *Scenario) { s.Trader.Capital = math.NaN() }},
		{"infinite trader capital", func(s *Scenario) { s.Trader.Capital = math.Inf(1) }},
		{"NaN market capital", func(s *Scenario) { s.Markets[0].Capital = math.NaN() }},
		{"infinite market capital", func(s *Scenario) { s.Markets[0].Capital = math.Inf(1) }},
		{"NaN quantity", func(s *Scenario) { s.Markets[0].Quantities = &ledger.Quantities{EUR: math.NaN()} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(s)
			err := s.Validate()
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestParseScenario_NonFiniteCapitalFailsValidation(t *testing.T) {
	s, err := ParseScenario(strings.NewReader("trader:\n  capital: .nan\nmarkets:\n  - name: SGX\n    capital: .inf\n"))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	s.Defaults(testConfig())
	var ve *domain.ValidationError
	if err := s.Validate(); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestScenario_BuildMarkets(t *testing.T) {
	s, err := ParseScenario(strings.NewReader(sampleScenario))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	s.Defaults(testConfig())

	var names []string
	optsFor := func(name string) ([]market.Option, error) {
		names = append(names, name)
		return []market.Option{market.WithLogger(discardLogger())}, nil
	}
	markets, err := s.BuildMarkets(optsFor)
	if err != nil {
		t.Fatalf("BuildMarkets: %v", err)
	}
	if diff := cmp.Diff([]string{"SGX", "ALT"}, names); diff != "" {
		t.Errorf("options requested for (-want +got):\n%s", diff)
	}
	if len(markets) != 2 {
		t.Fatalf("expected 2 markets, got %d", len(markets))
	}

	var total float64
	for _, l := range markets[0].Goods() {
		total += l.Quantity
	}
	if !closeEnough(total, 100000) {
		t.Errorf("expected SGX stock to add up to 100000, got %v", total)
	}
	if got := stock(t, markets[1], domain.GoodKindYUAN); got != 4000 {
		t.Errorf("expected ALT to hold 4000 YUAN, got %v", got)
	}
}

func TestScenario_BuildMarkets_SeedIsReproducible(t *testing.T) {
	build := func() []ledger.GoodLabel {
		s := &Scenario{Seed: 42}
		s.Defaults(testConfig())
		markets, err := s.BuildMarkets(func(string) ([]market.Option, error) {
			return []market.Option{market.WithLogger(discardLogger())}, nil
		})
		if err != nil {
			t.Fatalf("BuildMarkets: %v", err)
		}
		return markets[0].Goods()
	}
	if diff := cmp.Diff(build(), build()); diff != "" {
		t.Errorf("seeded markets differ (-first +second):\n%s", diff)
	}
}

func TestScenario_BuildMarkets_OptionError(t *testing.T) {
	s := &Scenario{}
	s.Defaults(testConfig())
	boom := errors.New("boom")
	_, err := s.BuildMarkets(func(string) ([]market.Option, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}
