package market

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/efreitasn/sgx/internal/audit"
	"github.com/efreitasn/sgx/internal/domain"
	"github.com/efreitasn/sgx/internal/ledger"
	"github.com/google/uuid"
)

const (
	// DefaultName is the name the exchange trades under.
	DefaultName = "SGX"
	// DefaultMaxLockAge is the number of days a reservation stays live.
	DefaultMaxLockAge = 15
)

// Observer receives the events a market emits.
type Observer interface {
	OnEvent(e domain.Event)
}

// Market is a single exchange holding four goods. All public methods are
// safe for concurrent use; events are delivered after the market's own
// mutex is released, so a market may observe itself.
type Market struct {
	mu          sync.Mutex
	name        string
	goods       *ledger.GoodStorage
	subscribers []Observer

	audit        *audit.Log
	logger       *slog.Logger
	maxLockAge   int
	uniqueTokens bool
	rng          *rand.Rand
}

// Option configures a Market.
type Option func(*Market)

// WithAuditLog sets the audit trail. Markets without one discard records.
func WithAuditLog(l *audit.Log) Option {
	return func(m *Market) { m.audit = l }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Market) { m.logger = logger }
}

// WithMaxLockAge sets how many days a reservation stays live.
func WithMaxLockAge(days int) Option {
	return func(m *Market) { m.maxLockAge = days }
}

// WithUniqueTokens suffixes every token with a UUID.
func WithUniqueTokens() Option {
	return func(m *Market) { m.uniqueTokens = true }
}

// WithRand sets the random source used by NewRandom.
func WithRand(rng *rand.Rand) Option {
	return func(m *Market) { m.rng = rng }
}

func newMarket(name string, opts ...Option) (*Market, error) {
	if name == "" {
		return nil, &domain.ValidationError{Message: "market name must not be empty"}
	}
	m := &Market{
		name:       name,
		logger:     slog.Default(),
		maxLockAge: DefaultMaxLockAge,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxLockAge < 1 {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("max lock age must be at least 1, got %d", m.maxLockAge)}
	}
	if m.audit == nil {
		m.audit = audit.Discard(name)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return m, nil
}

// NewWithQuantities creates a market holding exactly q.
func NewWithQuantities(name string, q ledger.Quantities, opts ...Option) (*Market, error) {
	m, err := newMarket(name, opts...)
	if err != nil {
		return nil, err
	}
	goods, err := ledger.WithQuantities(q)
	if err != nil {
		return nil, fmt.Errorf("build inventory: %w", err)
	}
	m.init(goods)
	return m, nil
}

// NewRandom creates a market whose four goods split capital at random.
func NewRandom(name string, capital float64, opts ...Option) (*Market, error) {
	m, err := newMarket(name, opts...)
	if err != nil {
		return nil, err
	}
	goods, err := ledger.Random(capital, m.rng)
	if err != nil {
		return nil, fmt.Errorf("build inventory: %w", err)
	}
	m.init(goods)
	return m, nil
}

func (m *Market) init(goods *ledger.GoodStorage) {
	m.goods = goods
	q := make(map[domain.GoodKind]float64, goods.Len())
	for _, l := range goods.Labels() {
		q[l.Kind] = l.Quantity
	}
	m.audit.MarketInit(q[domain.GoodKindEUR], q[domain.GoodKindUSD], q[domain.GoodKindYEN], q[domain.GoodKindYUAN])
	m.logger.Info("market initialised",
		slog.String("market", m.name),
		slog.Float64("eur", q[domain.GoodKindEUR]),
		slog.Float64("usd", q[domain.GoodKindUSD]),
		slog.Float64("yen", q[domain.GoodKindYEN]),
		slog.Float64("yuan", q[domain.GoodKindYUAN]),
	)
}

// Name returns the market's name.
func (m *Market) Name() string {
	return m.name
}

// Budget returns the settlement balance.
func (m *Market) Budget() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goods.Default().Good.Quantity()
}

// Goods snapshots every good in inventory order.
func (m *Market) Goods() []ledger.GoodLabel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.goods.Labels()
}

// Reservations returns every outstanding lock, buy side first.
func (m *Market) Reservations() []ledger.Lock {
	m.mu.Lock()
	defer m.mu.Unlock()
	var locks []ledger.Lock
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		for _, e := range m.goods.Entries() {
			if l, ok := e.Meta.LockFor(side); ok {
				locks = append(locks, l)
			}
		}
	}
	return locks
}

// Subscribe registers o for every event this market emits.
func (m *Market) Subscribe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, o)
}

// SubscribeEachOther subscribes every market to every other one.
func SubscribeEachOther(markets ...*Market) {
	for i, m := range markets {
		for j, other := range markets {
			if i != j {
				m.Subscribe(other)
			}
		}
	}
}

// SubscribeAll subscribes every market to every market, itself included,
// so a market also reacts to its own trades.
func SubscribeAll(markets ...*Market) {
	for _, m := range markets {
		for _, other := range markets {
			m.Subscribe(other)
		}
	}
}

// entry resolves kind or reports it as invalid input.
func (m *Market) entry(kind domain.GoodKind) (ledger.Entry, error) {
	e, ok := m.goods.Entry(kind)
	if !ok {
		return ledger.Entry{}, &domain.ValidationError{Message: fmt.Sprintf("unknown good kind %q", kind)}
	}
	return e, nil
}

func (m *Market) newEvent(kind domain.EventKind, goodKind domain.GoodKind, quantity, price float64) domain.Event {
	return domain.Event{
		EventID:  uuid.NewString(),
		Market:   m.name,
		Kind:     kind,
		GoodKind: goodKind,
		Quantity: quantity,
		Price:    price,
	}
}

// publish delivers e to a snapshot of the subscribers. It must be called
// without m.mu held.
func (m *Market) publish(e domain.Event) {
	m.mu.Lock()
	subs := slices.Clone(m.subscribers)
	m.mu.Unlock()

	for _, s := range subs {
		s.OnEvent(e)
	}
}
