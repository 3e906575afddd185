package ledger

import (
	"fmt"

	"github.com/efreitasn/sgx/internal/domain"
)

// Entry pairs a good's stock with its ledger metadata.
type Entry struct {
	Good *domain.Good
	Meta *GoodMetadata
}

// GoodLabel is a read-only snapshot of one good as shown to traders.
type GoodLabel struct {
	Kind             domain.GoodKind `json:"kind"`
	Quantity         float64         `json:"quantity"`
	ExchangeRateBuy  float64         `json:"exchange_rate_buy"`
	ExchangeRateSell float64         `json:"exchange_rate_sell"`
}

// GoodStorage is the inventory of a market: one entry per kind, fixed for
// the lifetime of the market. It is not safe for concurrent use; the
// owning market serialises access.
type GoodStorage struct {
	entries []Entry
	byKind  map[domain.GoodKind]int // kind → index into entries
}

// NewGoodStorage builds an inventory from parcels. Each kind may appear at
// most once and the settlement kind must be present.
func NewGoodStorage(goods ...*domain.Good) (*GoodStorage, error) {
	s := &GoodStorage{
		entries: make([]Entry, 0, len(goods)),
		byKind:  make(map[domain.GoodKind]int, len(goods)),
	}
	for _, g := range goods {
		if !g.Kind().Valid() {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown good kind %q", g.Kind())}
		}
		if _, dup := s.byKind[g.Kind()]; dup {
			return nil, &domain.ValidationError{Message: fmt.Sprintf("duplicate good kind %s", g.Kind())}
		}
		s.byKind[g.Kind()] = len(s.entries)
		s.entries = append(s.entries, Entry{
			Good: g,
			Meta: NewGoodMetadata(g.Kind().DefaultExchangeRate()),
		})
	}
	if _, ok := s.byKind[domain.DefaultGoodKind]; !ok {
		return nil, &domain.ValidationError{Message: "settlement good EUR is missing"}
	}
	return s, nil
}

// Len returns the number of goods.
func (s *GoodStorage) Len() int {
	return len(s.entries)
}

// Entry returns the entry of kind.
func (s *GoodStorage) Entry(kind domain.GoodKind) (Entry, bool) {
	i, ok := s.byKind[kind]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// Default returns the settlement entry. Its absence is an invariant
// violation.
func (s *GoodStorage) Default() Entry {
	e, ok := s.Entry(domain.DefaultGoodKind)
	if !ok {
		panic("ledger: settlement good is missing")
	}
	return e
}

// Entries returns every entry in inventory order.
func (s *GoodStorage) Entries() []Entry {
	return s.entries
}

// EntryForToken returns the entry whose side is locked under token.
func (s *GoodStorage) EntryForToken(side domain.Side, token string) (Entry, bool) {
	for _, e := range s.entries {
		if l, ok := e.Meta.LockFor(side); ok && l.Token == token {
			return e, true
		}
	}
	return Entry{}, false
}

// HasExpiredToken reports whether any good expired token on side.
func (s *GoodStorage) HasExpiredToken(side domain.Side, token string) bool {
	for _, e := range s.entries {
		if e.Meta.HasExpiredToken(side, token) {
			return true
		}
	}
	return false
}

// TokenInUse reports whether token is live or expired on side.
func (s *GoodStorage) TokenInUse(side domain.Side, token string) bool {
	if _, ok := s.EntryForToken(side, token); ok {
		return true
	}
	return s.HasExpiredToken(side, token)
}

// LockCount returns the number of goods locked on side.
func (s *GoodStorage) LockCount(side domain.Side) int {
	n := 0
	for _, e := range s.entries {
		if e.Meta.IsLocked(side) {
			n++
		}
	}
	return n
}

// MaxLocks returns how many goods may be locked at once on one side.
func (s *GoodStorage) MaxLocks() int {
	return len(s.entries) - 2
}

// Labels snapshots every good in inventory order.
func (s *GoodStorage) Labels() []GoodLabel {
	labels := make([]GoodLabel, 0, len(s.entries))
	for _, e := range s.entries {
		labels = append(labels, GoodLabel{
			Kind:             e.Good.Kind(),
			Quantity:         e.Good.Quantity(),
			ExchangeRateBuy:  e.Meta.BaseBuyPrice,
			ExchangeRateSell: e.Meta.BaseSellPrice,
		})
	}
	return labels
}

// AgeLocks ages every outstanding lock by one day and returns the locks
// released for reaching maxAge.
func (s *GoodStorage) AgeLocks(maxAge int) []Lock {
	var released []Lock
	for _, e := range s.entries {
		released = append(released, e.Meta.AgeLocks(maxAge)...)
	}
	return released
}
