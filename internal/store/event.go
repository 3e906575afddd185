package store

import (
	"sync"

	"github.com/efreitasn/sgx/internal/domain"
)

// Record is an event stamped with the day its market was on.
type Record struct {
	domain.Event
	Day int
}

// EventStore is a thread-safe in-memory store for market events, keyed by
// good kind. Records are append-only and chronological. It satisfies
// market.Observer so it can be subscribed directly to markets.
type EventStore struct {
	mu      sync.RWMutex
	records map[domain.GoodKind][]Record // kind → records (chronological)
	days    map[string]int               // market → days elapsed
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		records: make(map[domain.GoodKind][]Record),
		days:    make(map[string]int),
	}
}

// OnEvent records e. Wait events advance the emitting market's day and are
// not stored.
func (s *EventStore) OnEvent(e domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.Kind == domain.EventKindWait {
		s.days[e.Market]++
		return
	}
	s.records[e.GoodKind] = append(s.records[e.GoodKind], Record{Event: e, Day: s.days[e.Market]})
}

// GetByKind returns all records for a good kind in chronological order.
// Returns an empty slice if no records exist for the kind.
func (s *EventStore) GetByKind(kind domain.GoodKind) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.records[kind]
	if records == nil {
		return []Record{}
	}

	// Return a copy to avoid callers mutating the internal slice.
	result := make([]Record, len(records))
	copy(result, records)
	return result
}

// Trades returns the completed trades for a kind, leaving out
// reservations.
func (s *EventStore) Trades(kind domain.GoodKind) []Record {
	all := s.GetByKind(kind)
	trades := all[:0]
	for _, r := range all {
		if r.IsTrade() {
			trades = append(trades, r)
		}
	}
	return trades
}

// Day returns how many days market has reported.
func (s *EventStore) Day(market string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.days[market]
}

// Len returns the total number of stored records.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, records := range s.records {
		n += len(records)
	}
	return n
}
