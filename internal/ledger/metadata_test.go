package ledger

import (
	"testing"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func TestToken_Deterministic(t *testing.T) {
	tests := []struct {
		trader string
		kind   domain.GoodKind
		qty    float64
		want   string
	}{
		{"alice", domain.GoodKindUSD, 100, "alice-USD-100"},
		{"bob", domain.GoodKindYEN, 2.5, "bob-YEN-2.5"},
		{"carol", domain.GoodKindYUAN, 0.125, "carol-YUAN-0.125"},
	}
	for _, tt := range tests {
		if got := Token(tt.trader, tt.kind, tt.qty); got != tt.want {
			t.Errorf("Token(%q, %s, %v) = %q, want %q", tt.trader, tt.kind, tt.qty, got, tt.want)
		}
		if Token(tt.trader, tt.kind, tt.qty) != Token(tt.trader, tt.kind, tt.qty) {
			t.Errorf("Token(%q, %s, %v) not deterministic", tt.trader, tt.kind, tt.qty)
		}
	}
}

func TestNewLock_StartsAtDayOne(t *testing.T) {
	l := NewLock(10, domain.GoodKindUSD, 12, "alice", "alice-USD-10")
	if l.AgeInDays != 1 {
		t.Errorf("expected age 1, got %d", l.AgeInDays)
	}
}

func TestNewGoodMetadata_Rates(t *testing.T) {
	m := NewGoodMetadata(4)
	if m.BaseBuyPrice != 4 {
		t.Errorf("expected buy price 4, got %v", m.BaseBuyPrice)
	}
	if m.BaseSellPrice != 0.25 {
		t.Errorf("expected sell price 0.25, got %v", m.BaseSellPrice)
	}
	if m.IsLocked(domain.SideBuy) || m.IsLocked(domain.SideSell) {
		t.Error("expected both sides available")
	}
}

func TestGoodMetadata_LockUnlock(t *testing.T) {
	m := NewGoodMetadata(1)
	l := NewLock(10, domain.GoodKindUSD, 12, "alice", "tok")
	m.Lock(domain.SideBuy, l)

	if !m.IsLocked(domain.SideBuy) {
		t.Fatal("expected buy side locked")
	}
	if m.IsLocked(domain.SideSell) {
		t.Error("expected sell side to stay available")
	}
	got, ok := m.LockFor(domain.SideBuy)
	if !ok {
		t.Fatal("expected LockFor to find the lock")
	}
	if diff := cmp.Diff(l, got); diff != "" {
		t.Errorf("lock mismatch (-want +got):\n%s", diff)
	}

	released := m.Unlock(domain.SideBuy)
	if released.Token != "tok" {
		t.Errorf("expected released token tok, got %s", released.Token)
	}
	if m.IsLocked(domain.SideBuy) {
		t.Error("expected buy side available after unlock")
	}
	if !m.HasExpiredToken(domain.SideBuy, "tok") {
		t.Error("expected token expired on buy side")
	}
	if m.HasExpiredToken(domain.SideSell, "tok") {
		t.Error("expected token not expired on sell side")
	}
}

func TestGoodMetadata_LockTwicePanics(t *testing.T) {
	m := NewGoodMetadata(1)
	m.Lock(domain.SideSell, NewLock(1, domain.GoodKindUSD, 1, "a", "t1"))
	defer func() {
		if recover() == nil {
			t.Error("expected panic when locking a locked side")
		}
	}()
	m.Lock(domain.SideSell, NewLock(1, domain.GoodKindUSD, 1, "a", "t2"))
}

func TestGoodMetadata_UnlockAvailablePanics(t *testing.T) {
	m := NewGoodMetadata(1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic when unlocking an available side")
		}
	}()
	m.Unlock(domain.SideBuy)
}

func TestGoodMetadata_ExpiredTokensSorted(t *testing.T) {
	m := NewGoodMetadata(1)
	for _, tok := range []string{"c", "a", "b"} {
		m.Lock(domain.SideSell, NewLock(1, domain.GoodKindUSD, 1, "x", tok))
		m.Unlock(domain.SideSell)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, m.ExpiredTokens(domain.SideSell)); diff != "" {
		t.Errorf("expired tokens mismatch (-want +got):\n%s", diff)
	}
	if got := m.ExpiredTokens(domain.SideBuy); len(got) != 0 {
		t.Errorf("expected no expired buy tokens, got %v", got)
	}
}

func TestGoodMetadata_Fluctuate(t *testing.T) {
	m := NewGoodMetadata(2)
	m.FluctuateBuyPrice(0.5)
	m.FluctuateSellPrice(2)
	if m.Price(domain.SideBuy) != 1 {
		t.Errorf("expected buy price 1, got %v", m.Price(domain.SideBuy))
	}
	if m.Price(domain.SideSell) != 1 {
		t.Errorf("expected sell price 1, got %v", m.Price(domain.SideSell))
	}
}

func TestGoodMetadata_AgeLocks(t *testing.T) {
	const maxAge = 15
	m := NewGoodMetadata(1)
	m.Lock(domain.SideBuy, NewLock(1, domain.GoodKindUSD, 1, "a", "tok"))

	// Ages 1 → 15 over fourteen days.
	for day := 1; day <= 14; day++ {
		if released := m.AgeLocks(maxAge); len(released) != 0 {
			t.Fatalf("day %d: expected no release, got %v", day, released)
		}
	}
	l, ok := m.LockFor(domain.SideBuy)
	if !ok {
		t.Fatal("expected lock to survive fourteen days")
	}
	if l.AgeInDays != maxAge {
		t.Errorf("expected age %d, got %d", maxAge, l.AgeInDays)
	}

	released := m.AgeLocks(maxAge)
	if len(released) != 1 || released[0].Token != "tok" {
		t.Fatalf("expected tok released on day 15, got %v", released)
	}
	if m.IsLocked(domain.SideBuy) {
		t.Error("expected buy side available after release")
	}
	if !m.HasExpiredToken(domain.SideBuy, "tok") {
		t.Error("expected released token to be expired")
	}
}
