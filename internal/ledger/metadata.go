package ledger

import (
	"fmt"

	"github.com/efreitasn/sgx/internal/domain"
	"github.com/google/btree"
)

// GoodMetadata is the ledger entry of one good: its base rates, one lock
// status per side, and the tokens that can no longer be redeemed.
type GoodMetadata struct {
	BaseBuyPrice  float64
	BaseSellPrice float64

	buyStatus  LockStatus
	sellStatus LockStatus

	// Append-only ordered sets, one per side.
	expiredBuyTokens  *btree.BTreeG[string]
	expiredSellTokens *btree.BTreeG[string]
}

// NewGoodMetadata seeds the rates from an exchange rate against EUR.
func NewGoodMetadata(exchangeRate float64) *GoodMetadata {
	const degree = 8
	less := func(a, b string) bool { return a < b }
	return &GoodMetadata{
		BaseBuyPrice:      exchangeRate,
		BaseSellPrice:     1 / exchangeRate,
		buyStatus:         Available{},
		sellStatus:        Available{},
		expiredBuyTokens:  btree.NewG[string](degree, less),
		expiredSellTokens: btree.NewG[string](degree, less),
	}
}

// Status returns the lock status of a side.
func (m *GoodMetadata) Status(side domain.Side) LockStatus {
	if side == domain.SideBuy {
		return m.buyStatus
	}
	return m.sellStatus
}

func (m *GoodMetadata) setStatus(side domain.Side, status LockStatus) {
	if side == domain.SideBuy {
		m.buyStatus = status
	} else {
		m.sellStatus = status
	}
}

func (m *GoodMetadata) expired(side domain.Side) *btree.BTreeG[string] {
	if side == domain.SideBuy {
		return m.expiredBuyTokens
	}
	return m.expiredSellTokens
}

// IsLocked reports whether a side holds a reservation.
func (m *GoodMetadata) IsLocked(side domain.Side) bool {
	_, ok := m.Status(side).(Locked)
	return ok
}

// LockFor returns the reservation of a side, if any.
func (m *GoodMetadata) LockFor(side domain.Side) (Lock, bool) {
	if l, ok := m.Status(side).(Locked); ok {
		return l.Lock, true
	}
	return Lock{}, false
}

// Lock stores lock as the reservation of a side. The side must be
// Available; callers check before locking.
func (m *GoodMetadata) Lock(side domain.Side, lock Lock) {
	if m.IsLocked(side) {
		panic(fmt.Sprintf("ledger: %s side of %s is already locked", side, lock.Kind))
	}
	m.setStatus(side, Locked{Lock: lock})
}

// Unlock releases the reservation of a side and expires its token. It
// returns the released lock. Unlocking an Available side is a programming
// error.
func (m *GoodMetadata) Unlock(side domain.Side) Lock {
	l, ok := m.Status(side).(Locked)
	if !ok {
		panic(fmt.Sprintf("ledger: cannot unlock %s side, there is no lock", side))
	}
	m.expired(side).ReplaceOrInsert(l.Lock.Token)
	m.setStatus(side, Available{})
	return l.Lock
}

// HasExpiredToken reports whether token was released on a side.
func (m *GoodMetadata) HasExpiredToken(side domain.Side, token string) bool {
	return m.expired(side).Has(token)
}

// ExpiredTokens returns the expired tokens of a side in ascending order.
func (m *GoodMetadata) ExpiredTokens(side domain.Side) []string {
	tree := m.expired(side)
	tokens := make([]string, 0, tree.Len())
	tree.Ascend(func(token string) bool {
		tokens = append(tokens, token)
		return true
	})
	return tokens
}

// Price returns the base rate of a side.
func (m *GoodMetadata) Price(side domain.Side) float64 {
	if side == domain.SideBuy {
		return m.BaseBuyPrice
	}
	return m.BaseSellPrice
}

// FluctuateBuyPrice multiplies the base buy rate by factor.
func (m *GoodMetadata) FluctuateBuyPrice(factor float64) {
	m.BaseBuyPrice *= factor
}

// FluctuateSellPrice multiplies the base sell rate by factor.
func (m *GoodMetadata) FluctuateSellPrice(factor float64) {
	m.BaseSellPrice *= factor
}

// AgeLocks ages the reservation of both sides by one day. A reservation
// that has already reached maxAge is released instead; the released locks
// are returned.
func (m *GoodMetadata) AgeLocks(maxAge int) []Lock {
	var released []Lock
	for _, side := range []domain.Side{domain.SideSell, domain.SideBuy} {
		l, ok := m.LockFor(side)
		if !ok {
			continue
		}
		if l.AgeInDays < maxAge {
			l.AgeInDays++
			m.setStatus(side, Locked{Lock: l})
			continue
		}
		released = append(released, m.Unlock(side))
	}
	return released
}
