package ledger

import (
	"fmt"
	"strconv"

	"github.com/efreitasn/sgx/internal/domain"
)

// Lock is a reservation on a quantity of a good at an agreed EUR price.
// Only AgeInDays changes after creation.
type Lock struct {
	Quantity    float64
	Kind        domain.GoodKind
	AgreedPrice float64 // bid for buy locks, offer for sell locks
	Token       string
	Trader      string
	AgeInDays   int
}

// NewLock creates a lock aged one day.
func NewLock(quantity float64, kind domain.GoodKind, agreedPrice float64, trader, token string) Lock {
	return Lock{
		Quantity:    quantity,
		Kind:        kind,
		AgreedPrice: agreedPrice,
		Token:       token,
		Trader:      trader,
		AgeInDays:   1,
	}
}

// Token derives the deterministic token of a lock.
func Token(trader string, kind domain.GoodKind, quantity float64) string {
	return fmt.Sprintf("%s-%s-%s", trader, kind, strconv.FormatFloat(quantity, 'f', -1, 64))
}

// LockStatus is either Available or Locked.
type LockStatus interface {
	isLockStatus()
}

// Available means no reservation is outstanding on a side.
type Available struct{}

// Locked holds the single outstanding reservation on a side.
type Locked struct {
	Lock Lock
}

func (Available) isLockStatus() {}
func (Locked) isLockStatus()    {}
