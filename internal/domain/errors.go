package domain

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for market operations. Structured errors below carry the
// details and unwrap to one of these, so callers match with errors.Is.
var (
	ErrNonPositiveQuantity           = errors.New("non_positive_quantity")
	ErrInsufficientQuantity          = errors.New("insufficient_quantity")
	ErrGoodAlreadyLocked             = errors.New("good_already_locked")
	ErrMaxLocksReached               = errors.New("max_locks_reached")
	ErrNonPositiveBid                = errors.New("non_positive_bid")
	ErrBidTooLow                     = errors.New("bid_too_low")
	ErrNonPositiveOffer              = errors.New("non_positive_offer")
	ErrOfferTooHigh                  = errors.New("offer_too_high")
	ErrInsufficientSettlementBalance = errors.New("insufficient_settlement_balance")
	ErrUnrecognizedToken             = errors.New("unrecognized_token")
	ErrExpiredToken                  = errors.New("expired_token")
	ErrWrongGoodKind                 = errors.New("wrong_good_kind")
	ErrGoodKindNotDefault            = errors.New("good_kind_not_default")
	ErrInsufficientGoodQuantity      = errors.New("insufficient_good_quantity")
	ErrNonFiniteValue                = errors.New("non_finite_value")
)

// ValidationError represents invalid construction input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NonPositiveError reports a quantity, bid or offer that is zero or negative.
type NonPositiveError struct {
	Err   error
	Value float64
}

func (e *NonPositiveError) Error() string {
	return fmt.Sprintf("%s: %v", e.Err, e.Value)
}

func (e *NonPositiveError) Unwrap() error {
	return e.Err
}

// NonFiniteError reports a NaN or infinite quantity, bid or offer.
type NonFiniteError struct {
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: %v", ErrNonFiniteValue, e.Value)
}

func (e *NonFiniteError) Unwrap() error {
	return ErrNonFiniteValue
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckPositive returns nil when v is a finite number above zero. NaN and
// infinities give a *NonFiniteError, anything else a *NonPositiveError
// wrapping nonPositive.
func CheckPositive(nonPositive error, v float64) error {
	if !Finite(v) {
		return &NonFiniteError{Value: v}
	}
	if v <= 0 {
		return &NonPositiveError{Err: nonPositive, Value: v}
	}
	return nil
}

// InsufficientQuantityError reports a request for more of a good than the
// market holds.
type InsufficientQuantityError struct {
	Kind      GoodKind
	Requested float64
	Available float64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("%s: requested %v %s, available %v", ErrInsufficientQuantity, e.Requested, e.Kind, e.Available)
}

func (e *InsufficientQuantityError) Unwrap() error {
	return ErrInsufficientQuantity
}

// AlreadyLockedError reports a lock attempt on a side that is already locked.
type AlreadyLockedError struct {
	Token string
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("%s: token %s", ErrGoodAlreadyLocked, e.Token)
}

func (e *AlreadyLockedError) Unwrap() error {
	return ErrGoodAlreadyLocked
}

// BidTooLowError reports a bid below the market's buy quote.
type BidTooLowError struct {
	Kind                GoodKind
	Quantity            float64
	Bid                 float64
	LowestAcceptableBid float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("%s: bid %v for %v %s, lowest acceptable %v", ErrBidTooLow, e.Bid, e.Quantity, e.Kind, e.LowestAcceptableBid)
}

func (e *BidTooLowError) Unwrap() error {
	return ErrBidTooLow
}

// OfferTooHighError reports an offer above the market's sell quote.
type OfferTooHighError struct {
	Kind                   GoodKind
	Quantity               float64
	Offer                  float64
	HighestAcceptableOffer float64
}

func (e *OfferTooHighError) Error() string {
	return fmt.Sprintf("%s: offer %v for %v %s, highest acceptable %v", ErrOfferTooHigh, e.Offer, e.Quantity, e.Kind, e.HighestAcceptableOffer)
}

func (e *OfferTooHighError) Unwrap() error {
	return ErrOfferTooHigh
}

// InsufficientSettlementError reports that the market cannot pay an offer
// out of its settlement balance.
type InsufficientSettlementError struct {
	Kind      GoodKind
	Offer     float64
	Available float64
}

func (e *InsufficientSettlementError) Error() string {
	return fmt.Sprintf("%s: offer %v for %s, balance %v", ErrInsufficientSettlementBalance, e.Offer, e.Kind, e.Available)
}

func (e *InsufficientSettlementError) Unwrap() error {
	return ErrInsufficientSettlementBalance
}

// TokenError reports a token that cannot be redeemed. Err is either
// ErrUnrecognizedToken or ErrExpiredToken.
type TokenError struct {
	Err   error
	Token string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Token)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// WrongGoodKindError reports a parcel of the wrong kind handed to a
// redemption. Err is ErrWrongGoodKind or ErrGoodKindNotDefault.
type WrongGoodKindError struct {
	Err  error
	Got  GoodKind
	Want GoodKind
}

func (e *WrongGoodKindError) Error() string {
	return fmt.Sprintf("%s: got %s, want %s", e.Err, e.Got, e.Want)
}

func (e *WrongGoodKindError) Unwrap() error {
	return e.Err
}

// InsufficientGoodQuantityError reports a parcel holding less than the
// quantity agreed at lock time.
type InsufficientGoodQuantityError struct {
	Contained float64
	PreAgreed float64
}

func (e *InsufficientGoodQuantityError) Error() string {
	return fmt.Sprintf("%s: contained %v, pre-agreed %v", ErrInsufficientGoodQuantity, e.Contained, e.PreAgreed)
}

func (e *InsufficientGoodQuantityError) Unwrap() error {
	return ErrInsufficientGoodQuantity
}
