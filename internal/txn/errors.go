package txn

import (
	"errors"
	"fmt"

	"fxmarket/internal/currency"
)

var (
	ErrNonPositiveBuy   = errors.New("buy quantity must be positive")
	ErrNonPositiveBid   = errors.New("bid must be positive")
	ErrNonPositiveSell  = errors.New("sell quantity must be positive")
	ErrNonPositiveOffer = errors.New("offer must be positive")
	ErrUnknownToken     = errors.New("unknown token")
)

// BidTooLowError reports the minimum bid (the computed buy price ceiling)
// that a lock_buy proposal failed to meet.
type BidTooLowError struct {
	MinBid float32
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low: requires at least %v", e.MinBid)
}

// OfferTooHighError reports the maximum offer (the computed sell price
// ceiling) that a lock_sell proposal exceeded.
type OfferTooHighError struct {
	MaxOffer float32
}

func (e *OfferTooHighError) Error() string {
	return fmt.Sprintf("offer too high: ceiling is %v", e.MaxOffer)
}

// InvalidStateError reports the transaction's current state when a
// settle is attempted against a non-Reserved transaction.
type InvalidStateError struct {
	Current State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: transaction is %v", e.Current)
}

// WrongGoodKindError reports the kind the payer was required to carry.
type WrongGoodKindError struct {
	Want currency.Kind
}

func (e *WrongGoodKindError) Error() string {
	return fmt.Sprintf("wrong good kind: expected %v", e.Want)
}

// InsufficientQuantityError reports the pre-agreed amount the payer
// failed to carry.
type InsufficientQuantityError struct {
	Want float32
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity: requires %v", e.Want)
}
