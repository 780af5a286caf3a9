package market

import "errors"

// Public error taxonomy: every internal error surfaced by LedgerOps,
// txn, or txservice is mapped exactly once to one of these sentinels
// before it reaches a caller.
var (
	ErrNonPositive           = errors.New("quantity must be positive")
	ErrInsufficientAvailable = errors.New("insufficient available quantity")
	ErrBidTooLow             = errors.New("bid too low")
	ErrOfferTooHigh          = errors.New("offer too high")
	ErrUnknownToken          = errors.New("unknown token")
	ErrExpiredToken          = errors.New("expired token")
	ErrWrongKind             = errors.New("wrong good kind")
	ErrInsufficientQuantity  = errors.New("insufficient quantity")
)
