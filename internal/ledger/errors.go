package ledger

import (
	"errors"
	"fmt"
)

// Sentinel errors for Account and LedgerOps operations. Callers should
// use errors.Is/errors.As against these; the *Error wrapper types carry
// the extra payload (withdrawable amount, reservable amount) the
// public taxonomy in spec §7 requires.
var (
	ErrNonPositive    = errors.New("quantity must be positive")
	ErrExcessive      = errors.New("quantity exceeds withdrawable balance")
	ErrNegativeMarkup = errors.New("markup must be non-negative")
	ErrExceeds        = errors.New("quantity exceeds reservable balance")
)

// ExcessiveError carries the amount that could actually be withdrawn.
type ExcessiveError struct {
	Withdrawable float32
}

func (e *ExcessiveError) Error() string {
	return fmt.Sprintf("%v: withdrawable=%v", ErrExcessive, e.Withdrawable)
}
func (e *ExcessiveError) Unwrap() error { return ErrExcessive }

// ExceedsError carries the reservable amount a buy-price query exceeded.
type ExceedsError struct {
	Reservable float32
}

func (e *ExceedsError) Error() string {
	return fmt.Sprintf("%v: reservable=%v", ErrExceeds, e.Reservable)
}
func (e *ExceedsError) Unwrap() error { return ErrExceeds }
