package txn

import (
	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
)

func sellDiscount(k currency.Kind) float32 {
	if k == currency.BASE {
		return 0
	}
	return 1
}

// SellTx is the engine's record of a counterparty's promise to sell
// (k, qty) to it for a base-currency offer. It holds offer in
// reserved(BASE) and expects qty in future(k).
type SellTx struct {
	Kind  currency.Kind
	Qty   float32
	Offer float32
	state State
}

// ReserveSell validates and applies a sell proposal against l, returning
// a new SellTx in state Reserved on success.
func ReserveSell(l *ledger.LedgerOps, k currency.Kind, qty, offer float32) (*SellTx, error) {
	if qty <= 0 {
		return nil, ErrNonPositiveSell
	}
	if offer <= 0 {
		return nil, ErrNonPositiveOffer
	}
	reservableBase := l.Reservable(currency.BASE)
	if offer > reservableBase {
		return nil, &ledger.ExceedsError{Reservable: reservableBase}
	}

	ceiling, err := l.SellPrice(k, qty, sellDiscount(k))
	if err != nil {
		return nil, err
	}
	if offer > ceiling {
		return nil, &OfferTooHighError{MaxOffer: ceiling}
	}

	if _, err := l.Free().Withdraw(currency.BASE, offer); err != nil {
		return nil, err
	}
	l.Reserved().Deposit(currency.BASE, offer)
	l.Future().Deposit(k, qty)

	return &SellTx{Kind: k, Qty: qty, Offer: offer, state: Reserved}, nil
}

func (tx *SellTx) State() State { return tx.state }

// Settle pays the reservation: the payer must carry at least Qty units
// of Kind. On success the engine delivers Offer units of BASE and
// transitions to Paid.
func (tx *SellTx) Settle(l *ledger.LedgerOps, payer *Purse) (Delivery, error) {
	if tx.state != Reserved {
		return Delivery{}, &InvalidStateError{Current: tx.state}
	}
	if payer.Kind != tx.Kind {
		return Delivery{}, &WrongGoodKindError{Want: tx.Kind}
	}
	if payer.Qty < tx.Qty {
		return Delivery{}, &InsufficientQuantityError{Want: tx.Qty}
	}

	payer.Qty -= tx.Qty
	l.Free().Deposit(tx.Kind, tx.Qty)

	l.Reserved().WithdrawDrifted(currency.BASE, tx.Offer)
	l.Future().WithdrawDrifted(tx.Kind, tx.Qty)

	tx.state = Paid
	return Delivery{Kind: currency.BASE, Qty: tx.Offer}, nil
}

// Expire reverses the reservation if it is still outstanding. It is a
// no-op on an already-terminal transaction.
func (tx *SellTx) Expire(l *ledger.LedgerOps) {
	if tx.state != Reserved {
		return
	}
	l.Reserved().WithdrawDrifted(currency.BASE, tx.Offer)
	l.Free().Deposit(currency.BASE, tx.Offer)
	l.Future().WithdrawDrifted(tx.Kind, tx.Qty)
	tx.state = Expired
}
