// Package txn implements the per-transaction state machines for buy and
// sell reservations (spec §4.2/§4.3): Reserved -> Paid | Expired, plus
// the ledger mutations each transition performs.
package txn

import (
	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
)

// buyMarkup is the markup ratio the engine takes on a buy reservation:
// none when swapping its own base currency for itself, 1% otherwise.
func buyMarkup(k currency.Kind) float32 {
	if k == currency.BASE {
		return 0
	}
	return 1
}

// BuyTx is the engine's record of a counterparty's promise to buy (k,
// qty) from it for a base-currency bid. It holds qty in reserved and
// expects bid in future(BASE).
type BuyTx struct {
	Kind  currency.Kind
	Qty   float32
	Bid   float32
	state State
}

// ReserveBuy validates and applies a buy proposal against l, returning
// a new BuyTx in state Reserved on success.
func ReserveBuy(l *ledger.LedgerOps, k currency.Kind, qty, bid float32) (*BuyTx, error) {
	if qty <= 0 {
		return nil, ErrNonPositiveBuy
	}
	if bid <= 0 {
		return nil, ErrNonPositiveBid
	}
	reservableK := l.Reservable(k)
	if qty > reservableK {
		return nil, &ledger.ExceedsError{Reservable: reservableK}
	}

	price, err := l.BuyPrice(k, qty, buyMarkup(k))
	if err != nil {
		return nil, err
	}
	if bid < price {
		return nil, &BidTooLowError{MinBid: price}
	}

	if _, err := l.Free().Withdraw(k, qty); err != nil {
		return nil, err
	}
	l.Reserved().Deposit(k, qty)
	l.Future().Deposit(currency.BASE, bid)

	return &BuyTx{Kind: k, Qty: qty, Bid: bid, state: Reserved}, nil
}

func (tx *BuyTx) State() State { return tx.state }

// Settle pays the reservation: the payer must carry at least Bid units
// of BASE. On success the engine delivers (Kind, Qty) and transitions
// to Paid.
func (tx *BuyTx) Settle(l *ledger.LedgerOps, payer *Purse) (Delivery, error) {
	if tx.state != Reserved {
		return Delivery{}, &InvalidStateError{Current: tx.state}
	}
	if payer.Kind != currency.BASE {
		return Delivery{}, &WrongGoodKindError{Want: currency.BASE}
	}
	if payer.Qty < tx.Bid {
		return Delivery{}, &InsufficientQuantityError{Want: tx.Bid}
	}

	payer.Qty -= tx.Bid
	l.Free().Deposit(currency.BASE, tx.Bid)

	l.Reserved().WithdrawDrifted(tx.Kind, tx.Qty)
	l.Future().WithdrawDrifted(currency.BASE, tx.Bid)

	tx.state = Paid
	return Delivery{Kind: tx.Kind, Qty: tx.Qty}, nil
}

// Expire reverses the reservation if it is still outstanding. It is a
// no-op on an already-terminal transaction.
func (tx *BuyTx) Expire(l *ledger.LedgerOps) {
	if tx.state != Reserved {
		return
	}
	l.Reserved().WithdrawDrifted(tx.Kind, tx.Qty)
	l.Free().Deposit(tx.Kind, tx.Qty)
	l.Future().WithdrawDrifted(currency.BASE, tx.Bid)
	tx.state = Expired
}
