// Package ledger implements the engine's triple-account bookkeeping and
// its deterministic pricing formulas (spec §§3-4.1).
package ledger

import (
	"math"

	"fxmarket/internal/currency"
)

// LedgerOps is the single writer of the engine's three accounts: free
// (immediately available), reserved (promised to an outstanding
// reservation: a buy's goods, or a sell's BASE offer), and future
// (counterparty's pending inbound promise).
// Every other component mutates balances exclusively through its
// methods.
type LedgerOps struct {
	free     *Account
	reserved *Account
	future   *Account
}

// New builds a LedgerOps from starting free balances; reserved and
// future both start at zero for every kind.
func New(initialFree map[currency.Kind]float32) *LedgerOps {
	return &LedgerOps{
		free:     NewAccount(initialFree),
		reserved: NewAccount(nil),
		future:   NewAccount(nil),
	}
}

func (l *LedgerOps) Free() *Account     { return l.free }
func (l *LedgerOps) Reserved() *Account { return l.reserved }
func (l *LedgerOps) Future() *Account   { return l.future }

// Reservable is the quantity immediately available for a new
// reservation of kind k.
func (l *LedgerOps) Reservable(k currency.Kind) float32 { return l.free.Balance(k) }

// ReservedQty is the quantity of kind k currently held against
// outstanding reservations (buys of k, and for BASE also sell offers).
func (l *LedgerOps) ReservedQty(k currency.Kind) float32 { return l.reserved.Balance(k) }

// FutureQty is the quantity the engine is committed to receive from
// outstanding reservations of kind k.
func (l *LedgerOps) FutureQty(k currency.Kind) float32 { return l.future.Balance(k) }

// BuyPrice is what the counterparty must pay (in BASE) to buy q of kind
// k from the engine at markup ratio m (a percentage: 1+m/100).
func (l *LedgerOps) BuyPrice(k currency.Kind, q, m float32) (float32, error) {
	if q <= 0 {
		return 0, ErrNonPositive
	}
	if m < 0 {
		return 0, ErrNegativeMarkup
	}
	reservableK := l.Reservable(k)
	if q > reservableK {
		return 0, &ExceedsError{Reservable: reservableK}
	}
	if k == currency.BASE {
		return q * (1 + m/100), nil
	}
	baseClaims := l.Reservable(currency.BASE) + l.ReservedQty(currency.BASE) + l.FutureQty(currency.BASE)
	rate := baseClaims / (reservableK - q)
	return q * rate * (1 + m/100), nil
}

// SellPrice is what the engine pays the counterparty (in BASE) to buy q
// of kind k from them at discount ratio m.
func (l *LedgerOps) SellPrice(k currency.Kind, q, m float32) (float32, error) {
	if q <= 0 {
		return 0, ErrNonPositive
	}
	if m < 0 {
		return 0, ErrNegativeMarkup
	}
	if k == currency.BASE {
		return q * (1 - m/100), nil
	}
	denom := l.Reservable(k) + l.ReservedQty(k) + l.FutureQty(k) + q
	rate := l.Reservable(currency.BASE) / denom
	return q * rate * (1 - m/100), nil
}

// ExchangeRate is the unit price at markup m: BuyPrice(k, 1, m). If the
// unit query would fail (with Exceeds: the engine holds less than one
// unit of k), the reported rate saturates to the maximum representable
// float32 instead of propagating the error, per spec §4.1.
func (l *LedgerOps) ExchangeRate(k currency.Kind, m float32) float32 {
	rate, err := l.BuyPrice(k, 1, m)
	if err != nil {
		return math.MaxFloat32
	}
	return rate
}
