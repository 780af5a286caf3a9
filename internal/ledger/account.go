package ledger

import "fxmarket/internal/currency"

// Account is a set of non-negative balances, one per currency kind.
// Every kind is always present; insertion order is irrelevant.
//
// Quantities are float32 by design: the engine's drift-tolerance policy
// (see WithdrawDrifted) is expressed in terms of single-precision rounding,
// and the test scenarios in spec §8 depend on that rounding.
type Account struct {
	balances [4]float32
}

// NewAccount builds an account with the given starting balance per kind,
// keyed by currency.Kind. Kinds omitted from initial default to zero.
func NewAccount(initial map[currency.Kind]float32) *Account {
	a := &Account{}
	for _, k := range currency.All {
		a.balances[k] = initial[k]
	}
	return a
}

func (a *Account) index(k currency.Kind) int { return int(k) }

// Balance returns the current balance of kind k.
func (a *Account) Balance(k currency.Kind) float32 {
	return a.balances[a.index(k)]
}

// Deposit adds q to the balance of kind k. Deposits are never rejected
// by this layer; spec §9 notes that overflow into +Inf is an observable
// edge case, not a guarded one.
func (a *Account) Deposit(k currency.Kind, q float32) {
	a.balances[a.index(k)] += q
}

// Withdraw removes q from the balance of kind k and returns the
// withdrawn amount. It fails with ErrNonPositive if q<=0, or an
// *ExcessiveError if q exceeds the current balance.
func (a *Account) Withdraw(k currency.Kind, q float32) (float32, error) {
	if q <= 0 {
		return 0, ErrNonPositive
	}
	idx := a.index(k)
	if q > a.balances[idx] {
		return 0, &ExcessiveError{Withdrawable: a.balances[idx]}
	}
	a.balances[idx] -= q
	return q, nil
}

// WithdrawDrifted is Withdraw with the drift-tolerance policy of spec
// §4.2/§9 applied: a requested amount that is slightly larger than the
// balance due to accumulated float32 error is treated as "withdraw
// everything remaining" (vacuum to zero) rather than failing.
func (a *Account) WithdrawDrifted(k currency.Kind, q float32) {
	idx := a.index(k)
	if q >= a.balances[idx] {
		a.balances[idx] = 0
		return
	}
	a.balances[idx] -= q
}

// Snapshot returns a copy of all four balances keyed by kind, for
// diagnostics and logging.
func (a *Account) Snapshot() map[currency.Kind]float32 {
	out := make(map[currency.Kind]float32, 4)
	for _, k := range currency.All {
		out[k] = a.balances[a.index(k)]
	}
	return out
}
