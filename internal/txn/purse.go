package txn

import "fxmarket/internal/currency"

// Purse is the mutable payer carrier settle operations draw payment
// from: a single-currency amount the counterparty brings to a
// settlement call. Settle spends out of it in place.
type Purse struct {
	Kind currency.Kind
	Qty  float32
}

// Delivery is the good the engine hands back on a successful settle:
// (k, q) for a buy, (BASE, amount) for a sell.
type Delivery struct {
	Kind currency.Kind
	Qty  float32
}
