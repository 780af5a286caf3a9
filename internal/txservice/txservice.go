// Package txservice is the registry of outstanding and settled
// transactions: it mints tokens, routes settlement calls, and drives
// expiries off the tick queue (spec §4.5).
package txservice

import (
	"fmt"

	"github.com/google/uuid"

	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
	"fxmarket/internal/tickqueue"
	"fxmarket/internal/txn"
)

// Service owns the ledger, the buy/sell registries keyed by token, and
// the tick queue that times out stale reservations. Transactions are
// never removed after settlement or expiry: a settle call against a
// terminal transaction produces a diagnostic error, and BuyTx, SellTx
// and History still read it.
type Service struct {
	ledger *ledger.LedgerOps
	queue  *tickqueue.TickQueue

	buys  map[string]*txn.BuyTx
	sells map[string]*txn.SellTx

	// traders records which trader locked each token, for the
	// audit/history surface (console + journal); it is not part of the
	// core transaction state machine.
	traders map[string]string
}

// New builds a Service over l with the given reservation lifetime.
func New(l *ledger.LedgerOps, maxTicks int64) *Service {
	return &Service{
		ledger:  l,
		queue:   tickqueue.New(maxTicks),
		buys:    make(map[string]*txn.BuyTx),
		sells:   make(map[string]*txn.SellTx),
		traders: make(map[string]string),
	}
}

// ReserveBuy validates and applies a buy proposal, returning a fresh
// token on success.
func (s *Service) ReserveBuy(k currency.Kind, qty, bid float32, trader string) (string, error) {
	tx, err := txn.ReserveBuy(s.ledger, k, qty, bid)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	s.buys[token] = tx
	s.traders[token] = trader
	s.queue.Push(token)
	return token, nil
}

// ReserveSell validates and applies a sell proposal, returning a fresh
// token on success.
func (s *Service) ReserveSell(k currency.Kind, qty, offer float32, trader string) (string, error) {
	tx, err := txn.ReserveSell(s.ledger, k, qty, offer)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	s.sells[token] = tx
	s.traders[token] = trader
	s.queue.Push(token)
	return token, nil
}

// SettleBuy looks up token and drives its BuyTx settlement.
func (s *Service) SettleBuy(token string, payer *txn.Purse) (txn.Delivery, error) {
	tx, ok := s.buys[token]
	if !ok {
		return txn.Delivery{}, txn.ErrUnknownToken
	}
	return tx.Settle(s.ledger, payer)
}

// SettleSell looks up token and drives its SellTx settlement.
func (s *Service) SettleSell(token string, payer *txn.Purse) (txn.Delivery, error) {
	tx, ok := s.sells[token]
	if !ok {
		return txn.Delivery{}, txn.ErrUnknownToken
	}
	return tx.Settle(s.ledger, payer)
}

// BuyTx returns the buy transaction for token, if any.
func (s *Service) BuyTx(token string) (*txn.BuyTx, bool) {
	tx, ok := s.buys[token]
	return tx, ok
}

// SellTx returns the sell transaction for token, if any.
func (s *Service) SellTx(token string) (*txn.SellTx, bool) {
	tx, ok := s.sells[token]
	return tx, ok
}

// TickAll pops every token that aged out this tick and expires its
// transaction. A token present in the tick queue but absent from both
// registries is a contract violation: every pushed token was inserted
// into exactly one registry at push time.
func (s *Service) TickAll() {
	for _, token := range s.queue.Tick() {
		if tx, ok := s.buys[token]; ok {
			tx.Expire(s.ledger)
			continue
		}
		if tx, ok := s.sells[token]; ok {
			tx.Expire(s.ledger)
			continue
		}
		panic(fmt.Sprintf("txservice: expired token %q not found in buys or sells", token))
	}
}

// HistoryEntry describes one transaction a trader locked, for the
// audit/history surface.
type HistoryEntry struct {
	Token string
	Side  string // "BUY" or "SELL"
	State txn.State
}

// History returns every transaction trader has locked, in no
// particular order. It is a read-only scan over the registries §4.5
// already keeps around after settlement or expiry.
func (s *Service) History(trader string) []HistoryEntry {
	var out []HistoryEntry
	for token, name := range s.traders {
		if name != trader {
			continue
		}
		if tx, ok := s.buys[token]; ok {
			out = append(out, HistoryEntry{Token: token, Side: "BUY", State: tx.State()})
			continue
		}
		if tx, ok := s.sells[token]; ok {
			out = append(out, HistoryEntry{Token: token, Side: "SELL", State: tx.State()})
		}
	}
	return out
}
