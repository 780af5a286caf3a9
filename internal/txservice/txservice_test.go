package txservice

import (
	"errors"
	"testing"

	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
	"fxmarket/internal/txn"
)

func newService(maxTicks int64) *Service {
	l := ledger.New(map[currency.Kind]float32{
		currency.BASE: 10000,
		currency.A:    5000,
		currency.B:    5000,
		currency.C:    5000,
	})
	return New(l, maxTicks)
}

func TestReserveSettleBuy(t *testing.T) {
	s := newService(10)
	token, err := s.ReserveBuy(currency.A, 100, 1000, "alice")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	delivery, err := s.SettleBuy(token, &txn.Purse{Kind: currency.BASE, Qty: 1000})
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if delivery.Kind != currency.A || delivery.Qty != 100 {
		t.Fatalf("unexpected delivery: %+v", delivery)
	}
}

func TestSettleUnknownToken(t *testing.T) {
	s := newService(10)
	if _, err := s.SettleBuy("does-not-exist", &txn.Purse{}); !errors.Is(err, txn.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if _, err := s.SettleSell("does-not-exist", &txn.Purse{}); !errors.Is(err, txn.ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
}

func TestTickAllExpiresAgedReservations(t *testing.T) {
	s := newService(3)
	token, err := s.ReserveBuy(currency.A, 100, 1000, "alice")
	if err != nil {
		t.Fatalf("reserve failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		s.TickAll()
	}

	tx, ok := s.BuyTx(token)
	if !ok {
		t.Fatalf("expected transaction to remain in registry after expiry")
	}
	if tx.State() != txn.Expired {
		t.Fatalf("expected Expired, got %v", tx.State())
	}

	// Settling an expired reservation surfaces InvalidState, not UnknownToken.
	var invalid *txn.InvalidStateError
	_, err = s.SettleBuy(token, &txn.Purse{Kind: currency.BASE, Qty: 1000})
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
}

func TestHistoryFiltersByTrader(t *testing.T) {
	s := newService(10)
	tok1, _ := s.ReserveBuy(currency.A, 100, 1000, "alice")
	s.ReserveSell(currency.B, 50, 10, "bob")

	hist := s.History("alice")
	if len(hist) != 1 || hist[0].Token != tok1 || hist[0].Side != "BUY" {
		t.Fatalf("unexpected history for alice: %+v", hist)
	}
	if len(s.History("carol")) != 0 {
		t.Fatalf("expected no history for unknown trader")
	}
}
