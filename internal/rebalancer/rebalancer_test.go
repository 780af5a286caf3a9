package rebalancer

import (
	"math/rand"
	"testing"

	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
)

func newLedgerWith(free map[currency.Kind]float32) *ledger.LedgerOps {
	return ledger.New(free)
}

func TestThresholdIsOneEighthStartingCapitalConvertedAtDefaultRate(t *testing.T) {
	r := New(8000)
	if got := r.threshold(currency.BASE); got != 1000 {
		t.Fatalf("threshold(BASE) = %v, want 1000", got)
	}
	want := 1000 * currency.DefaultRate(currency.A)
	if got := r.threshold(currency.A); got != want {
		t.Fatalf("threshold(A) = %v, want %v", got, want)
	}
}

func TestStepTransfersFromMostToLeastAbundant(t *testing.T) {
	// startingCapital=8000 -> threshold(BASE)=1000, threshold(A)=1100.
	// BASE sits far below its threshold; A sits far above twice its
	// threshold, so A should export into BASE. B and C sit between their
	// threshold and twice it, so neither is a candidate.
	l := newLedgerWith(map[currency.Kind]float32{
		currency.BASE: 100,
		currency.A:    10000,
		currency.B:    1000,
		currency.C:    150000,
	})
	r := New(8000)
	r.rng = rand.New(rand.NewSource(1)) // fixed seed; its first roll (about 0.60) misses the 5% shortage

	before := l.Reservable(currency.BASE)
	r.Step(l)

	if l.Reservable(currency.A) >= 10000 {
		t.Fatalf("expected A free balance to decrease, still %v", l.Reservable(currency.A))
	}
	if l.Reservable(currency.BASE) <= before {
		// A shortage roll can suppress the transfer; skip rather than flake.
		if r.trackers[currency.BASE].State == Shortage {
			t.Skip("shortage roll suppressed the transfer this run")
		}
		t.Fatalf("expected BASE free balance to increase from %v, got %v", before, l.Reservable(currency.BASE))
	}
}

func TestStepNoOpWhenNoEligibleCandidates(t *testing.T) {
	// All kinds sit right at threshold: no candidate is below threshold
	// and none is at or above twice threshold.
	l := newLedgerWith(map[currency.Kind]float32{
		currency.BASE: 1000,
		currency.A:    1100,
		currency.B:    800,
		currency.C:    130000,
	})
	r := New(8000)
	snapshot := l.Free().Snapshot()
	r.Step(l)
	after := l.Free().Snapshot()
	for k, v := range snapshot {
		if after[k] != v {
			t.Fatalf("expected no transfer, kind %v changed from %v to %v", k, v, after[k])
		}
	}
}

func TestShortageRollMovesLeastAbundantToShortageState(t *testing.T) {
	l := newLedgerWith(map[currency.Kind]float32{
		currency.BASE: 100,
		currency.A:    10000,
		currency.B:    1000,
		currency.C:    150000,
	})
	r := New(8000)
	r.rng = rand.New(constZero{})

	r.Step(l)
	if r.trackers[currency.BASE].State != Shortage {
		t.Fatalf("expected BASE to roll into Shortage, got %v", r.trackers[currency.BASE].State)
	}
	if l.Reservable(currency.A) != 10000 {
		t.Fatalf("expected no transfer on a shortage roll, A free balance changed to %v", l.Reservable(currency.A))
	}
}

func TestPromotionFromImporterExporterToImporterAndExporter(t *testing.T) {
	l := newLedgerWith(map[currency.Kind]float32{
		currency.BASE: 100,
		currency.A:    10000,
		currency.B:    1000,
		currency.C:    150000,
	})
	r := New(8000)
	r.rng = rand.New(constOne{})

	r.Step(l)
	if r.trackers[currency.BASE].State != Importer {
		t.Fatalf("expected BASE to promote to Importer, got %v", r.trackers[currency.BASE].State)
	}
	if r.trackers[currency.A].State != Exporter {
		t.Fatalf("expected A to promote to Exporter, got %v", r.trackers[currency.A].State)
	}
}

func TestTransferAppliesImportTaxDeadweightLoss(t *testing.T) {
	l := newLedgerWith(map[currency.Kind]float32{
		currency.BASE: 100,
		currency.A:    10000,
		currency.B:    1000,
		currency.C:    150000,
	})
	r := New(8000)
	r.rng = rand.New(constOne{})

	baseBefore := l.Reservable(currency.BASE)
	aBefore := l.Reservable(currency.A)

	r.Step(l)

	withdrawn := aBefore - l.Reservable(currency.A)
	deposited := l.Reservable(currency.BASE) - baseBefore
	if withdrawn <= 0 || deposited <= 0 {
		t.Fatalf("expected a nonzero transfer, withdrew %v deposited %v", withdrawn, deposited)
	}
	// The deposit must be strictly less than the base-equivalent value of
	// what was withdrawn: the import tax is a deadweight loss, not a
	// currency conversion.
	rate := currency.DefaultRate(currency.A) / currency.DefaultRate(currency.BASE)
	equivalent := withdrawn / rate
	if deposited >= equivalent {
		t.Fatalf("expected deposited (%v) < untaxed equivalent (%v)", deposited, equivalent)
	}
}

// constZero and constOne are fixed rand.Source implementations used to
// pin the shortage roll's outcome: constZero always lands under the 5%
// threshold, constOne (Float64() == 0.5) always lands over it.
type constZero struct{}

func (constZero) Int63() int64 { return 0 }
func (constZero) Seed(int64)   {}

type constOne struct{}

func (constOne) Int63() int64 { return 1 << 62 }
func (constOne) Seed(int64)   {}
