// Package rebalancer implements the engine's autonomous inventory
// rebalancer: per-currency import/export/shortage trackers and the
// scheduled transfers that enforce abundance bounds (spec §4.6).
package rebalancer

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hashicorp/go-multierror"

	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
)

const importTax = 0.25
const shortageRollProbability = 0.05

// Rebalancer holds one GoodTracker per currency kind and runs one
// refill step per engine tick.
type Rebalancer struct {
	trackers       map[currency.Kind]*GoodTracker
	startingCapital float32
	rng            *rand.Rand
}

// New builds a Rebalancer targeting the given starting capital (in
// BASE), with all four trackers starting in ImporterExporter. It owns a
// private random source so its 5% shortage roll is the only source of
// nondeterminism in the rebalancer, never shared with any other
// component.
func New(startingCapital float32) *Rebalancer {
	trackers := make(map[currency.Kind]*GoodTracker, 4)
	for _, k := range currency.All {
		trackers[k] = &GoodTracker{State: ImporterExporter}
	}
	return &Rebalancer{
		trackers:        trackers,
		startingCapital: startingCapital,
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Tracker returns the tracker for k, for diagnostics.
func (r *Rebalancer) Tracker(k currency.Kind) *GoodTracker { return r.trackers[k] }

// threshold is the inventory-abundance target for k, in units of k:
// 1/8 of starting capital converted at k's default rate.
func (r *Rebalancer) threshold(k currency.Kind) float32 {
	return (r.startingCapital / 8) * currency.DefaultRate(k)
}

// totalQty is the engine's holdings of k across the two accounts the
// rebalancer observes: free and reserved. future is excluded — it is
// the counterparty's pending inbound promise, not inventory the engine
// holds yet, and spec §4.7's tick step passes the rebalancer only
// freeAccount and reservedAccount. The rebalancer only ever transfers
// free balances (step 8 of spec §4.6); eligibility and threshold
// comparisons look at free+reserved exposure to k.
func totalQty(l *ledger.LedgerOps, k currency.Kind) float32 {
	return l.Reservable(k) + l.ReservedQty(k)
}

// baseValue projects k's total quantity into BASE terms, for ranking
// candidates of different currencies against each other.
func baseValue(l *ledger.LedgerOps, k currency.Kind) float32 {
	return totalQty(l, k) / currency.DefaultRate(k)
}

// Step runs one rebalancer tick: advance all trackers, find the least-
// and most-abundant eligible currencies, and — unless the tick instead
// rolls a shortage — transfer free balance from the most-abundant
// currency to the least-abundant one, net of the import tax.
func (r *Rebalancer) Step(l *ledger.LedgerOps) {
	var advanceErrs *multierror.Error
	for _, k := range currency.All {
		advanceErrs = multierror.Append(advanceErrs, r.trackers[k].Advance())
	}
	if err := advanceErrs.ErrorOrNil(); err != nil {
		panic(fmt.Sprintf("rebalancer: tracker advance invariant violated: %v", err))
	}

	least, leastOK := r.leastAbundant(l)
	most, mostOK := r.mostAbundant(l)
	if !leastOK || !mostOK {
		return
	}

	if r.rng.Float64() < shortageRollProbability {
		r.trackers[least].State = Shortage
		r.trackers[least].Days = 0
		return
	}

	if r.trackers[least].State == ImporterExporter {
		r.trackers[least].State = Importer
		r.trackers[least].Days = 0
	}
	if r.trackers[most].State == ImporterExporter {
		r.trackers[most].State = Exporter
		r.trackers[most].Days = 0
	}

	r.transfer(l, least, most)
}

// leastAbundant picks, among kinds whose tracker is ImporterExporter or
// Importer and whose total quantity is below threshold, the one with
// the smallest base-value projection. Ties favor whichever kind was
// encountered first in currency.All.
func (r *Rebalancer) leastAbundant(l *ledger.LedgerOps) (currency.Kind, bool) {
	var best currency.Kind
	var bestValue float32
	found := false
	for _, k := range currency.All {
		st := r.trackers[k].State
		if st != ImporterExporter && st != Importer {
			continue
		}
		if totalQty(l, k) >= r.threshold(k) {
			continue
		}
		v := baseValue(l, k)
		if !found || v < bestValue {
			best, bestValue, found = k, v, true
		}
	}
	return best, found
}

// mostAbundant picks, among kinds whose tracker is ImporterExporter or
// Exporter and whose total quantity is at least twice threshold, the
// one with the largest base-value projection. Ties favor whichever
// kind was encountered first in currency.All.
func (r *Rebalancer) mostAbundant(l *ledger.LedgerOps) (currency.Kind, bool) {
	var best currency.Kind
	var bestValue float32
	found := false
	for _, k := range currency.All {
		st := r.trackers[k].State
		if st != ImporterExporter && st != Exporter {
			continue
		}
		if totalQty(l, k) < 2*r.threshold(k) {
			continue
		}
		v := baseValue(l, k)
		if !found || v > bestValue {
			best, bestValue, found = k, v, true
		}
	}
	return best, found
}

// transfer moves free balance from most to least, net of the import
// tax, per steps 6-8 of spec §4.6.
func (r *Rebalancer) transfer(l *ledger.LedgerOps, least, most currency.Kind) {
	neededLeast := r.threshold(least) - totalQty(l, least)
	if neededLeast <= 0 {
		return
	}
	neededInMost := (neededLeast / currency.DefaultRate(least)) * currency.DefaultRate(most)
	wanted := neededInMost / (1 - importTax)

	availMost := totalQty(l, most) - r.threshold(most)
	w := wanted
	if availMost < w {
		w = availMost
	}
	// The transfer can only ever draw down free balance: reserved and
	// future amounts back outstanding reservations and must not move.
	if free := l.Reservable(most); free < w {
		w = free
	}
	if w <= 0 {
		return
	}

	d := (w / currency.DefaultRate(most)) * currency.DefaultRate(least) * (1 - importTax)

	if _, err := l.Free().Withdraw(most, w); err != nil {
		return
	}
	l.Free().Deposit(least, d)
}
