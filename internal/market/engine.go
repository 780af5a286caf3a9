// Package market assembles the ledger, transaction service, and
// rebalancer behind the public façade traders actually call: pricing
// queries, lock/settle RPCs, and the peer event feed.
package market

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"

	"fxmarket/internal/currency"
	"fxmarket/internal/ledger"
	"fxmarket/internal/rebalancer"
	"fxmarket/internal/txn"
	"fxmarket/internal/txservice"
)

// Good describes one currency's standing inventory and quoted rates,
// the shape returned by Goods.
type Good struct {
	Kind     currency.Kind
	Qty      float32
	BuyRate  float32
	SellRate float32
}

// Config bundles the engine-wide parameters that come from
// internal/config rather than being hard-coded: the markup applied to
// non-BASE buy quotes, the discount applied to non-BASE sell quotes,
// the reservation lifetime in ticks, and the starting-capital cap used
// both by NewRandom and by the rebalancer's per-currency thresholds.
// Markup and Discount reach BuyPrice, SellPrice and Goods only;
// LockBuy and LockSell validate bids and offers against txn's fixed 1%
// markup and discount regardless of Config.
type Config struct {
	Markup          float32
	Discount        float32
	MaxTicks        int64
	StartingCapital float32
}

// MarketEngine is the public boundary every trader and peer market
// calls through. It owns the ledger, the transaction registry, and the
// rebalancer, and serializes all of their mutations behind its own
// methods — the engine itself is not internally concurrent; a caller
// driving it from multiple goroutines must synchronize its own calls.
type MarketEngine struct {
	name   string
	cfg    Config
	ledger *ledger.LedgerOps
	txsvc  *txservice.Service
	rebal  *rebalancer.Rebalancer
	logger Logger

	subscribers []Subscriber
}

// New builds a MarketEngine with the given starting free balances. Most
// callers want NewRandom or NewWithQuantities instead.
func New(name string, cfg Config, initial map[currency.Kind]float32, logger Logger) *MarketEngine {
	if logger == nil {
		logger = NopLogger{}
	}
	if err := validateInitial(initial); err != nil {
		panic(fmt.Sprintf("market: invalid initial balances for %q: %v", name, err))
	}
	l := ledger.New(initial)
	e := &MarketEngine{
		name:   name,
		cfg:    cfg,
		ledger: l,
		txsvc:  txservice.New(l, cfg.MaxTicks),
		rebal:  rebalancer.New(cfg.StartingCapital),
		logger: logger,
	}
	e.logInit(initial)
	return e
}

// NewWithQuantities builds a MarketEngine with explicit starting
// balances for all four kinds.
func NewWithQuantities(name string, cfg Config, qBase, qA, qB, qC float32, logger Logger) *MarketEngine {
	return New(name, cfg, map[currency.Kind]float32{
		currency.BASE: qBase,
		currency.A:    qA,
		currency.B:    qB,
		currency.C:    qC,
	}, logger)
}

// NewRandom builds a MarketEngine with a randomized starting inventory
// whose total base-equivalent value stays under cfg.StartingCapital by
// a small safety margin, split unevenly across the four kinds using
// rng.
func NewRandom(name string, cfg Config, rng *rand.Rand, logger Logger) *MarketEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	// Draw four positive weights and normalize them to shares of the
	// capital cap, then back each share out into units of its own kind.
	// A 1-1e-7 downshift keeps the realized total strictly under the cap
	// even after float32 rounding.
	const safetyMargin = 1 - 1e-7
	weights := make([]float64, len(currency.All))
	var sum float64
	for i := range currency.All {
		weights[i] = rng.Float64() + 0.01
		sum += weights[i]
	}
	initial := make(map[currency.Kind]float32, len(currency.All))
	for i, k := range currency.All {
		share := weights[i] / sum * float64(cfg.StartingCapital) * safetyMargin
		initial[k] = float32(share) * currency.DefaultRate(k)
	}
	return New(name, cfg, initial, logger)
}

func (e *MarketEngine) Name() string    { return e.name }
func (e *MarketEngine) Budget() float32 { return e.ledger.Reservable(currency.BASE) }
func (e *MarketEngine) Subscribe(s Subscriber) { e.subscribers = append(e.subscribers, s) }

// Goods lists every kind's current free standing and quoted rates.
func (e *MarketEngine) Goods() []Good {
	goods := make([]Good, 0, len(currency.All))
	for _, k := range currency.All {
		goods = append(goods, Good{
			Kind:     k,
			Qty:      e.ledger.Reservable(k),
			BuyRate:  e.ledger.ExchangeRate(k, e.buyMarkup(k)),
			SellRate: e.sellRate(k),
		})
	}
	return goods
}

// SetMarkup updates the markup applied to non-BASE buy quotes (not to
// LockBuy's bid check). It is the
// entry point internal/config's hot-reload uses; callers that drive
// the engine from multiple goroutines must hold whatever lock also
// guards the engine's other methods while calling it.
func (e *MarketEngine) SetMarkup(m float32) { e.cfg.Markup = m }

// SetDiscount updates the discount applied to non-BASE sell quotes
// (not to LockSell's offer check). Same synchronization requirement as
// SetMarkup.
func (e *MarketEngine) SetDiscount(d float32) { e.cfg.Discount = d }

func (e *MarketEngine) buyMarkup(k currency.Kind) float32 {
	if k == currency.BASE {
		return 0
	}
	return e.cfg.Markup
}

func (e *MarketEngine) sellMarkup(k currency.Kind) float32 {
	if k == currency.BASE {
		return 0
	}
	return e.cfg.Discount
}

func (e *MarketEngine) sellRate(k currency.Kind) float32 {
	rate, err := e.ledger.SellPrice(k, 1, e.sellMarkup(k))
	if err != nil {
		return 0
	}
	return rate
}

// BuyPrice quotes the cost of buying q of k. No tick.
func (e *MarketEngine) BuyPrice(k currency.Kind, q float32) (float32, error) {
	price, err := e.ledger.BuyPrice(k, q, e.buyMarkup(k))
	return price, mapLedgerError(err)
}

// SellPrice quotes the proceeds of selling q of k. No tick.
func (e *MarketEngine) SellPrice(k currency.Kind, q float32) (float32, error) {
	price, err := e.ledger.SellPrice(k, q, e.sellMarkup(k))
	return price, mapLedgerError(err)
}

// LockBuy proposes a buy, logging and publishing on success and
// advancing one tick either way.
func (e *MarketEngine) LockBuy(k currency.Kind, q, bid float32, trader string) (string, error) {
	token, err := e.txsvc.ReserveBuy(k, q, bid, trader)
	if err != nil {
		e.logger.Log(lockBuyLine(e.name, trader, k, q, bid, "", err))
		e.tick()
		return "", mapLockError(err)
	}
	e.logger.Log(lockBuyLine(e.name, trader, k, q, bid, token, nil))
	e.publish(Event{Kind: LockedBuy, Market: e.name, Good: k, Qty: q, Price: bid, Token: token})
	e.tick()
	return token, nil
}

// LockSell proposes a sell, logging and publishing on success and
// advancing one tick either way.
func (e *MarketEngine) LockSell(k currency.Kind, q, offer float32, trader string) (string, error) {
	token, err := e.txsvc.ReserveSell(k, q, offer, trader)
	if err != nil {
		e.logger.Log(lockSellLine(e.name, trader, k, q, offer, "", err))
		e.tick()
		return "", mapLockError(err)
	}
	e.logger.Log(lockSellLine(e.name, trader, k, q, offer, token, nil))
	e.publish(Event{Kind: LockedSell, Market: e.name, Good: k, Qty: q, Price: offer, Token: token})
	e.tick()
	return token, nil
}

// Buy settles a locked buy. On success the pre-agreed bid is taken out
// of payer and the delivered good returned; either way one tick is
// advanced.
func (e *MarketEngine) Buy(token string, payer *txn.Purse) (txn.Delivery, error) {
	if !validToken(token) {
		e.logger.Log(buySettleLine(e.name, token, false))
		e.tick()
		return txn.Delivery{}, ErrUnknownToken
	}
	delivery, err := e.txsvc.SettleBuy(token, payer)
	e.logger.Log(buySettleLine(e.name, token, err == nil))
	if err != nil {
		e.tick()
		return txn.Delivery{}, mapSettleError(err)
	}
	var price float32
	if tx, ok := e.txsvc.BuyTx(token); ok {
		price = tx.Bid
	}
	e.publish(Event{Kind: Bought, Market: e.name, Good: delivery.Kind, Qty: delivery.Qty, Price: price, Token: token})
	e.tick()
	return delivery, nil
}

// Sell settles a locked sell. On success the pre-agreed quantity is
// taken out of payer and the delivered BASE returned; either way one
// tick is advanced.
func (e *MarketEngine) Sell(token string, payer *txn.Purse) (txn.Delivery, error) {
	if !validToken(token) {
		e.logger.Log(sellSettleLine(e.name, token, false))
		e.tick()
		return txn.Delivery{}, ErrUnknownToken
	}
	delivery, err := e.txsvc.SettleSell(token, payer)
	e.logger.Log(sellSettleLine(e.name, token, err == nil))
	if err != nil {
		e.tick()
		return txn.Delivery{}, mapSettleError(err)
	}
	var price float32
	if tx, ok := e.txsvc.SellTx(token); ok {
		price = tx.Offer
	}
	e.publish(Event{Kind: Sold, Market: e.name, Good: delivery.Kind, Qty: delivery.Qty, Price: price, Token: token})
	e.tick()
	return delivery, nil
}

// OnEvent reacts to a peer market's published event by advancing one
// tick. The event's contents are intentionally ignored: the engine
// reacts only to the existence of foreign activity, not its substance,
// to stay compatible with peer markets regardless of their own event
// shapes.
func (e *MarketEngine) OnEvent(Event) {
	e.tick()
}

// History returns every lock a trader has made, settled or not.
func (e *MarketEngine) History(trader string) []txservice.HistoryEntry {
	return e.txsvc.History(trader)
}

func (e *MarketEngine) publish(ev Event) {
	for _, s := range e.subscribers {
		s.OnEvent(ev)
	}
}

func (e *MarketEngine) tick() {
	e.txsvc.TickAll()
	e.rebal.Step(e.ledger)
}

func (e *MarketEngine) logInit(initial map[currency.Kind]float32) {
	e.logger.Log(initLine(e.name, initial))
}

func validToken(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

// validateInitial rejects a starting-balance map with any negative
// kind. A single bad kind is easy to report on its own, but an operator
// misconfiguring all four at once (e.g. a botched YAML override)
// deserves one combined diagnostic rather than four cycles of
// fix-rerun-discover-the-next-one, so every kind is checked before
// reporting, via go-multierror, the same pack-provided aggregation
// rebalancer.Step uses for its own per-tracker invariant check.
func validateInitial(initial map[currency.Kind]float32) error {
	var errs *multierror.Error
	for _, k := range currency.All {
		if q := initial[k]; q < 0 {
			errs = multierror.Append(errs, fmt.Errorf("%v: negative starting balance %v", k, q))
		}
	}
	return errs.ErrorOrNil()
}

func mapLedgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrNonPositive):
		return ErrNonPositive
	case isExceeds(err):
		return ErrInsufficientAvailable
	default:
		return err
	}
}

func isExceeds(err error) bool {
	var exceeds *ledger.ExceedsError
	return errors.As(err, &exceeds)
}

func mapLockError(err error) error {
	var bidTooLow *txn.BidTooLowError
	var offerTooHigh *txn.OfferTooHighError
	switch {
	case errors.Is(err, txn.ErrNonPositiveBuy), errors.Is(err, txn.ErrNonPositiveSell),
		errors.Is(err, txn.ErrNonPositiveBid), errors.Is(err, txn.ErrNonPositiveOffer):
		return ErrNonPositive
	case errors.As(err, &bidTooLow):
		return ErrBidTooLow
	case errors.As(err, &offerTooHigh):
		return ErrOfferTooHigh
	case isExceeds(err):
		return ErrInsufficientAvailable
	default:
		return err
	}
}

func mapSettleError(err error) error {
	var invalidState *txn.InvalidStateError
	var wrongKind *txn.WrongGoodKindError
	var insufficient *txn.InsufficientQuantityError
	switch {
	case errors.Is(err, txn.ErrUnknownToken):
		return ErrUnknownToken
	case errors.As(err, &invalidState):
		// Both Expired (timed out by tick) and Paid (already settled)
		// collapse into ExpiredToken: the public taxonomy has no
		// separate "already settled" case, and an already-Paid
		// transaction is unreachable through ordinary use.
		return ErrExpiredToken
	case errors.As(err, &wrongKind):
		return ErrWrongKind
	case errors.As(err, &insufficient):
		return ErrInsufficientQuantity
	default:
		return err
	}
}

func nowStamp() string {
	now := time.Now()
	return fmt.Sprintf("%04d:%02d:%02d:%02d:%02d:%02d:%03d",
		now.Year(), now.Month(), now.Day(),
		now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1e6)
}
