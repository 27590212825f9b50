// Package agents implements the three trading strategies the driver can
// animate: a noise trader providing random liquidity, a market maker
// quoting both sides with inventory skew, and an informed trader acting
// on a noisy observation of the fair price.
package agents

import (
	"math"
	"math/rand"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// NoiseTraderConfig parameterizes a NoiseTrader.
type NoiseTraderConfig struct {
	Instrument          ids.InstrumentID
	ObservationNoise    float64
	Spread              ids.Price
	MinQuantity         ids.Quantity
	MaxQuantity         ids.Quantity
	MinInterval         ids.Timestamp
	MaxInterval         ids.Timestamp
	AdverseFillThreshold ids.Price
	StaleOrderThreshold ids.Price
}

type trackedOrder struct {
	orderID   ids.OrderID
	price     ids.Price
	side      book.Side
	remaining ids.Quantity
}

type pendingOrder struct {
	price ids.Price
	side  book.Side
	qty   ids.Quantity
}

// NoiseTrader submits random limit orders around an observed fair price
// and cancels resting orders once they drift too far from fair, either
// because they have become unlikely to fill (stale) or because filling
// them now would be a bad trade (adverse).
type NoiseTrader struct {
	simulation.BaseAgent
	cfg     NoiseTraderConfig
	rng     *rand.Rand
	pending []pendingOrder
	active  []trackedOrder
}

// NewNoiseTrader builds a noise trader identified by id, seeded
// independently of every other participant in the run.
func NewNoiseTrader(id ids.ClientID, cfg NoiseTraderConfig, seed uint64) *NoiseTrader {
	return &NoiseTrader{
		BaseAgent: simulation.NewBaseAgent(id),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(int64(seed))),
	}
}

func (n *NoiseTrader) OnWakeup(ctx simulation.Context) {
	n.cancelStaleOrders(ctx)
	n.submitRandomOrder(ctx)
	n.scheduleNextWakeup(ctx)
}

func (n *NoiseTrader) OnOrderAccepted(ctx simulation.Context, evt event.OrderAccepted) {
	if len(n.pending) == 0 {
		return
	}
	p := n.pending[0]
	n.pending = n.pending[1:]
	n.active = append(n.active, trackedOrder{orderID: evt.Result.OrderID, price: p.price, side: p.side, remaining: p.qty})
}

func (n *NoiseTrader) OnOrderCancelled(ctx simulation.Context, evt event.OrderCancelled) {
	n.dropTracked(evt.OrderID)
}

func (n *NoiseTrader) OnTrade(ctx simulation.Context, evt event.Trade) {
	tr := evt.Trade
	if tr.BuyerID == n.ID() {
		n.applyFill(tr.BuyerOrderID, tr.Quantity)
	}
	if tr.SellerID == n.ID() {
		n.applyFill(tr.SellerOrderID, tr.Quantity)
	}
}

func (n *NoiseTrader) applyFill(orderID ids.OrderID, qty ids.Quantity) {
	for i := range n.active {
		if n.active[i].orderID != orderID {
			continue
		}
		if qty >= n.active[i].remaining {
			n.active = append(n.active[:i], n.active[i+1:]...)
		} else {
			n.active[i].remaining -= qty
		}
		return
	}
}

func (n *NoiseTrader) dropTracked(orderID ids.OrderID) {
	for i := range n.active {
		if n.active[i].orderID == orderID {
			n.active = append(n.active[:i], n.active[i+1:]...)
			return
		}
	}
}

func observePrice(ctx simulation.Context, rng *rand.Rand, noise float64) ids.Price {
	truePrice := ctx.FairPrice()
	if noise <= 0 {
		return truePrice
	}
	noisy := float64(truePrice) + rng.NormFloat64()*noise
	return ids.Price(math.Max(1, math.Round(noisy)))
}

// isStaleOrAdverse applies the predicate from spec.md's §4.7.1: thresholds
// of zero disable their respective check.
func isStaleOrAdverse(o trackedOrder, fair ids.Price, adverseThreshold, staleThreshold ids.Price) bool {
	if o.side == book.Buy {
		if adverseThreshold > 0 && o.price > fair+adverseThreshold {
			return true
		}
		if staleThreshold > 0 && o.price+staleThreshold < fair {
			return true
		}
		return false
	}
	if adverseThreshold > 0 && o.price+adverseThreshold < fair {
		return true
	}
	if staleThreshold > 0 && o.price > fair+staleThreshold {
		return true
	}
	return false
}

func (n *NoiseTrader) cancelStaleOrders(ctx simulation.Context) {
	fair := ctx.FairPrice()
	for _, o := range n.active {
		if isStaleOrAdverse(o, fair, n.cfg.AdverseFillThreshold, n.cfg.StaleOrderThreshold) {
			ctx.CancelOrder(o.orderID)
		}
	}
}

func (n *NoiseTrader) submitRandomOrder(ctx simulation.Context) {
	observed := observePrice(ctx, n.rng, n.cfg.ObservationNoise)

	side := book.Buy
	if n.rng.Intn(2) == 1 {
		side = book.Sell
	}

	lo := ids.Price(1)
	if observed > n.cfg.Spread {
		lo = observed - n.cfg.Spread
	}
	price := ids.MaxPrice(uniformPrice(n.rng, lo, observed+n.cfg.Spread), 1)
	qty := uniformQuantity(n.rng, n.cfg.MinQuantity, n.cfg.MaxQuantity)

	n.pending = append(n.pending, pendingOrder{price: price, side: side, qty: qty})
	ctx.SubmitOrder(n.cfg.Instrument, qty, price, side, book.Limit)
}

func (n *NoiseTrader) scheduleNextWakeup(ctx simulation.Context) {
	next := ctx.Now() + uniformTimestamp(n.rng, n.cfg.MinInterval, n.cfg.MaxInterval)
	ctx.ScheduleWakeup(next)
}

func uniformPrice(rng *rand.Rand, lo, hi ids.Price) ids.Price {
	if hi <= lo {
		return lo
	}
	return lo + ids.Price(rng.Int63n(int64(hi-lo+1)))
}

func uniformQuantity(rng *rand.Rand, lo, hi ids.Quantity) ids.Quantity {
	if hi <= lo {
		return lo
	}
	return lo + ids.Quantity(rng.Int63n(int64(hi-lo+1)))
}

func uniformTimestamp(rng *rand.Rand, lo, hi ids.Timestamp) ids.Timestamp {
	if hi <= lo {
		return lo
	}
	return lo + ids.Timestamp(rng.Int63n(int64(hi-lo+1)))
}
