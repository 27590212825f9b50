package agents

import (
	"math/rand"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// InformedTraderConfig parameterizes an InformedTrader.
type InformedTraderConfig struct {
	Instrument           ids.InstrumentID
	MinQuantity          ids.Quantity
	MaxQuantity          ids.Quantity
	MinInterval          ids.Timestamp
	MaxInterval          ids.Timestamp
	MinEdge              ids.Price
	ObservationNoise     float64
	AdverseFillThreshold ids.Price
	StaleOrderThreshold  ids.Price
}

// InformedTrader trades on a noisy observation of the fair price,
// crossing the spread whenever the observed edge exceeds MinEdge.
type InformedTrader struct {
	simulation.BaseAgent
	cfg     InformedTraderConfig
	rng     *rand.Rand
	pending []pendingOrder
	active  []trackedOrder
}

// NewInformedTrader builds an informed trader identified by id.
func NewInformedTrader(id ids.ClientID, cfg InformedTraderConfig, seed uint64) *InformedTrader {
	return &InformedTrader{
		BaseAgent: simulation.NewBaseAgent(id),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(int64(seed))),
	}
}

func (it *InformedTrader) OnWakeup(ctx simulation.Context) {
	it.cancelStaleOrders(ctx)

	observed := observePrice(ctx, it.rng, it.cfg.ObservationNoise)
	view := ctx.OrderBook(it.cfg.Instrument)

	if bestAsk, ok := view.BestAsk(); ok && observed > bestAsk+it.cfg.MinEdge {
		qty := uniformQuantity(it.rng, it.cfg.MinQuantity, it.cfg.MaxQuantity)
		it.pending = append(it.pending, pendingOrder{price: bestAsk, side: book.Buy, qty: qty})
		ctx.SubmitOrder(it.cfg.Instrument, qty, bestAsk, book.Buy, book.Limit)
	}

	if bestBid, ok := view.BestBid(); ok && observed+it.cfg.MinEdge < bestBid {
		qty := uniformQuantity(it.rng, it.cfg.MinQuantity, it.cfg.MaxQuantity)
		it.pending = append(it.pending, pendingOrder{price: bestBid, side: book.Sell, qty: qty})
		ctx.SubmitOrder(it.cfg.Instrument, qty, bestBid, book.Sell, book.Limit)
	}

	it.scheduleNextWakeup(ctx)
}

func (it *InformedTrader) OnOrderAccepted(ctx simulation.Context, evt event.OrderAccepted) {
	if len(it.pending) == 0 {
		return
	}
	p := it.pending[0]
	it.pending = it.pending[1:]
	it.active = append(it.active, trackedOrder{orderID: evt.Result.OrderID, price: p.price, side: p.side, remaining: p.qty})
}

func (it *InformedTrader) OnOrderCancelled(ctx simulation.Context, evt event.OrderCancelled) {
	for i := range it.active {
		if it.active[i].orderID == evt.OrderID {
			it.active = append(it.active[:i], it.active[i+1:]...)
			return
		}
	}
}

func (it *InformedTrader) OnTrade(ctx simulation.Context, evt event.Trade) {
	tr := evt.Trade
	if tr.BuyerID == it.ID() {
		it.applyFill(tr.BuyerOrderID, tr.Quantity)
	}
	if tr.SellerID == it.ID() {
		it.applyFill(tr.SellerOrderID, tr.Quantity)
	}
}

func (it *InformedTrader) applyFill(orderID ids.OrderID, qty ids.Quantity) {
	for i := range it.active {
		if it.active[i].orderID != orderID {
			continue
		}
		if qty >= it.active[i].remaining {
			it.active = append(it.active[:i], it.active[i+1:]...)
		} else {
			it.active[i].remaining -= qty
		}
		return
	}
}

func (it *InformedTrader) cancelStaleOrders(ctx simulation.Context) {
	fair := ctx.FairPrice()
	for _, o := range it.active {
		if isStaleOrAdverse(o, fair, it.cfg.AdverseFillThreshold, it.cfg.StaleOrderThreshold) {
			ctx.CancelOrder(o.orderID)
		}
	}
}

func (it *InformedTrader) scheduleNextWakeup(ctx simulation.Context) {
	next := ctx.Now() + uniformTimestamp(it.rng, it.cfg.MinInterval, it.cfg.MaxInterval)
	ctx.ScheduleWakeup(next)
}
