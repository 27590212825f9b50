// Package simulation is the driver: it owns the matching engines, the
// agent roster, the scheduler, the fair-price source, and the PnL ledger,
// and implements Context so agent callbacks can act back on the world
// that invoked them.
//
// Each instrument's engine numbers its orders independently, so the same
// order id can exist on two instruments. Cancel and modify requests carry
// no instrument and go to the first engine, in map iteration order, that
// holds the id.
package simulation

import (
	"math"
	"math/rand"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/fairprice"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/scheduler"
)

type latencyConfig struct {
	override    *ids.Timestamp
	jitterSigma float64
	jitterRNG   *rand.Rand
}

// Driver is the simulation orchestrator. The zero value is not usable;
// construct with New.
type Driver struct {
	sched         *scheduler.Scheduler
	engines       map[ids.InstrumentID]*book.Engine
	agents        map[ids.ClientID]Agent
	pnl           map[ids.ClientID]PnL
	fairPrice     fairprice.Source
	collector     Collector
	globalLatency ids.Timestamp
	latency       map[ids.ClientID]*latencyConfig
	currentAgent  ids.ClientID
}

// New builds a driver with an empty instrument/agent roster. globalLatency
// is the default action latency used for any agent without an override.
func New(globalLatency ids.Timestamp, fairPrice fairprice.Source, collector Collector) *Driver {
	if collector == nil {
		collector = NoopCollector{}
	}
	return &Driver{
		sched:         scheduler.New(),
		engines:       make(map[ids.InstrumentID]*book.Engine),
		agents:        make(map[ids.ClientID]Agent),
		pnl:           make(map[ids.ClientID]PnL),
		fairPrice:     fairPrice,
		collector:     collector,
		globalLatency: globalLatency,
		latency:       make(map[ids.ClientID]*latencyConfig),
	}
}

// AddInstrument registers a fresh matching engine for instrument.
func (d *Driver) AddInstrument(instrument ids.InstrumentID) {
	d.engines[instrument] = book.NewEngine(instrument)
}

// AddAgent registers agent with an optional per-agent latency override
// (nil uses the global default) and an optional log-normal jitter sigma.
// jitterSeed seeds a PRNG dedicated to this agent's latency sampling, kept
// separate from the agent's own strategy PRNG so that adding jitter never
// perturbs the agent's decision sequence.
func (d *Driver) AddAgent(agent Agent, override *ids.Timestamp, jitterSigma float64, jitterSeed uint64) {
	d.agents[agent.ID()] = agent
	cfg := &latencyConfig{override: override, jitterSigma: jitterSigma}
	if jitterSigma > 0 {
		cfg.jitterRNG = rand.New(rand.NewSource(int64(jitterSeed)))
	}
	d.latency[agent.ID()] = cfg
}

// Engine exposes the matching engine for an instrument, for seeding
// initial orders before the simulation starts.
func (d *Driver) Engine(instrument ids.InstrumentID) (*book.Engine, bool) {
	e, ok := d.engines[instrument]
	return e, ok
}

// PnLFor returns a participant's ledger, the zero value if never traded.
func (d *Driver) PnLFor(client ids.ClientID) PnL { return d.pnl[client] }

// AllPnL returns every participant's ledger.
func (d *Driver) AllPnL() map[ids.ClientID]PnL { return d.pnl }

// Now is the scheduler's current logical time.
func (d *Driver) Now() ids.Timestamp { return d.sched.Now() }

// SeedWakeup schedules an agent's first wakeup directly, bypassing the
// Context/latency path since no agent callback is attributing the action
// yet. Used by setup code (config's initial_wakeup fields) before the run
// starts; agents schedule their own subsequent wakeups via Context's
// ScheduleWakeup.
func (d *Driver) SeedWakeup(client ids.ClientID, at ids.Timestamp) {
	d.sched.Schedule(event.AgentWakeup{At: at, ClientID: client})
}

// SeedOrder schedules req to be submitted at the current time with no
// latency and no attributed agent, the way the original seeds
// initial_orders at t=0 before any agent wakes up.
func (d *Driver) SeedOrder(req book.Request) {
	d.sched.Schedule(event.OrderSubmitted{At: d.sched.Now(), Request: req})
}

// RunUntil pops and dispatches events while the scheduler is non-empty
// and the next event is due at or before end.
func (d *Driver) RunUntil(end ids.Timestamp) {
	for {
		ev, ok := d.sched.Peek()
		if !ok || ev.Timestamp() > end {
			return
		}
		d.Step()
	}
}

// Step pops and dispatches exactly one event, if any is pending.
func (d *Driver) Step() {
	ev, ok := d.sched.Pop()
	if !ok {
		return
	}

	d.fairPrice.AdvanceTo(d.sched.Now())
	d.dispatch(ev)

	now := d.sched.Now()
	fair := d.fairPrice.TruePrice()
	d.collector.MaybeSnapshotPnL(now, d.pnl, fair)
	for instrument, engine := range d.engines {
		bids := engine.Snapshot(book.Buy)
		asks := engine.Snapshot(book.Sell)
		var bestBid, bestAsk ids.Price
		if len(bids) > 0 {
			bestBid = bids[0].Price
		}
		if len(asks) > 0 {
			bestAsk = asks[0].Price
		}
		d.collector.MaybeSnapshotMarketState(now, instrument, fair, bestBid, bestAsk)
	}
}

func (d *Driver) dispatch(ev event.Event) {
	switch e := ev.(type) {
	case event.OrderSubmitted:
		d.handleOrderSubmitted(e)
	case event.CancellationSubmitted:
		d.handleCancellationSubmitted(e)
	case event.ModificationSubmitted:
		d.handleModificationSubmitted(e)
	case event.AgentWakeup:
		d.handleWakeup(e)
	}
}

func (d *Driver) handleWakeup(e event.AgentWakeup) {
	agent, ok := d.agents[e.ClientID]
	if !ok {
		return
	}
	d.currentAgent = e.ClientID
	agent.OnWakeup(d)
}

func (d *Driver) handleOrderSubmitted(e event.OrderSubmitted) {
	req := e.Request
	engine, ok := d.engines[req.InstrumentID]
	if !ok {
		d.notifyRejected(req.ClientID, event.OrderRejected{
			At: d.sched.Now(), ClientID: req.ClientID, InstrumentID: req.InstrumentID, Reason: "unknown instrument",
		})
		return
	}

	result := engine.ProcessOrder(req)

	if order, ok := engine.GetOrder(result.OrderID); ok && result.RemainingQuantity > 0 {
		d.collector.OnOrderAccepted(d.sched.Now(), req.ClientID, req.InstrumentID, order)
	}

	d.notifyAccepted(req.ClientID, event.OrderAccepted{At: d.sched.Now(), Result: result})

	for _, tr := range result.Trades {
		d.notifyTrade(tr, req.Side)
	}
}

func (d *Driver) handleCancellationSubmitted(e event.CancellationSubmitted) {
	for instrument, engine := range d.engines {
		order, ok := engine.GetOrder(e.OrderID)
		if !ok {
			continue
		}
		remaining := order.Quantity
		if engine.CancelOrder(e.ClientID, e.OrderID) {
			d.collector.OnOrderCancelled(d.sched.Now(), e.ClientID, order, remaining)
			d.notifyCancelled(e.ClientID, event.OrderCancelled{
				At: d.sched.Now(), ClientID: e.ClientID, OrderID: e.OrderID, InstrumentID: instrument,
			})
		}
		return
	}
}

func (d *Driver) handleModificationSubmitted(e event.ModificationSubmitted) {
	for instrument, engine := range d.engines {
		order, ok := engine.GetOrder(e.OrderID)
		if !ok {
			continue
		}
		oldPrice, oldQty, side := order.Price, order.Quantity, order.Side

		result := engine.ModifyOrder(e.ClientID, e.OrderID, e.NewQuantity, e.NewPrice)
		if result.Status != book.Accepted {
			return
		}

		d.collector.OnOrderModified(d.sched.Now(), result, instrument, side, oldPrice, oldQty)
		d.notifyModified(e.ClientID, event.OrderModified{At: d.sched.Now(), Result: result})

		if result.MatchResult != nil {
			for _, tr := range result.MatchResult.Trades {
				d.notifyTrade(tr, side)
			}
		}
		return
	}
}

// notifyTrade updates both participants' ledgers, emits persistence rows,
// and invokes the buyer's then the seller's OnTrade callback, attributing
// current_agent to whichever side is being notified.
func (d *Driver) notifyTrade(tr book.Trade, aggressor book.Side) {
	tradeValue := int64(tr.Quantity) * int64(tr.Price)

	buyerPnL := d.pnl[tr.BuyerID]
	buyerPnL.LongPosition += tr.Quantity
	buyerPnL.Cash -= ids.Cash(tradeValue)
	d.pnl[tr.BuyerID] = buyerPnL

	sellerPnL := d.pnl[tr.SellerID]
	sellerPnL.ShortPosition += tr.Quantity
	sellerPnL.Cash += ids.Cash(tradeValue)
	d.pnl[tr.SellerID] = sellerPnL

	d.collector.OnTrade(d.sched.Now(), tr.InstrumentID, tr, d.fairPrice.TruePrice(), aggressor)

	if engine, ok := d.engines[tr.InstrumentID]; ok {
		if o, ok := engine.GetOrder(tr.BuyerOrderID); ok {
			d.collector.OnFill(d.sched.Now(), tr, tr.BuyerOrderID, tr.BuyerID, o.Quantity, book.Buy)
		} else {
			d.collector.OnFill(d.sched.Now(), tr, tr.BuyerOrderID, tr.BuyerID, 0, book.Buy)
		}
		if o, ok := engine.GetOrder(tr.SellerOrderID); ok {
			d.collector.OnFill(d.sched.Now(), tr, tr.SellerOrderID, tr.SellerID, o.Quantity, book.Sell)
		} else {
			d.collector.OnFill(d.sched.Now(), tr, tr.SellerOrderID, tr.SellerID, 0, book.Sell)
		}
	}

	tradeEvt := event.Trade{At: d.sched.Now(), Trade: tr}

	if buyer, ok := d.agents[tr.BuyerID]; ok {
		d.currentAgent = tr.BuyerID
		buyer.OnTrade(d, tradeEvt)
	}
	if seller, ok := d.agents[tr.SellerID]; ok {
		d.currentAgent = tr.SellerID
		seller.OnTrade(d, tradeEvt)
	}
}

func (d *Driver) notifyAccepted(client ids.ClientID, evt event.OrderAccepted) {
	if a, ok := d.agents[client]; ok {
		d.currentAgent = client
		a.OnOrderAccepted(d, evt)
	}
}

func (d *Driver) notifyRejected(client ids.ClientID, evt event.OrderRejected) {
	if a, ok := d.agents[client]; ok {
		d.currentAgent = client
		a.OnOrderRejected(d, evt)
	}
}

func (d *Driver) notifyCancelled(client ids.ClientID, evt event.OrderCancelled) {
	if a, ok := d.agents[client]; ok {
		d.currentAgent = client
		a.OnOrderCancelled(d, evt)
	}
}

func (d *Driver) notifyModified(client ids.ClientID, evt event.OrderModified) {
	if a, ok := d.agents[client]; ok {
		d.currentAgent = client
		a.OnOrderModified(d, evt)
	}
}

// latencyFor computes the delay applied to an action taken by client right
// now: the per-agent override if set, else the global default, then
// optional log-normal jitter so the median delay still equals the base.
func (d *Driver) latencyFor(client ids.ClientID) ids.Timestamp {
	cfg, ok := d.latency[client]
	base := d.globalLatency
	if ok && cfg.override != nil {
		base = *cfg.override
	}
	if !ok || cfg.jitterSigma <= 0 || cfg.jitterRNG == nil {
		return base
	}
	z := cfg.jitterRNG.NormFloat64()
	sigma := cfg.jitterSigma
	factor := math.Exp(sigma*z - 0.5*sigma*sigma)
	return ids.Timestamp(math.Round(float64(base) * factor))
}

// --- Context implementation ---

func (d *Driver) SubmitOrder(instrument ids.InstrumentID, qty ids.Quantity, price ids.Price, side book.Side, typ book.Type) {
	d.sched.Schedule(event.OrderSubmitted{
		At: d.sched.Now() + d.latencyFor(d.currentAgent),
		Request: book.Request{
			ClientID:     d.currentAgent,
			Quantity:     qty,
			Price:        price,
			InstrumentID: instrument,
			Side:         side,
			Type:         typ,
		},
	})
}

func (d *Driver) CancelOrder(orderID ids.OrderID) {
	d.sched.Schedule(event.CancellationSubmitted{
		At:       d.sched.Now() + d.latencyFor(d.currentAgent),
		ClientID: d.currentAgent,
		OrderID:  orderID,
	})
}

func (d *Driver) ModifyOrder(orderID ids.OrderID, newQty ids.Quantity, newPrice ids.Price) {
	d.sched.Schedule(event.ModificationSubmitted{
		At:          d.sched.Now() + d.latencyFor(d.currentAgent),
		ClientID:    d.currentAgent,
		OrderID:     orderID,
		NewQuantity: newQty,
		NewPrice:    newPrice,
	})
}

func (d *Driver) ScheduleWakeup(at ids.Timestamp) {
	d.sched.Schedule(event.AgentWakeup{At: at, ClientID: d.currentAgent})
}

func (d *Driver) OrderBook(instrument ids.InstrumentID) BookView {
	engine, ok := d.engines[instrument]
	if !ok {
		return BookView{}
	}
	return BookView{Bids: engine.Snapshot(book.Buy), Asks: engine.Snapshot(book.Sell)}
}

func (d *Driver) FairPrice() ids.Price { return d.fairPrice.TruePrice() }
