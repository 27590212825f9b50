package agents

import (
	"math"
	"math/rand"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// MarketMakerConfig parameterizes a MarketMaker.
type MarketMakerConfig struct {
	Instrument          ids.InstrumentID
	ObservationNoise    float64
	HalfSpread          ids.Price
	QuoteSize           ids.Quantity
	UpdateInterval      ids.Timestamp
	InventorySkewFactor float64
	MaxPosition         ids.Quantity
}

// MarketMaker refreshes a two-sided quote around the book midpoint every
// UpdateInterval, skewing both quotes by net position times
// InventorySkewFactor. Per spec.md §9's preserved Open Question, both
// quotes move the same direction under inventory pressure, not opposite
// directions as conventional market making would skew them.
type MarketMaker struct {
	simulation.BaseAgent
	cfg           MarketMakerConfig
	rng           *rand.Rand
	longPosition  ids.Quantity
	shortPosition ids.Quantity
	activeOrders  []ids.OrderID
}

// NewMarketMaker builds a market maker identified by id.
func NewMarketMaker(id ids.ClientID, cfg MarketMakerConfig, seed uint64) *MarketMaker {
	return &MarketMaker{
		BaseAgent: simulation.NewBaseAgent(id),
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(int64(seed))),
	}
}

// NetPosition is long minus short, signed.
func (m *MarketMaker) NetPosition() int64 {
	return int64(m.longPosition) - int64(m.shortPosition)
}

func (m *MarketMaker) OnWakeup(ctx simulation.Context) {
	m.cancelExistingQuotes(ctx)
	m.postNewQuotes(ctx)
	ctx.ScheduleWakeup(ctx.Now() + m.cfg.UpdateInterval)
}

func (m *MarketMaker) OnTrade(ctx simulation.Context, evt event.Trade) {
	tr := evt.Trade
	if tr.BuyerID == m.ID() {
		m.longPosition += tr.Quantity
	}
	if tr.SellerID == m.ID() {
		m.shortPosition += tr.Quantity
	}
}

func (m *MarketMaker) OnOrderAccepted(ctx simulation.Context, evt event.OrderAccepted) {
	m.activeOrders = append(m.activeOrders, evt.Result.OrderID)
}

func (m *MarketMaker) OnOrderCancelled(ctx simulation.Context, evt event.OrderCancelled) {
	for i, id := range m.activeOrders {
		if id == evt.OrderID {
			m.activeOrders = append(m.activeOrders[:i], m.activeOrders[i+1:]...)
			return
		}
	}
}

func (m *MarketMaker) cancelExistingQuotes(ctx simulation.Context) {
	for _, id := range m.activeOrders {
		ctx.CancelOrder(id)
	}
	m.activeOrders = nil
}

func (m *MarketMaker) postNewQuotes(ctx simulation.Context) {
	view := ctx.OrderBook(m.cfg.Instrument)
	bestBid, okBid := view.BestBid()
	bestAsk, okAsk := view.BestAsk()
	if !okBid || !okAsk {
		return
	}

	mid := float64((bestBid + bestAsk) / 2)
	half := float64(m.cfg.HalfSpread)
	skew := float64(m.NetPosition()) * m.cfg.InventorySkewFactor

	bid := ids.Price(math.Max(1, math.Round(mid-half-skew)))
	ask := ids.Price(math.Max(1, math.Round(mid+half-skew)))

	net := m.NetPosition()
	max := int64(m.cfg.MaxPosition)

	if net < max {
		ctx.SubmitOrder(m.cfg.Instrument, m.cfg.QuoteSize, bid, book.Buy, book.Limit)
	}
	if net > -max {
		ctx.SubmitOrder(m.cfg.Instrument, m.cfg.QuoteSize, ask, book.Sell, book.Limit)
	}
}
