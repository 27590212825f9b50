package simulation

import (
	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/event"
	"github.com/realmfikri/auctionsim/internal/ids"
)

// Context is the capability set the driver exposes to agents during a
// callback: submit/cancel/modify actions, a wakeup scheduler, and
// read-only market observation. There is no inheritance here, only an
// interface the driver satisfies and passes itself as.
type Context interface {
	SubmitOrder(instrument ids.InstrumentID, qty ids.Quantity, price ids.Price, side book.Side, typ book.Type)
	CancelOrder(orderID ids.OrderID)
	ModifyOrder(orderID ids.OrderID, newQty ids.Quantity, newPrice ids.Price)
	ScheduleWakeup(at ids.Timestamp)
	OrderBook(instrument ids.InstrumentID) BookView
	FairPrice() ids.Price
	Now() ids.Timestamp
}

// BookView is a read-only snapshot handed to agents via Context.OrderBook.
// It is only valid for the duration of the callback that received it.
type BookView struct {
	Bids []book.PriceLevel
	Asks []book.PriceLevel
}

// BestBid returns the best bid price, if any.
func (v BookView) BestBid() (ids.Price, bool) {
	if len(v.Bids) == 0 {
		return 0, false
	}
	return v.Bids[0].Price, true
}

// BestAsk returns the best ask price, if any.
func (v BookView) BestAsk() (ids.Price, bool) {
	if len(v.Asks) == 0 {
		return 0, false
	}
	return v.Asks[0].Price, true
}

// Agent is a trading participant. Concrete strategies embed BaseAgent to
// get no-op defaults for the callbacks they don't care about, the same
// "small struct with tunable fields plus a rand.Rand" shape the teacher's
// bots use, adapted from goroutine-ticker loops to driver-invoked callbacks.
type Agent interface {
	ID() ids.ClientID
	OnWakeup(ctx Context)
	OnTrade(ctx Context, trade event.Trade)
	OnOrderAccepted(ctx Context, evt event.OrderAccepted)
	OnOrderRejected(ctx Context, evt event.OrderRejected)
	OnOrderCancelled(ctx Context, evt event.OrderCancelled)
	OnOrderModified(ctx Context, evt event.OrderModified)
}

// BaseAgent supplies no-op implementations of every callback except
// OnWakeup, which every concrete strategy must still provide itself.
type BaseAgent struct {
	clientID ids.ClientID
}

// NewBaseAgent returns a BaseAgent identified by id, meant to be embedded
// by a concrete strategy.
func NewBaseAgent(id ids.ClientID) BaseAgent { return BaseAgent{clientID: id} }

func (a BaseAgent) ID() ids.ClientID { return a.clientID }

func (BaseAgent) OnTrade(Context, event.Trade)              {}
func (BaseAgent) OnOrderAccepted(Context, event.OrderAccepted)  {}
func (BaseAgent) OnOrderRejected(Context, event.OrderRejected)  {}
func (BaseAgent) OnOrderCancelled(Context, event.OrderCancelled) {}
func (BaseAgent) OnOrderModified(Context, event.OrderModified)  {}
