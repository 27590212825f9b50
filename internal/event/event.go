// Package event defines the scheduler's unit of work: nine concrete event
// types dispatched by the simulation driver. Go has no sum type, so each
// variant is its own struct implementing the one-method Event interface,
// the same "kind + payload" problem the original resolves with a
// std::variant and std::visit.
package event

import (
	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
)

// Event is any value the scheduler can carry and the driver can dispatch.
// Every variant reports the logical time it is due.
type Event interface {
	Timestamp() ids.Timestamp
}

// OrderSubmitted asks the driver to route a new order request to an engine
// on behalf of a client.
type OrderSubmitted struct {
	At      ids.Timestamp
	Request book.Request
}

func (e OrderSubmitted) Timestamp() ids.Timestamp { return e.At }

// CancellationSubmitted asks the driver to cancel a resting order.
type CancellationSubmitted struct {
	At           ids.Timestamp
	ClientID     ids.ClientID
	OrderID      ids.OrderID
	InstrumentID ids.InstrumentID
}

func (e CancellationSubmitted) Timestamp() ids.Timestamp { return e.At }

// ModificationSubmitted asks the driver to modify a resting order.
type ModificationSubmitted struct {
	At           ids.Timestamp
	ClientID     ids.ClientID
	OrderID      ids.OrderID
	InstrumentID ids.InstrumentID
	NewQuantity  ids.Quantity
	NewPrice     ids.Price
}

func (e ModificationSubmitted) Timestamp() ids.Timestamp { return e.At }

// AgentWakeup fires an agent's on_wakeup callback. Wakeups carry no
// submission latency of their own.
type AgentWakeup struct {
	At       ids.Timestamp
	ClientID ids.ClientID
}

func (e AgentWakeup) Timestamp() ids.Timestamp { return e.At }

// OrderAccepted notifies the owning agent that its order reached the book
// (always fired, even on an immediate full fill).
type OrderAccepted struct {
	At     ids.Timestamp
	Result book.MatchResult
}

func (e OrderAccepted) Timestamp() ids.Timestamp { return e.At }

// OrderRejected notifies the owning agent that its request was rejected
// before reaching the book because no engine exists for its instrument.
type OrderRejected struct {
	At           ids.Timestamp
	ClientID     ids.ClientID
	InstrumentID ids.InstrumentID
	Reason       string
}

func (e OrderRejected) Timestamp() ids.Timestamp { return e.At }

// OrderCancelled notifies the owning agent that a cancel request succeeded.
type OrderCancelled struct {
	At           ids.Timestamp
	ClientID     ids.ClientID
	OrderID      ids.OrderID
	InstrumentID ids.InstrumentID
}

func (e OrderCancelled) Timestamp() ids.Timestamp { return e.At }

// OrderModified notifies the owning agent of a modify outcome.
type OrderModified struct {
	At     ids.Timestamp
	Result book.ModifyResult
}

func (e OrderModified) Timestamp() ids.Timestamp { return e.At }

// Trade notifies the driver that a match occurred, for PnL updates and
// buyer-then-seller callback attribution.
type Trade struct {
	At    ids.Timestamp
	Trade book.Trade
}

func (e Trade) Timestamp() ids.Timestamp { return e.At }
