// Package book implements a price-time-priority limit order book and the
// matching engine that sits on top of it, one engine per instrument.
package book

import "github.com/realmfikri/auctionsim/internal/ids"

// Side is the direction of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Type is the execution style of an order.
type Type uint8

const (
	Limit Type = iota
	Market
)

func (t Type) String() string {
	if t == Limit {
		return "LIMIT"
	}
	return "MARKET"
}

// Status is the lifecycle state of an order after it has passed through the
// engine at least once.
type Status uint8

const (
	Pending Status = iota
	New
	Rejected
	PartiallyFilled
	Filled
	Cancelled
	Modified
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case New:
		return "NEW"
	case Rejected:
		return "REJECTED"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case Filled:
		return "FILLED"
	case Cancelled:
		return "CANCELLED"
	case Modified:
		return "MODIFIED"
	default:
		return "UNKNOWN"
	}
}

// ModifyStatus is the outcome of a modify_order call.
type ModifyStatus uint8

const (
	Accepted ModifyStatus = iota
	Invalid
)

func (s ModifyStatus) String() string {
	if s == Accepted {
		return "ACCEPTED"
	}
	return "INVALID"
}

// Order is a resting or just-finalized order as tracked by the engine.
// Mutated only by the engine: quantity decreases on fill, status changes on
// modify/fill/cancel.
type Order struct {
	OrderID      ids.OrderID
	ClientID     ids.ClientID
	Quantity     ids.Quantity
	Price        ids.Price
	Timestamp    ids.Timestamp
	InstrumentID ids.InstrumentID
	Side         Side
	Type         Type
	Status       Status
}

// Request is transport-level input to the engine.
type Request struct {
	ClientID     ids.ClientID
	Quantity     ids.Quantity
	Price        ids.Price
	InstrumentID ids.InstrumentID
	Side         Side
	Type         Type
}

// Trade is a single match between an aggressor and a resting order.
type Trade struct {
	TradeID        ids.TradeID
	BuyerOrderID   ids.OrderID
	SellerOrderID  ids.OrderID
	BuyerID        ids.ClientID
	SellerID       ids.ClientID
	Quantity       ids.Quantity
	Price          ids.Price
	Timestamp      ids.Timestamp
	InstrumentID   ids.InstrumentID
}

// MatchResult is returned by ProcessOrder.
type MatchResult struct {
	OrderID           ids.OrderID
	Timestamp         ids.Timestamp
	RemainingQuantity ids.Quantity
	AcceptedPrice     ids.Price
	Status            Status
	InstrumentID      ids.InstrumentID
	Trades            []Trade
}

// ModifyResult is returned by ModifyOrder.
type ModifyResult struct {
	ClientID     ids.ClientID
	OldOrderID   ids.OrderID
	NewOrderID   ids.OrderID
	NewQuantity  ids.Quantity
	NewPrice     ids.Price
	Status       ModifyStatus
	InstrumentID ids.InstrumentID
	MatchResult  *MatchResult
}

// PriceLevel is an aggregated view of one price's resting quantity, used by
// Engine.Snapshot.
type PriceLevel struct {
	Price    ids.Price
	Quantity ids.Quantity
}
