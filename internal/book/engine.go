package book

import (
	"container/list"

	"github.com/realmfikri/auctionsim/internal/ids"
)

// locator is the registry's stable entry for a resting order: which side
// and price level it lives in, plus the FIFO element itself. *list.Element
// stays valid across mutation of other levels/elements, so this can be held
// without risking the dangling-interior-pointer problem spec §9 calls out.
type locator struct {
	side  Side
	price ids.Price
	elem  *list.Element
}

// Engine is a price-time-priority matching engine for a single instrument.
// It owns its order book and mints strictly increasing order and trade ids.
type Engine struct {
	instrument ids.InstrumentID
	bids       *side // descending
	asks       *side // ascending
	registry   map[ids.OrderID]locator
	orderSeq   ids.OrderID
	tradeSeq   ids.TradeID
}

// NewEngine builds a matching engine for the given instrument with an empty
// book.
func NewEngine(instrument ids.InstrumentID) *Engine {
	return &Engine{
		instrument: instrument,
		bids:       newSide(descending),
		asks:       newSide(ascending),
		registry:   make(map[ids.OrderID]locator),
	}
}

func (e *Engine) Instrument() ids.InstrumentID { return e.instrument }

func (e *Engine) nextOrderID() ids.OrderID {
	e.orderSeq++
	return e.orderSeq
}

func (e *Engine) nextTradeID() ids.TradeID {
	e.tradeSeq++
	return e.tradeSeq
}

// resting side for an incoming order: buys rest on bids, sells on asks.
func (e *Engine) restingSide(s Side) *side {
	if s == Buy {
		return e.bids
	}
	return e.asks
}

// opposing side an incoming order matches against: buys match asks, sells match bids.
func (e *Engine) opposingSide(s Side) *side {
	if s == Buy {
		return e.asks
	}
	return e.bids
}

// ProcessOrder accepts a LIMIT or MARKET order, matches it under
// price-time priority with self-trade prevention, and for LIMIT enqueues
// any unmatched remainder. See spec §4.1 for the exact algorithm.
func (e *Engine) ProcessOrder(req Request) MatchResult {
	incomingID := e.nextOrderID()
	opposing := e.opposingSide(req.Side)

	remaining := req.Quantity
	var trades []Trade
	var acceptedPrice ids.Price

	for remaining > 0 && !opposing.empty() {
		bestPrice, _ := opposing.bestPrice()

		if req.Type == Limit && !priceCrosses(req.Side, req.Price, bestPrice) {
			break
		}

		queue := opposing.queueAt(bestPrice)
		progressed := false

		elem := queue.Front()
		for elem != nil && remaining > 0 {
			resting := elem.Value.(*Order)
			next := elem.Next()

			if resting.ClientID == req.ClientID {
				elem = next
				continue
			}

			progressed = true
			tradeQty := minQty(remaining, resting.Quantity)
			remaining -= tradeQty
			resting.Quantity -= tradeQty

			trades = append(trades, e.buildTrade(req, incomingID, resting, bestPrice, tradeQty))

			if resting.Quantity == 0 {
				resting.Status = Filled
				delete(e.registry, resting.OrderID)
				toRemove := elem
				elem = next
				queue.Remove(toRemove)
			} else {
				elem = next
			}
		}

		if !progressed {
			break
		}
		opposing.removeLevelIfEmpty(bestPrice)
		acceptedPrice = bestPrice
	}

	status := e.finalize(req, incomingID, remaining)
	if acceptedPrice == 0 {
		acceptedPrice = req.Price
	}

	return MatchResult{
		OrderID:           incomingID,
		RemainingQuantity: remaining,
		AcceptedPrice:      acceptedPrice,
		Status:             status,
		InstrumentID:       e.instrument,
		Trades:             trades,
	}
}

func priceCrosses(side Side, orderPrice, bestOpposing ids.Price) bool {
	if side == Buy {
		return orderPrice >= bestOpposing
	}
	return orderPrice <= bestOpposing
}

func minQty(a, b ids.Quantity) ids.Quantity {
	if a < b {
		return a
	}
	return b
}

func (e *Engine) buildTrade(req Request, incomingID ids.OrderID, resting *Order, price ids.Price, qty ids.Quantity) Trade {
	t := Trade{
		TradeID:      e.nextTradeID(),
		Quantity:     qty,
		Price:        price,
		InstrumentID: e.instrument,
	}
	if req.Side == Buy {
		t.BuyerID = req.ClientID
		t.SellerID = resting.ClientID
		t.BuyerOrderID = incomingID
		t.SellerOrderID = resting.OrderID
	} else {
		t.BuyerID = resting.ClientID
		t.SellerID = req.ClientID
		t.BuyerOrderID = resting.OrderID
		t.SellerOrderID = incomingID
	}
	return t
}

// finalize determines the final status of the incoming order and, for
// LIMIT orders with a remainder, enqueues it at the back of its side's FIFO.
func (e *Engine) finalize(req Request, incomingID ids.OrderID, remaining ids.Quantity) Status {
	if remaining == 0 {
		return Filled
	}

	if req.Type == Market {
		if remaining != req.Quantity {
			return PartiallyFilled
		}
		return Cancelled
	}

	status := New
	if remaining < req.Quantity {
		status = PartiallyFilled
	}

	order := &Order{
		OrderID:      incomingID,
		ClientID:     req.ClientID,
		Quantity:     remaining,
		Price:        req.Price,
		InstrumentID: e.instrument,
		Side:         req.Side,
		Type:         req.Type,
		Status:       status,
	}

	resting := e.restingSide(req.Side)
	elem := resting.enqueue(order)
	e.registry[incomingID] = locator{side: req.Side, price: req.Price, elem: elem}

	return status
}

// CancelOrder removes a resting order if it exists and client_id matches
// the order's owner.
func (e *Engine) CancelOrder(client ids.ClientID, orderID ids.OrderID) bool {
	loc, ok := e.registry[orderID]
	if !ok {
		return false
	}

	order := loc.elem.Value.(*Order)
	if order.ClientID != client {
		return false
	}

	s := e.restingSide(loc.side)
	q := s.queueAt(loc.price)
	q.Remove(loc.elem)
	delete(e.registry, orderID)
	s.removeLevelIfEmpty(loc.price)
	return true
}

// GetOrder is a snapshot read via the registry.
func (e *Engine) GetOrder(orderID ids.OrderID) (Order, bool) {
	loc, ok := e.registry[orderID]
	if !ok {
		return Order{}, false
	}
	return *loc.elem.Value.(*Order), true
}

// ModifyOrder implements the three-branch modify contract of spec §4.1.
func (e *Engine) ModifyOrder(client ids.ClientID, orderID ids.OrderID, newQty ids.Quantity, newPrice ids.Price) ModifyResult {
	loc, ok := e.registry[orderID]
	if !ok {
		return ModifyResult{ClientID: client, OldOrderID: orderID, Status: Invalid, InstrumentID: e.instrument}
	}

	order := loc.elem.Value.(*Order)
	if order.ClientID != client {
		return ModifyResult{ClientID: client, OldOrderID: orderID, Status: Invalid, InstrumentID: e.instrument}
	}

	if newPrice == order.Price && newQty == order.Quantity {
		return ModifyResult{
			ClientID: client, OldOrderID: orderID, NewOrderID: orderID,
			NewQuantity: newQty, NewPrice: newPrice, Status: Accepted, InstrumentID: e.instrument,
		}
	}

	if newPrice == order.Price && newQty < order.Quantity {
		order.Quantity = newQty
		order.Status = Modified
		return ModifyResult{
			ClientID: client, OldOrderID: orderID, NewOrderID: orderID,
			NewQuantity: newQty, NewPrice: newPrice, Status: Accepted, InstrumentID: e.instrument,
		}
	}

	side := order.Side
	if !e.CancelOrder(client, orderID) {
		return ModifyResult{ClientID: client, OldOrderID: orderID, Status: Invalid, InstrumentID: e.instrument}
	}

	result := e.ProcessOrder(Request{
		ClientID:     client,
		Quantity:     newQty,
		Price:        newPrice,
		InstrumentID: e.instrument,
		Side:         side,
		Type:         Limit,
	})

	return ModifyResult{
		ClientID: client, OldOrderID: orderID, NewOrderID: result.OrderID,
		NewQuantity: newQty, NewPrice: newPrice, Status: Accepted,
		InstrumentID: e.instrument, MatchResult: &result,
	}
}

// Snapshot returns aggregated (price, quantity) pairs in price-priority
// order for the given side.
func (e *Engine) Snapshot(s Side) []PriceLevel {
	if s == Buy {
		return e.bids.snapshot()
	}
	return e.asks.snapshot()
}

// BestPrice returns the best resting price on the given side, if any.
func (e *Engine) BestPrice(s Side) (ids.Price, bool) {
	if s == Buy {
		return e.bids.bestPrice()
	}
	return e.asks.bestPrice()
}

// Reset clears the book, registry, and id counters, matching the original's
// MatchingEngine::reset().
func (e *Engine) Reset() {
	e.bids.reset()
	e.asks.reset()
	e.registry = make(map[ids.OrderID]locator)
	e.orderSeq = 0
	e.tradeSeq = 0
}
