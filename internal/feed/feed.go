// Package feed exposes a simulation run's live trades, top-of-book, and PnL
// snapshots over websocket, adapted from the teacher's generic hub[T]
// broadcaster and HTTP handlers (server/hub.go, server/server.go). It is
// wired in as a simulation.Collector decorator: BroadcastingCollector
// forwards every call to an underlying Collector (persist.CSVCollector or
// simulation.NoopCollector) and additionally fans the event out to whatever
// websocket subscribers are currently connected.
package feed

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// subscription is one consumer's buffered channel onto a hub.
type subscription[T any] struct {
	ch chan T
}

// hub fans a value out to every current subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the broadcaster.
// Feed owns one hub per message type (TradeMessage, BookMessage, PnLMessage).
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[*subscription[T]]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*subscription[T]]struct{})}
}

func (h *hub[T]) Subscribe(buffer int) *subscription[T] {
	sub := &subscription[T]{ch: make(chan T, buffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *hub[T]) Unsubscribe(sub *subscription[T]) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
	close(sub.ch)
}

func (h *hub[T]) Broadcast(value T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

// TradeMessage is the public shape of a trade broadcast on /ws/trades.
type TradeMessage struct {
	Timestamp    ids.Timestamp    `json:"timestamp"`
	Instrument   ids.InstrumentID `json:"instrument"`
	TradeID      ids.TradeID      `json:"trade_id"`
	Price        ids.Price        `json:"price"`
	Quantity     ids.Quantity     `json:"quantity"`
	BuyerID      ids.ClientID     `json:"buyer_id"`
	SellerID     ids.ClientID     `json:"seller_id"`
	Aggressor    string           `json:"aggressor_side"`
	FairPrice    ids.Price        `json:"fair_price"`
}

// BookMessage is the public shape of a top-of-book update on /ws/book.
type BookMessage struct {
	Timestamp  ids.Timestamp    `json:"timestamp"`
	Instrument ids.InstrumentID `json:"instrument"`
	FairPrice  ids.Price        `json:"fair_price"`
	BestBid    ids.Price        `json:"best_bid"`
	BestAsk    ids.Price        `json:"best_ask"`
}

// PnLMessage is the public shape of one client's PnL snapshot on /ws/pnl.
type PnLMessage struct {
	Timestamp     ids.Timestamp `json:"timestamp"`
	ClientID      ids.ClientID  `json:"client_id"`
	LongPosition  ids.Quantity  `json:"long_position"`
	ShortPosition ids.Quantity  `json:"short_position"`
	Cash          ids.Cash      `json:"cash"`
	FairPrice     ids.Price     `json:"fair_price"`
}

type outboundMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Feed holds the three broadcast hubs and the websocket upgrader. Every
// hub's zero value is unusable; always construct via New.
type Feed struct {
	trades   *hub[TradeMessage]
	book     *hub[BookMessage]
	pnl      *hub[PnLMessage]
	upgrader websocket.Upgrader
}

// New builds a Feed accepting connections from any origin, matching the
// teacher's permissive CheckOrigin (appropriate for a local simulation
// observation tool, not a public-facing service).
func New() *Feed {
	return &Feed{
		trades:   newHub[TradeMessage](),
		book:     newHub[BookMessage](),
		pnl:      newHub[PnLMessage](),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Routes registers the three streaming endpoints on mux.
func (f *Feed) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/trades", handleStream(&f.upgrader, f.trades))
	mux.HandleFunc("/ws/book", handleStream(&f.upgrader, f.book))
	mux.HandleFunc("/ws/pnl", handleStream(&f.upgrader, f.pnl))
}

// handleStream is a free function rather than a method because Go methods
// cannot carry their own type parameters; T is inferred from h.
func handleStream[T any](upgrader *websocket.Upgrader, h *hub[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := h.Subscribe(32)
		defer h.Unsubscribe(sub)

		for msg := range sub.ch {
			if err := conn.WriteJSON(outboundMessage{Type: messageType(msg), Data: msg}); err != nil {
				return
			}
		}
	}
}

func messageType(v any) string {
	switch v.(type) {
	case TradeMessage:
		return "trade"
	case BookMessage:
		return "book"
	case PnLMessage:
		return "pnl"
	default:
		return "unknown"
	}
}

// BroadcastingCollector wraps a simulation.Collector, forwarding every call
// unchanged and additionally publishing trades, market state, and PnL
// snapshots to the Feed's websocket subscribers.
type BroadcastingCollector struct {
	Next simulation.Collector
	Feed *Feed
}

func (c BroadcastingCollector) OnOrderAccepted(at ids.Timestamp, clientID ids.ClientID, instrument ids.InstrumentID, order book.Order) {
	c.Next.OnOrderAccepted(at, clientID, instrument, order)
}

func (c BroadcastingCollector) OnTrade(at ids.Timestamp, instrument ids.InstrumentID, trade book.Trade, fairPrice ids.Price, aggressor book.Side) {
	c.Next.OnTrade(at, instrument, trade, fairPrice, aggressor)
	c.Feed.trades.Broadcast(TradeMessage{
		Timestamp: at, Instrument: instrument, TradeID: trade.TradeID,
		Price: trade.Price, Quantity: trade.Quantity,
		BuyerID: trade.BuyerID, SellerID: trade.SellerID,
		Aggressor: aggressor.String(), FairPrice: fairPrice,
	})
}

func (c BroadcastingCollector) OnFill(at ids.Timestamp, trade book.Trade, filledOrderID ids.OrderID, clientID ids.ClientID, remaining ids.Quantity, side book.Side) {
	c.Next.OnFill(at, trade, filledOrderID, clientID, remaining, side)
}

func (c BroadcastingCollector) OnOrderCancelled(at ids.Timestamp, clientID ids.ClientID, order book.Order, remaining ids.Quantity) {
	c.Next.OnOrderCancelled(at, clientID, order, remaining)
}

func (c BroadcastingCollector) OnOrderModified(at ids.Timestamp, result book.ModifyResult, instrument ids.InstrumentID, side book.Side, oldPrice ids.Price, oldQuantity ids.Quantity) {
	c.Next.OnOrderModified(at, result, instrument, side, oldPrice, oldQuantity)
}

func (c BroadcastingCollector) MaybeSnapshotPnL(now ids.Timestamp, pnls map[ids.ClientID]simulation.PnL, fairPrice ids.Price) {
	c.Next.MaybeSnapshotPnL(now, pnls, fairPrice)
	for client, pnl := range pnls {
		c.Feed.pnl.Broadcast(PnLMessage{
			Timestamp: now, ClientID: client, LongPosition: pnl.LongPosition,
			ShortPosition: pnl.ShortPosition, Cash: pnl.Cash, FairPrice: fairPrice,
		})
	}
}

func (c BroadcastingCollector) MaybeSnapshotMarketState(now ids.Timestamp, instrument ids.InstrumentID, fairPrice, bestBid, bestAsk ids.Price) {
	c.Next.MaybeSnapshotMarketState(now, instrument, fairPrice, bestBid, bestAsk)
	c.Feed.book.Broadcast(BookMessage{
		Timestamp: now, Instrument: instrument, FairPrice: fairPrice, BestBid: bestBid, BestAsk: bestAsk,
	})
}

func (c BroadcastingCollector) Finalize(duration ids.Timestamp) error {
	return c.Next.Finalize(duration)
}
