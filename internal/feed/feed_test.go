package feed

import (
	"testing"
	"time"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

func TestHubBroadcastDeliversToAllSubscribers(t *testing.T) {
	h := newHub[int]()
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Broadcast(42)

	select {
	case v := <-a.ch:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber a")
	}
	select {
	case v := <-b.ch:
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for subscriber b")
	}
}

func TestHubBroadcastDropsWhenBufferIsFull(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	defer h.Unsubscribe(sub)

	h.Broadcast(1)
	h.Broadcast(2) // buffer already full, must not block

	if v := <-sub.ch; v != 1 {
		t.Fatalf("expected the first buffered value 1, got %d", v)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := newHub[int]()
	sub := h.Subscribe(1)
	h.Unsubscribe(sub)

	if _, ok := <-sub.ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

type recordingCollector struct {
	trades []book.Trade
}

func (r *recordingCollector) OnOrderAccepted(ids.Timestamp, ids.ClientID, ids.InstrumentID, book.Order) {}
func (r *recordingCollector) OnTrade(at ids.Timestamp, instrument ids.InstrumentID, trade book.Trade, fairPrice ids.Price, aggressor book.Side) {
	r.trades = append(r.trades, trade)
}
func (r *recordingCollector) OnFill(ids.Timestamp, book.Trade, ids.OrderID, ids.ClientID, ids.Quantity, book.Side) {
}
func (r *recordingCollector) OnOrderCancelled(ids.Timestamp, ids.ClientID, book.Order, ids.Quantity) {}
func (r *recordingCollector) OnOrderModified(ids.Timestamp, book.ModifyResult, ids.InstrumentID, book.Side, ids.Price, ids.Quantity) {
}
func (r *recordingCollector) MaybeSnapshotPnL(ids.Timestamp, map[ids.ClientID]simulation.PnL, ids.Price) {
}
func (r *recordingCollector) MaybeSnapshotMarketState(ids.Timestamp, ids.InstrumentID, ids.Price, ids.Price, ids.Price) {
}
func (r *recordingCollector) Finalize(ids.Timestamp) error { return nil }

func TestBroadcastingCollectorForwardsAndPublishesTrades(t *testing.T) {
	next := &recordingCollector{}
	f := New()
	c := BroadcastingCollector{Next: next, Feed: f}

	sub := f.trades.Subscribe(4)
	defer f.trades.Unsubscribe(sub)

	tr := book.Trade{TradeID: 1, BuyerID: 1, SellerID: 2, Price: 100, Quantity: 5}
	c.OnTrade(10, 1, tr, 101, book.Buy)

	if len(next.trades) != 1 || next.trades[0].TradeID != 1 {
		t.Fatalf("expected the underlying collector to receive the trade, got %v", next.trades)
	}

	select {
	case msg := <-sub.ch:
		if msg.TradeID != 1 || msg.Price != 100 {
			t.Fatalf("unexpected broadcast message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the broadcast trade message")
	}
}
