package simulation

import (
	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
)

// Collector is the single sink boundary between the driver and any
// persistence layer. The driver never touches CSV/JSON directly; it emits
// domain events here, mirroring the original's DataCollector mediating
// between the engine/driver and its CSVWriter.
type Collector interface {
	OnOrderAccepted(at ids.Timestamp, clientID ids.ClientID, instrument ids.InstrumentID, order book.Order)
	OnTrade(at ids.Timestamp, instrument ids.InstrumentID, trade book.Trade, fairPrice ids.Price, aggressor book.Side)
	OnFill(at ids.Timestamp, trade book.Trade, filledOrderID ids.OrderID, clientID ids.ClientID, remaining ids.Quantity, side book.Side)
	OnOrderCancelled(at ids.Timestamp, clientID ids.ClientID, order book.Order, remaining ids.Quantity)
	OnOrderModified(at ids.Timestamp, result book.ModifyResult, instrument ids.InstrumentID, side book.Side, oldPrice ids.Price, oldQuantity ids.Quantity)
	MaybeSnapshotPnL(now ids.Timestamp, pnls map[ids.ClientID]PnL, fairPrice ids.Price)
	MaybeSnapshotMarketState(now ids.Timestamp, instrument ids.InstrumentID, fairPrice, bestBid, bestAsk ids.Price)
	Finalize(duration ids.Timestamp) error
}

// NoopCollector discards everything. It is the default when persistence is
// disabled, keeping the core decoupled from any I/O concern.
type NoopCollector struct{}

func (NoopCollector) OnOrderAccepted(ids.Timestamp, ids.ClientID, ids.InstrumentID, book.Order) {}
func (NoopCollector) OnTrade(ids.Timestamp, ids.InstrumentID, book.Trade, ids.Price, book.Side)  {}
func (NoopCollector) OnFill(ids.Timestamp, book.Trade, ids.OrderID, ids.ClientID, ids.Quantity, book.Side) {
}
func (NoopCollector) OnOrderCancelled(ids.Timestamp, ids.ClientID, book.Order, ids.Quantity) {}
func (NoopCollector) OnOrderModified(ids.Timestamp, book.ModifyResult, ids.InstrumentID, book.Side, ids.Price, ids.Quantity) {
}
func (NoopCollector) MaybeSnapshotPnL(ids.Timestamp, map[ids.ClientID]PnL, ids.Price)                 {}
func (NoopCollector) MaybeSnapshotMarketState(ids.Timestamp, ids.InstrumentID, ids.Price, ids.Price, ids.Price) {
}
func (NoopCollector) Finalize(ids.Timestamp) error { return nil }
