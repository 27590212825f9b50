// Package persist writes every event the simulation driver emits to a set
// of CSV files plus a metadata.json summary, the Go shape of the original's
// CSVWriter/DataCollector/MetadataWriter trio. CSVCollector is the concrete
// simulation.Collector used whenever a run is asked to persist output;
// simulation.NoopCollector remains the default when it isn't.
package persist

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// deltaType mirrors the original's DeltaType enum.
type deltaType string

const (
	deltaAdd    deltaType = "ADD"
	deltaFill   deltaType = "FILL"
	deltaCancel deltaType = "CANCEL"
	deltaModify deltaType = "MODIFY"
)

// CSVCollector persists deltas, trades, PnL snapshots and market state
// snapshots to four CSV files under outputDir, plus a metadata.json written
// on Finalize. It satisfies simulation.Collector.
type CSVCollector struct {
	mu sync.Mutex

	outputDir string
	logger    *zap.Logger

	deltasFile *os.File
	tradesFile *os.File
	pnlFile    *os.File
	marketFile *os.File

	deltas *csv.Writer
	trades *csv.Writer
	pnl    *csv.Writer
	market *csv.Writer

	sequence ids.SequenceNumber

	pnlSnapshotInterval ids.Timestamp
	lastPnLSnapshot     ids.Timestamp

	metadata Metadata
}

// NewCSVCollector creates outputDir if needed, opens the four CSV files,
// and writes their headers. logger may be nil, in which case a no-op
// logger is used.
func NewCSVCollector(outputDir string, pnlSnapshotInterval ids.Timestamp, logger *zap.Logger) (*CSVCollector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("persist: create output dir %s: %w", outputDir, err)
	}

	c := &CSVCollector{
		outputDir:           outputDir,
		logger:              logger,
		pnlSnapshotInterval: pnlSnapshotInterval,
	}

	var err error
	if c.deltasFile, c.deltas, err = openCSV(outputDir, "deltas.csv",
		[]string{"timestamp", "sequence_num", "delta_type", "order_id", "client_id", "instrument_id",
			"side", "price", "quantity", "remaining_qty", "trade_id", "new_order_id", "new_price", "new_quantity"}); err != nil {
		return nil, err
	}
	if c.tradesFile, c.trades, err = openCSV(outputDir, "trades.csv",
		[]string{"timestamp", "trade_id", "instrument_id", "buyer_id", "seller_id",
			"buyer_order_id", "seller_order_id", "price", "quantity", "aggressor_side", "fair_price"}); err != nil {
		return nil, err
	}
	if c.pnlFile, c.pnl, err = openCSV(outputDir, "pnl.csv",
		[]string{"timestamp", "client_id", "long_position", "short_position", "cash", "fair_price"}); err != nil {
		return nil, err
	}
	if c.marketFile, c.market, err = openCSV(outputDir, "market_state.csv",
		[]string{"timestamp", "fair_price", "best_bid", "best_ask"}); err != nil {
		return nil, err
	}

	return c, nil
}

func openCSV(dir, name string, header []string) (*os.File, *csv.Writer, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, nil, fmt.Errorf("persist: open %s: %w", name, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("persist: write %s header: %w", name, err)
	}
	return f, w, nil
}

func (c *CSVCollector) nextSequence() ids.SequenceNumber {
	c.sequence++
	return c.sequence
}

// OnOrderAccepted records an ADD delta for a newly resting order.
func (c *CSVCollector) OnOrderAccepted(at ids.Timestamp, clientID ids.ClientID, instrument ids.InstrumentID, order book.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeltaRow(at, deltaAdd, order.OrderID, clientID, instrument, order.Side,
		order.Price, order.Quantity, order.Quantity, 0, 0, 0, 0)
}

// OnTrade records a row in trades.csv.
func (c *CSVCollector) OnTrade(at ids.Timestamp, instrument ids.InstrumentID, trade book.Trade, fairPrice ids.Price, aggressor book.Side) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkErr(c.trades.Write([]string{
		at.String(), trade.TradeID.String(), instrument.String(),
		trade.BuyerID.String(), trade.SellerID.String(),
		trade.BuyerOrderID.String(), trade.SellerOrderID.String(),
		trade.Price.String(), trade.Quantity.String(), aggressor.String(), fairPrice.String(),
	}), "write trade")
}

// OnFill records a FILL delta for one side of a trade.
func (c *CSVCollector) OnFill(at ids.Timestamp, trade book.Trade, filledOrderID ids.OrderID, clientID ids.ClientID, remaining ids.Quantity, side book.Side) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeltaRow(at, deltaFill, filledOrderID, clientID, trade.InstrumentID, side,
		trade.Price, trade.Quantity, remaining, trade.TradeID, 0, 0, 0)
}

// OnOrderCancelled records a CANCEL delta.
func (c *CSVCollector) OnOrderCancelled(at ids.Timestamp, clientID ids.ClientID, order book.Order, remaining ids.Quantity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeltaRow(at, deltaCancel, order.OrderID, clientID, order.InstrumentID, order.Side,
		order.Price, order.Quantity, remaining, 0, 0, 0, 0)
}

// OnOrderModified records a MODIFY delta carrying both the old and new
// order identity, matching the original's OrderModified event fields.
func (c *CSVCollector) OnOrderModified(at ids.Timestamp, result book.ModifyResult, instrument ids.InstrumentID, side book.Side, oldPrice ids.Price, oldQuantity ids.Quantity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeltaRow(at, deltaModify, result.OldOrderID, result.ClientID, instrument, side,
		oldPrice, oldQuantity, result.NewQuantity, 0, result.NewOrderID, result.NewPrice, result.NewQuantity)
}

func (c *CSVCollector) writeDeltaRow(at ids.Timestamp, typ deltaType, orderID ids.OrderID, clientID ids.ClientID,
	instrument ids.InstrumentID, side book.Side, price ids.Price, quantity, remaining ids.Quantity, tradeID ids.TradeID,
	newOrderID ids.OrderID, newPrice ids.Price, newQuantity ids.Quantity) {
	c.checkErr(c.deltas.Write([]string{
		at.String(), c.nextSequence().String(), string(typ), orderID.String(), clientID.String(), instrument.String(),
		side.String(), price.String(), quantity.String(), remaining.String(),
		tradeID.String(), newOrderID.String(), newPrice.String(), newQuantity.String(),
	}), "write delta")
}

// MaybeSnapshotPnL writes one pnl.csv row per client if at least
// pnlSnapshotInterval ticks have elapsed since the last snapshot.
func (c *CSVCollector) MaybeSnapshotPnL(now ids.Timestamp, pnls map[ids.ClientID]simulation.PnL, fairPrice ids.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if now < c.lastPnLSnapshot+c.pnlSnapshotInterval {
		return
	}
	c.lastPnLSnapshot = now
	for client, pnl := range pnls {
		c.checkErr(c.pnl.Write([]string{
			now.String(), client.String(), pnl.LongPosition.String(), pnl.ShortPosition.String(),
			pnl.Cash.String(), fairPrice.String(),
		}), "write pnl snapshot")
	}
}

// MaybeSnapshotMarketState writes one market_state.csv row. Unlike PnL, the
// original has no gating interval for this snapshot; callers decide how
// often to call it.
func (c *CSVCollector) MaybeSnapshotMarketState(now ids.Timestamp, instrument ids.InstrumentID, fairPrice, bestBid, bestAsk ids.Price) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkErr(c.market.Write([]string{
		now.String(), fairPrice.String(), bestBid.String(), bestAsk.String(),
	}), "write market state")
}

// Finalize writes metadata.json and flushes every CSV writer.
func (c *CSVCollector) Finalize(duration ids.Timestamp) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.metadata.SetDuration(duration)
	if err := c.metadata.Write(c.outputDir); err != nil {
		return err
	}

	c.deltas.Flush()
	c.trades.Flush()
	c.pnl.Flush()
	c.market.Flush()

	for _, f := range []*os.File{c.deltasFile, c.tradesFile, c.pnlFile, c.marketFile} {
		if err := f.Close(); err != nil {
			return fmt.Errorf("persist: close %s: %w", f.Name(), err)
		}
	}
	return nil
}

func (c *CSVCollector) checkErr(err error, what string) {
	if err != nil {
		c.logger.Error("persist: "+what+" failed", zap.Error(err))
	}
}

// MetadataBuilder exposes the run's metadata builder so setup code can
// record instruments, the fair price config and the agent roster before the
// simulation starts; Finalize stamps the run duration and writes it out.
func (c *CSVCollector) MetadataBuilder() *Metadata { return &c.metadata }
