// Package render formats a running simulation's order book and PnL ledger
// for a terminal, the Go shape of the original's print_order_book and
// print_pnl debug dumps.
package render

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

// OrderBook writes a two-column bid/ask depth table to w, showing up to
// depth price levels per side, best price first.
func OrderBook(w io.Writer, engine *book.Engine, depth int) {
	bids := engine.Snapshot(book.Buy)
	asks := engine.Snapshot(book.Sell)

	fmt.Fprintln(w, "=============== ORDER BOOK ===============")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "BID (Qty @ Price)\tASK (Qty @ Price)")
	fmt.Fprintln(tw, "---\t---")

	for i := 0; i < depth; i++ {
		var bidStr, askStr string
		if i < len(bids) {
			bidStr = fmt.Sprintf("%d @ %d", bids[i].Quantity, bids[i].Price)
		}
		if i < len(asks) {
			askStr = fmt.Sprintf("%d @ %d", asks[i].Quantity, asks[i].Price)
		}
		if bidStr == "" && askStr == "" {
			break
		}
		fmt.Fprintf(tw, "%s\t%s\n", bidStr, askStr)
	}
	tw.Flush()
}

// PnL writes a per-client P&L report to w, sorted by client id for
// deterministic output.
func PnL(w io.Writer, pnls map[ids.ClientID]simulation.PnL, markPrice ids.Price) {
	clients := make([]ids.ClientID, 0, len(pnls))
	for id := range pnls {
		clients = append(clients, id)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i] < clients[j] })

	fmt.Fprintln(w, "=============== P&L REPORT ================")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Client\tPosition\tCash\tTotal P&L")
	fmt.Fprintln(tw, "---\t---\t---\t---")
	for _, id := range clients {
		p := pnls[id]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", id, p.NetPosition(), p.Cash, p.TotalPnL(markPrice))
	}
	tw.Flush()
}
