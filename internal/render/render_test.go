package render

import (
	"strings"
	"testing"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

func TestOrderBookRendersBothSides(t *testing.T) {
	engine := book.NewEngine(1)
	engine.ProcessOrder(book.Request{ClientID: 1, Quantity: 10, Price: 99, InstrumentID: 1, Side: book.Buy, Type: book.Limit})
	engine.ProcessOrder(book.Request{ClientID: 2, Quantity: 5, Price: 101, InstrumentID: 1, Side: book.Sell, Type: book.Limit})

	var buf strings.Builder
	OrderBook(&buf, engine, 5)
	out := buf.String()

	if !strings.Contains(out, "ORDER BOOK") {
		t.Fatalf("expected a title line, got:\n%s", out)
	}
	if !strings.Contains(out, "10 @ 99") {
		t.Fatalf("expected the bid level to be rendered, got:\n%s", out)
	}
	if !strings.Contains(out, "5 @ 101") {
		t.Fatalf("expected the ask level to be rendered, got:\n%s", out)
	}
}

func TestOrderBookHandlesEmptyBook(t *testing.T) {
	engine := book.NewEngine(1)
	var buf strings.Builder
	OrderBook(&buf, engine, 5)
	if !strings.Contains(buf.String(), "ORDER BOOK") {
		t.Fatalf("expected output even for an empty book")
	}
}

func TestPnLReportIsSortedByClientID(t *testing.T) {
	pnls := map[ids.ClientID]simulation.PnL{
		3: {LongPosition: 1, Cash: -100},
		1: {ShortPosition: 2, Cash: 200},
	}

	var buf strings.Builder
	PnL(&buf, pnls, 100)
	out := buf.String()

	idxClient1Cash := strings.Index(out, "200")
	idxClient3Cash := strings.Index(out, "-100")
	if idxClient1Cash == -1 || idxClient3Cash == -1 || idxClient1Cash > idxClient3Cash {
		t.Fatalf("expected client 1's row (cash 200) before client 3's row (cash -100), got:\n%s", out)
	}
}
