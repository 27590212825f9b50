package persist

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return rows
}

func TestCSVCollectorWritesHeadersOnCreation(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCSVCollector(dir, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Finalize(1000); err != nil {
		t.Fatalf("unexpected error finalizing: %v", err)
	}

	for name, header := range map[string][]string{
		"deltas.csv":       {"timestamp", "sequence_num", "delta_type"},
		"trades.csv":       {"timestamp", "trade_id", "instrument_id"},
		"pnl.csv":          {"timestamp", "client_id", "long_position"},
		"market_state.csv": {"timestamp", "fair_price", "best_bid"},
	} {
		rows := readRows(t, filepath.Join(dir, name))
		if len(rows) == 0 {
			t.Fatalf("%s: expected at least a header row", name)
		}
		for i, want := range header {
			if rows[0][i] != want {
				t.Fatalf("%s header[%d] = %q, want %q", name, i, rows[0][i], want)
			}
		}
	}
}

func TestOnOrderAcceptedWritesAddDelta(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCSVCollector(dir, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c.OnOrderAccepted(5, 1, 1, book.Order{OrderID: 10, Price: 100, Quantity: 20, Side: book.Buy})
	if err := c.Finalize(100); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	rows := readRows(t, filepath.Join(dir, "deltas.csv"))
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d rows", len(rows))
	}
	row := rows[1]
	if row[2] != "ADD" || row[3] != "10" || row[6] != "BUY" || row[7] != "100" {
		t.Fatalf("unexpected delta row: %v", row)
	}
}

func TestMaybeSnapshotPnLRespectsInterval(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCSVCollector(dir, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pnls := map[ids.ClientID]simulation.PnL{1: {LongPosition: 5, Cash: -500}}
	c.MaybeSnapshotPnL(10, pnls, 100)  // too soon, should be skipped
	c.MaybeSnapshotPnL(150, pnls, 100) // past the interval, should write

	if err := c.Finalize(200); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	rows := readRows(t, filepath.Join(dir, "pnl.csv"))
	if len(rows) != 2 {
		t.Fatalf("expected header + exactly 1 snapshot row, got %d rows: %v", len(rows), rows)
	}
	if rows[1][0] != "150" {
		t.Fatalf("expected the snapshot at t=150 to survive, got timestamp %s", rows[1][0])
	}
}

func TestFinalizeWritesMetadataJSON(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCSVCollector(dir, 100, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.MetadataBuilder().AddInstrument(1)
	if err := c.MetadataBuilder().AddAgent(1, "NoiseTrader", map[string]int{"spread": 10}, 42, 0); err != nil {
		t.Fatalf("add agent: %v", err)
	}
	if err := c.Finalize(500); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		t.Fatalf("read metadata.json: %v", err)
	}
	if len(raw) == 0 {
		t.Fatalf("expected non-empty metadata.json")
	}
}
