// Command bench drives internal/book.Engine directly in a tight loop to
// measure matching throughput, independent of scheduler, agent, or
// persistence overhead. Adapted from the teacher's cmd/loadgen.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
)

func main() {
	totalOrders := flag.Int("orders", 500000, "number of orders to submit")
	priceLevels := flag.Uint64("price-levels", 200, "unique price levels around the mid")
	basePrice := flag.Uint64("base-price", 10000, "mid price used for randomization")
	maxQty := flag.Uint64("max-qty", 5, "maximum order quantity")
	marketRatio := flag.Int("market-ratio", 5, "1 in N orders will be market instead of limit")
	cancelEvery := flag.Int("cancel-every", 0, "cancel a random prior order every N submissions")
	seed := flag.Int64("seed", time.Now().UnixNano(), "seed for deterministic random streams")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			panic(err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic(err)
		}
		defer pprof.StopCPUProfile()
	}

	rng := rand.New(rand.NewSource(*seed))
	engine := book.NewEngine(1)

	submitted := make([]ids.OrderID, 0, *totalOrders)
	var trades int64

	start := time.Now()
	for i := 0; i < *totalOrders; i++ {
		req := nextRandomRequest(rng, *basePrice, *priceLevels, *maxQty, *marketRatio)
		result := engine.ProcessOrder(req)
		trades += int64(len(result.Trades))
		if result.Status != book.Rejected {
			submitted = append(submitted, result.OrderID)
		}

		if *cancelEvery > 0 && len(submitted) > 0 && i%*cancelEvery == 0 {
			target := submitted[rng.Intn(len(submitted))]
			engine.CancelOrder(req.ClientID, target)
		}
	}
	elapsed := time.Since(start)

	ordersPerSec := float64(*totalOrders) / elapsed.Seconds()
	tradesPerSec := float64(trades) / elapsed.Seconds()

	fmt.Printf("submitted %d orders in %s (%.0f orders/s)\n", *totalOrders, elapsed.Truncate(time.Millisecond), ordersPerSec)
	fmt.Printf("matched %d trades (%.0f trades/s)\n", trades, tradesPerSec)
	fmt.Printf("config: price-levels=%d market-ratio=1/%d cancel-every=%d\n", *priceLevels, *marketRatio, *cancelEvery)
}

func nextRandomRequest(rng *rand.Rand, mid, width, maxQty uint64, marketRatio int) book.Request {
	side := book.Side(rng.Intn(2))

	var price uint64
	offset := rng.Uint64() % (width + 1)
	if side == book.Buy {
		price = mid + offset
	} else if mid > offset {
		price = mid - offset
	} else {
		price = 1
	}

	typ := book.Limit
	if marketRatio > 0 && rng.Intn(marketRatio) == 0 {
		typ = book.Market
	}

	qty := rng.Uint64()%maxQty + 1

	return book.Request{
		ClientID:     ids.ClientID(rng.Uint64()%1000 + 1),
		Quantity:     ids.Quantity(qty),
		Price:        ids.Price(price),
		InstrumentID: 1,
		Side:         side,
		Type:         typ,
	}
}
