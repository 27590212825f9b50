// Command sim runs a full continuous double auction simulation from a JSON
// configuration file: it wires up the fair price process, the agent
// roster, optional CSV persistence, and an optional live websocket feed,
// then drives the simulation to completion and prints a final book and
// P&L report. Adapted from the original's main.cpp run_from_config.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/realmfikri/auctionsim/internal/agents"
	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/config"
	"github.com/realmfikri/auctionsim/internal/feed"
	"github.com/realmfikri/auctionsim/internal/fairprice"
	"github.com/realmfikri/auctionsim/internal/ids"
	"github.com/realmfikri/auctionsim/internal/persist"
	"github.com/realmfikri/auctionsim/internal/render"
	"github.com/realmfikri/auctionsim/internal/simulation"
)

func main() {
	configPath := flag.String("config", "", "path to a simulation config JSON file (default: config.json, then config_template.json)")
	outputOverride := flag.String("output", "", "override the config's output_dir")
	listenAddr := flag.String("listen", "", "if set, serve a live websocket feed (/ws/trades, /ws/book, /ws/pnl) on this address")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	logger := newLogger(*verbose)
	defer logger.Sync()

	path := resolveConfigPath(*configPath)
	cfg, err := config.Load(path)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", path), zap.Error(err))
	}
	if *outputOverride != "" {
		cfg.Simulation.OutputDir = *outputOverride
	}

	collector, finishFeed := buildCollector(cfg, *listenAddr, logger)
	defer finishFeed()

	d := buildDriver(cfg, collector)

	fmt.Println("Initial order book:")
	d.RunUntil(1)
	printBook(d, cfg.Instruments)

	fmt.Println("\nRunning simulation...")
	d.RunUntil(cfg.Simulation.Duration)
	fmt.Printf("Simulation complete. Time: %s\n\n", d.Now())

	fmt.Println("Final order book:")
	printBook(d, cfg.Instruments)

	mark := d.FairPrice()
	fmt.Printf("\nMark price (fair value): %s\n\n", mark)
	render.PnL(os.Stdout, d.AllPnL(), mark)

	if err := collector.Finalize(cfg.Simulation.Duration); err != nil {
		logger.Error("failed to finalize persistence", zap.Error(err))
	} else if cfg.Simulation.OutputDir != "" {
		fmt.Printf("\nPersistence data written to %s/\n", cfg.Simulation.OutputDir)
	}
}

func newLogger(verbose bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if _, err := os.Stat("config.json"); err == nil {
		return "config.json"
	}
	return "config_template.json"
}

// buildCollector assembles the persistence/feed stack: a NoopCollector if
// no output_dir is configured, else a CSVCollector, optionally wrapped in a
// BroadcastingCollector when --listen is set, in which case the websocket
// HTTP server is started here. The returned func stops that server; it is a
// no-op when --listen wasn't given.
func buildCollector(cfg config.SimulationConfig, listenAddr string, logger *zap.Logger) (simulation.Collector, func()) {
	var base simulation.Collector = simulation.NoopCollector{}
	if cfg.Simulation.OutputDir != "" {
		csvCollector, err := persist.NewCSVCollector(cfg.Simulation.OutputDir, cfg.Simulation.PnLSnapshotInterval, logger)
		if err != nil {
			logger.Fatal("failed to create persistence collector", zap.Error(err))
		}
		populateMetadata(csvCollector.MetadataBuilder(), cfg, logger)
		base = csvCollector
	}

	if listenAddr == "" {
		return base, func() {}
	}

	f := feed.New()
	mux := http.NewServeMux()
	f.Routes(mux)
	srv := &http.Server{Addr: listenAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("feed server exited", zap.Error(err))
		}
	}()
	logger.Info("serving live feed", zap.String("addr", listenAddr))

	return feed.BroadcastingCollector{Next: base, Feed: f}, func() { srv.Close() }
}

func populateMetadata(m *persist.Metadata, cfg config.SimulationConfig, logger *zap.Logger) {
	m.SetLatency(cfg.Simulation.Latency)
	m.SetDuration(cfg.Simulation.Duration)
	for _, instrument := range cfg.Instruments {
		m.AddInstrument(instrument)
	}
	if raw, err := json.Marshal(cfg.FairPrice); err == nil {
		m.SetFairPrice(raw)
	}

	if cfg.NoiseTraders != nil {
		group := *cfg.NoiseTraders
		for i := uint64(0); i < group.Count; i++ {
			id := ids.ClientID(uint64(group.StartClientID) + i)
			seed := group.BaseSeed + i
			if err := m.AddAgent(id, string(config.KindNoiseTrader), group.Config, seed, cfg.Simulation.Latency); err != nil {
				logger.Warn("failed to record noise trader metadata", zap.Uint64("client_id", uint64(id)), zap.Error(err))
			}
		}
	}

	for _, a := range cfg.Agents {
		var agentConfig any
		switch a.Type {
		case config.KindNoiseTrader:
			agentConfig = a.NoiseTrader
		case config.KindMarketMaker:
			agentConfig = a.MarketMaker
		case config.KindInformedTrader:
			agentConfig = a.InformedTrader
		default:
			continue
		}
		latency := a.Latency
		if latency == 0 {
			latency = cfg.Simulation.Latency
		}
		if err := m.AddAgent(a.ID, string(a.Type), agentConfig, a.Seed, latency); err != nil {
			logger.Warn("failed to record agent metadata", zap.Uint64("client_id", uint64(a.ID)), zap.Error(err))
		}
	}
}

func buildDriver(cfg config.SimulationConfig, collector simulation.Collector) *simulation.Driver {
	source := buildFairPriceSource(cfg.FairPrice)
	d := simulation.New(cfg.Simulation.Latency, source, collector)

	for _, instrument := range cfg.Instruments {
		d.AddInstrument(instrument)
	}

	if cfg.NoiseTraders != nil {
		spawnNoiseTraderGroup(d, *cfg.NoiseTraders)
	}

	for _, a := range cfg.Agents {
		spawnAgent(d, a)
	}

	for _, order := range cfg.InitialOrders {
		side, _ := order.BookSide()
		if engine, ok := d.Engine(order.Instrument); ok {
			engine.ProcessOrder(book.Request{
				ClientID: 0, Quantity: order.Quantity, Price: order.Price,
				InstrumentID: order.Instrument, Side: side, Type: book.Limit,
			})
		}
	}

	return d
}

func buildFairPriceSource(fp config.FairPriceConfig) fairprice.Source {
	switch fp.Model {
	case config.ModelJumpDiffusion:
		return fairprice.NewJumpDiffusion(fairprice.JumpDiffusionConfig{
			InitialPrice: fp.InitialPrice, Drift: fp.Drift, Volatility: fp.Volatility, TickSize: fp.TickSize,
			JumpIntensity: *fp.JumpIntensity, JumpMean: *fp.JumpMean, JumpStd: *fp.JumpStd,
		}, fp.Seed)
	default:
		return fairprice.NewGBM(fairprice.GBMConfig{
			InitialPrice: fp.InitialPrice, Drift: fp.Drift, Volatility: fp.Volatility, TickSize: fp.TickSize,
		}, fp.Seed)
	}
}

func spawnNoiseTraderGroup(d *simulation.Driver, group config.NoiseTraderGroupConfig) {
	for i := uint64(0); i < group.Count; i++ {
		id := ids.ClientID(uint64(group.StartClientID) + i)
		seed := group.BaseSeed + i
		wakeup := group.InitialWakeupStart + ids.Timestamp(i)*group.InitialWakeupStep

		nt := agents.NewNoiseTrader(id, toNoiseTraderConfig(group.Config), seed)
		d.AddAgent(nt, nil, group.Config.LatencyJitter, seed)
		d.SeedWakeup(id, wakeup)
	}
}

func spawnAgent(d *simulation.Driver, a config.AgentConfig) {
	switch a.Type {
	case config.KindNoiseTrader:
		if a.NoiseTrader == nil {
			return
		}
		d.AddAgent(agents.NewNoiseTrader(a.ID, toNoiseTraderConfig(*a.NoiseTrader), a.Seed), latencyOverride(a.Latency), a.NoiseTrader.LatencyJitter, a.Seed)
	case config.KindMarketMaker:
		if a.MarketMaker == nil {
			return
		}
		d.AddAgent(agents.NewMarketMaker(a.ID, toMarketMakerConfig(*a.MarketMaker), a.Seed), latencyOverride(a.Latency), a.MarketMaker.LatencyJitter, a.Seed)
	case config.KindInformedTrader:
		if a.InformedTrader == nil {
			return
		}
		d.AddAgent(agents.NewInformedTrader(a.ID, toInformedTraderConfig(*a.InformedTrader), a.Seed), latencyOverride(a.Latency), a.InformedTrader.LatencyJitter, a.Seed)
	default:
		return
	}
	d.SeedWakeup(a.ID, a.InitialWakeup)
}

func latencyOverride(latency ids.Timestamp) *ids.Timestamp {
	if latency == 0 {
		return nil
	}
	return &latency
}

func toNoiseTraderConfig(c config.NoiseTraderConfig) agents.NoiseTraderConfig {
	return agents.NoiseTraderConfig{
		Instrument: c.Instrument, ObservationNoise: c.ObservationNoise, Spread: c.Spread,
		MinQuantity: c.MinQuantity, MaxQuantity: c.MaxQuantity,
		MinInterval: c.MinInterval, MaxInterval: c.MaxInterval,
		AdverseFillThreshold: c.AdverseFillThreshold, StaleOrderThreshold: c.StaleOrderThreshold,
	}
}

func toMarketMakerConfig(c config.MarketMakerConfig) agents.MarketMakerConfig {
	return agents.MarketMakerConfig{
		Instrument: c.Instrument, ObservationNoise: c.ObservationNoise, HalfSpread: c.HalfSpread,
		QuoteSize: c.QuoteSize, UpdateInterval: c.UpdateInterval,
		InventorySkewFactor: c.InventorySkewFactor, MaxPosition: c.MaxPosition,
	}
}

func toInformedTraderConfig(c config.InformedTraderConfig) agents.InformedTraderConfig {
	return agents.InformedTraderConfig{
		Instrument: c.Instrument, MinQuantity: c.MinQuantity, MaxQuantity: c.MaxQuantity,
		MinInterval: c.MinInterval, MaxInterval: c.MaxInterval, MinEdge: c.MinEdge,
		ObservationNoise: c.ObservationNoise,
		AdverseFillThreshold: c.AdverseFillThreshold, StaleOrderThreshold: c.StaleOrderThreshold,
	}
}

func printBook(d *simulation.Driver, instruments []ids.InstrumentID) {
	for _, instrument := range instruments {
		engine, ok := d.Engine(instrument)
		if !ok {
			continue
		}
		render.OrderBook(os.Stdout, engine, 15)
	}
}
