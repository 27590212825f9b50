// Package config loads and validates a simulation run from JSON, the way
// the original loader built a SimulationConfig from a JSON document: decode
// into loosely-typed intermediate structs, then validate and convert into
// the strongly-typed ids.* domain.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/realmfikri/auctionsim/internal/book"
	"github.com/realmfikri/auctionsim/internal/ids"
)

// FairPriceModel discriminates which stochastic process drives the fair
// price: "gbm" (the default) or "jump_diffusion".
type FairPriceModel string

const (
	ModelGBM           FairPriceModel = "gbm"
	ModelJumpDiffusion FairPriceModel = "jump_diffusion"
)

// FairPriceConfig holds every field either model might need. The GBM fields
// are used by both models (a missing one decodes as zero and is not
// rejected); JumpDiffusion adds the jump_* fields. Whether the jump_* fields
// may appear depends on Model, checked by validateFairPriceModel in Parse.
type FairPriceConfig struct {
	Model         FairPriceModel `json:"model,omitempty"`
	InitialPrice  ids.Price      `json:"initial_price"`
	Drift         float64        `json:"drift"`
	Volatility    float64        `json:"volatility"`
	TickSize      ids.Timestamp  `json:"tick_size"`
	JumpIntensity *float64       `json:"jump_intensity,omitempty"`
	JumpMean      *float64       `json:"jump_mean,omitempty"`
	JumpStd       *float64       `json:"jump_std,omitempty"`
	Seed          uint64         `json:"seed,omitempty"`
}

// NoiseTraderConfig mirrors agents.NoiseTraderConfig plus a latency jitter
// sigma, in JSON-friendly form.
type NoiseTraderConfig struct {
	Instrument           ids.InstrumentID `json:"instrument"`
	ObservationNoise     float64          `json:"observation_noise"`
	Spread               ids.Price        `json:"spread"`
	MinQuantity          ids.Quantity     `json:"min_quantity"`
	MaxQuantity          ids.Quantity     `json:"max_quantity"`
	MinInterval          ids.Timestamp    `json:"min_interval"`
	MaxInterval          ids.Timestamp    `json:"max_interval"`
	AdverseFillThreshold ids.Price        `json:"adverse_fill_threshold"`
	StaleOrderThreshold  ids.Price        `json:"stale_order_threshold"`
	LatencyJitter        float64          `json:"latency_jitter,omitempty"`
}

// NoiseTraderGroupConfig spawns Count noise traders with sequential client
// ids, staggered initial wakeups, and seeds derived from BaseSeed+index.
type NoiseTraderGroupConfig struct {
	Count               uint64            `json:"count"`
	StartClientID       ids.ClientID      `json:"start_client_id"`
	BaseSeed            uint64            `json:"base_seed"`
	InitialWakeupStart  ids.Timestamp     `json:"initial_wakeup_start"`
	InitialWakeupStep   ids.Timestamp     `json:"initial_wakeup_step"`
	Config              NoiseTraderConfig `json:"config"`
}

// MarketMakerConfig mirrors agents.MarketMakerConfig.
type MarketMakerConfig struct {
	Instrument          ids.InstrumentID `json:"instrument"`
	ObservationNoise    float64          `json:"observation_noise"`
	HalfSpread          ids.Price        `json:"half_spread"`
	QuoteSize           ids.Quantity     `json:"quote_size"`
	UpdateInterval      ids.Timestamp    `json:"update_interval"`
	InventorySkewFactor float64          `json:"inventory_skew_factor"`
	MaxPosition         ids.Quantity     `json:"max_position"`
	LatencyJitter       float64          `json:"latency_jitter,omitempty"`
}

// InformedTraderConfig mirrors agents.InformedTraderConfig.
type InformedTraderConfig struct {
	Instrument           ids.InstrumentID `json:"instrument"`
	MinQuantity          ids.Quantity     `json:"min_quantity"`
	MaxQuantity          ids.Quantity     `json:"max_quantity"`
	MinInterval          ids.Timestamp    `json:"min_interval"`
	MaxInterval          ids.Timestamp    `json:"max_interval"`
	MinEdge              ids.Price        `json:"min_edge"`
	ObservationNoise     float64          `json:"observation_noise"`
	AdverseFillThreshold ids.Price        `json:"adverse_fill_threshold"`
	StaleOrderThreshold  ids.Price        `json:"stale_order_threshold"`
	LatencyJitter        float64          `json:"latency_jitter,omitempty"`
}

// AgentKind is the type discriminator on an individual agent entry.
type AgentKind string

const (
	KindNoiseTrader    AgentKind = "NoiseTrader"
	KindMarketMaker    AgentKind = "MarketMaker"
	KindInformedTrader AgentKind = "InformedTrader"
)

// AgentConfig describes a single named agent. Exactly one of NoiseTrader,
// MarketMaker, InformedTrader is populated, selected by Type.
type AgentConfig struct {
	ID             ids.ClientID
	Type           AgentKind
	Seed           uint64
	InitialWakeup  ids.Timestamp
	Latency        ids.Timestamp
	NoiseTrader    *NoiseTraderConfig
	MarketMaker    *MarketMakerConfig
	InformedTrader *InformedTraderConfig
}

// UnmarshalJSON dispatches the polymorphic "config" block to the struct
// matching Type, mirroring the original's from_json branch on c.type.
func (a *AgentConfig) UnmarshalJSON(data []byte) error {
	var shape struct {
		ID            ids.ClientID    `json:"client_id"`
		Type          AgentKind       `json:"type"`
		Seed          uint64          `json:"seed"`
		InitialWakeup ids.Timestamp   `json:"initial_wakeup"`
		Latency       ids.Timestamp   `json:"latency,omitempty"`
		Config        json.RawMessage `json:"config"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}

	a.ID = shape.ID
	a.Type = shape.Type
	a.Seed = shape.Seed
	a.InitialWakeup = shape.InitialWakeup
	a.Latency = shape.Latency

	switch shape.Type {
	case KindNoiseTrader:
		var c NoiseTraderConfig
		if err := json.Unmarshal(shape.Config, &c); err != nil {
			return fmt.Errorf("agent %s config: %w", shape.ID, err)
		}
		a.NoiseTrader = &c
	case KindMarketMaker:
		var c MarketMakerConfig
		if err := json.Unmarshal(shape.Config, &c); err != nil {
			return fmt.Errorf("agent %s config: %w", shape.ID, err)
		}
		a.MarketMaker = &c
	case KindInformedTrader:
		var c InformedTraderConfig
		if err := json.Unmarshal(shape.Config, &c); err != nil {
			return fmt.Errorf("agent %s config: %w", shape.ID, err)
		}
		a.InformedTrader = &c
	default:
		return fmt.Errorf("unknown agent type %q", shape.Type)
	}
	return nil
}

// InitialOrder seeds the book at t=0, before any agent wakes up.
type InitialOrder struct {
	Instrument ids.InstrumentID `json:"instrument"`
	Side       string           `json:"side"`
	Price      ids.Price        `json:"price"`
	Quantity   ids.Quantity     `json:"quantity"`
}

// BookSide converts the JSON "BUY"/"SELL" string into a book.Side.
func (o InitialOrder) BookSide() (book.Side, error) {
	switch o.Side {
	case "BUY":
		return book.Buy, nil
	case "SELL":
		return book.Sell, nil
	default:
		return 0, fmt.Errorf("initial_orders: side must be BUY or SELL, got %q", o.Side)
	}
}

// SimulationConfig is the root of a run's JSON configuration.
type SimulationConfig struct {
	Simulation struct {
		Latency             ids.Timestamp `json:"latency,omitempty"`
		Duration            ids.Timestamp `json:"duration,omitempty"`
		OutputDir           string        `json:"output_dir,omitempty"`
		PnLSnapshotInterval ids.Timestamp `json:"pnl_snapshot_interval,omitempty"`
	} `json:"simulation"`
	Instruments  []ids.InstrumentID       `json:"instruments"`
	FairPrice    FairPriceConfig          `json:"fair_price"`
	NoiseTraders *NoiseTraderGroupConfig  `json:"noise_traders,omitempty"`
	Agents       []AgentConfig            `json:"agents,omitempty"`
	InitialOrders []InitialOrder          `json:"initial_orders,omitempty"`
}

// Defaults mirrors the original's SimulationConfig in-class member
// defaults: duration 1000, output_dir "./output", pnl_snapshot_interval 100.
func Defaults() SimulationConfig {
	var c SimulationConfig
	c.Simulation.Duration = 1000
	c.Simulation.OutputDir = "./output"
	c.Simulation.PnLSnapshotInterval = 100
	c.FairPrice.Model = ModelGBM
	return c
}

// Load reads and validates a SimulationConfig from path.
func Load(path string) (SimulationConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes and validates a SimulationConfig from r.
func Parse(r io.Reader) (SimulationConfig, error) {
	cfg := Defaults()
	raw, err := io.ReadAll(r)
	if err != nil {
		return SimulationConfig{}, fmt.Errorf("read config: %w", err)
	}

	// Decode into a map first so a bare fair_price model mismatch (jump
	// diffusion fields present under model "gbm") can be rejected before
	// the typed decode silently drops the extra fields.
	var probe struct {
		FairPrice map[string]json.RawMessage `json:"fair_price"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return SimulationConfig{}, fmt.Errorf("parse config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return SimulationConfig{}, fmt.Errorf("parse config: %w", err)
	}

	if cfg.FairPrice.Model == "" {
		cfg.FairPrice.Model = ModelGBM
	}
	if err := validateFairPriceModel(cfg.FairPrice, probe.FairPrice); err != nil {
		return SimulationConfig{}, err
	}

	if err := cfg.Validate(); err != nil {
		return SimulationConfig{}, err
	}
	return cfg, nil
}

func validateFairPriceModel(fp FairPriceConfig, raw map[string]json.RawMessage) error {
	_, hasIntensity := raw["jump_intensity"]
	_, hasMean := raw["jump_mean"]
	_, hasStd := raw["jump_std"]
	hasJumpFields := hasIntensity || hasMean || hasStd

	switch fp.Model {
	case ModelJumpDiffusion:
		if fp.JumpIntensity == nil || fp.JumpMean == nil || fp.JumpStd == nil {
			return fmt.Errorf("fair_price: model jump_diffusion requires jump_intensity, jump_mean and jump_std")
		}
	case ModelGBM:
		if hasJumpFields {
			return fmt.Errorf("fair_price: model gbm cannot have jump diffusion parameters " +
				"(jump_intensity, jump_mean, jump_std); use model=\"jump_diffusion\" instead")
		}
	default:
		return fmt.Errorf("fair_price: unknown model %q", fp.Model)
	}
	return nil
}

// Validate checks cross-field invariants that json.Decoder alone cannot
// express: non-empty instrument list, agents referencing a declared
// instrument, well-formed AgentConfig discriminants.
func (c SimulationConfig) Validate() error {
	if len(c.Instruments) == 0 {
		return fmt.Errorf("instruments: at least one instrument is required")
	}
	known := make(map[ids.InstrumentID]bool, len(c.Instruments))
	for _, id := range c.Instruments {
		known[id] = true
	}

	for i, a := range c.Agents {
		switch a.Type {
		case KindNoiseTrader:
			if a.NoiseTrader == nil {
				return fmt.Errorf("agents[%d]: type NoiseTrader requires a config block", i)
			}
			if !known[a.NoiseTrader.Instrument] {
				return fmt.Errorf("agents[%d]: instrument %s is not declared in instruments", i, a.NoiseTrader.Instrument)
			}
		case KindMarketMaker:
			if a.MarketMaker == nil {
				return fmt.Errorf("agents[%d]: type MarketMaker requires a config block", i)
			}
			if !known[a.MarketMaker.Instrument] {
				return fmt.Errorf("agents[%d]: instrument %s is not declared in instruments", i, a.MarketMaker.Instrument)
			}
		case KindInformedTrader:
			if a.InformedTrader == nil {
				return fmt.Errorf("agents[%d]: type InformedTrader requires a config block", i)
			}
			if !known[a.InformedTrader.Instrument] {
				return fmt.Errorf("agents[%d]: instrument %s is not declared in instruments", i, a.InformedTrader.Instrument)
			}
		default:
			return fmt.Errorf("agents[%d]: unknown agent type %q", i, a.Type)
		}
	}

	for i, o := range c.InitialOrders {
		if !known[o.Instrument] {
			return fmt.Errorf("initial_orders[%d]: instrument %s is not declared in instruments", i, o.Instrument)
		}
		if _, err := o.BookSide(); err != nil {
			return fmt.Errorf("initial_orders[%d]: %w", i, err)
		}
	}

	if c.NoiseTraders != nil && !known[c.NoiseTraders.Config.Instrument] {
		return fmt.Errorf("noise_traders: instrument %s is not declared in instruments", c.NoiseTraders.Config.Instrument)
	}

	return nil
}
