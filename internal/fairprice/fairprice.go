// Package fairprice generates the latent "true" price process that agents
// observe (with noise) when deciding where to quote. It ships a GBM
// source, a Merton jump-diffusion source, and a Dummy source for tests
// that need a fixed or hand-advanced price.
package fairprice

import (
	"math"
	"math/rand"

	"github.com/realmfikri/auctionsim/internal/ids"
)

// Source is the capability every fair-price model exposes to the driver.
type Source interface {
	// AdvanceTo is a no-op when t is not after the last update. Otherwise
	// it updates the current price using dt = (t - last_update)/tick_size.
	AdvanceTo(t ids.Timestamp)
	// TruePrice is the current price rounded to the nearest integer tick,
	// floored at 1.
	TruePrice() ids.Price
	LastUpdate() ids.Timestamp
}

// GBMConfig parameterizes a plain geometric Brownian motion price.
type GBMConfig struct {
	InitialPrice ids.Price
	Drift        float64
	Volatility   float64
	TickSize     ids.Timestamp
}

// GBM is a geometric Brownian motion fair-price source with a private
// seeded PRNG, matching the original's per-generator mt19937_64 ownership.
type GBM struct {
	cfg     GBMConfig
	price   float64
	updated ids.Timestamp
	rng     *rand.Rand
}

// NewGBM builds a GBM source seeded independently of any other generator
// in the run.
func NewGBM(cfg GBMConfig, seed uint64) *GBM {
	return &GBM{
		cfg:   cfg,
		price: float64(cfg.InitialPrice),
		rng:   rand.New(rand.NewSource(int64(seed))),
	}
}

func (g *GBM) AdvanceTo(t ids.Timestamp) {
	if t <= g.updated {
		return
	}
	dt := dtSince(g.updated, t, g.cfg.TickSize)

	if g.cfg.Volatility == 0 {
		g.price *= math.Exp(g.cfg.Drift * dt)
	} else {
		z := g.rng.NormFloat64()
		drift := (g.cfg.Drift - 0.5*g.cfg.Volatility*g.cfg.Volatility) * dt
		diffusion := g.cfg.Volatility * math.Sqrt(dt) * z
		g.price *= math.Exp(drift + diffusion)
	}
	g.updated = t
}

func (g *GBM) TruePrice() ids.Price  { return roundPrice(g.price) }
func (g *GBM) LastUpdate() ids.Timestamp { return g.updated }

// JumpDiffusionConfig parameterizes a Merton jump-diffusion price: GBM
// diffusion plus log-normally sized jumps arriving as a Poisson process.
type JumpDiffusionConfig struct {
	InitialPrice   ids.Price
	Drift          float64
	Volatility     float64
	TickSize       ids.Timestamp
	JumpIntensity  float64 // lambda, jumps per unit of (t/tick_size) time
	JumpMean       float64 // mu_J
	JumpStd        float64 // sigma_J
}

// JumpDiffusion is a Merton jump-diffusion fair-price source.
type JumpDiffusion struct {
	cfg     JumpDiffusionConfig
	price   float64
	updated ids.Timestamp
	rng     *rand.Rand
}

func NewJumpDiffusion(cfg JumpDiffusionConfig, seed uint64) *JumpDiffusion {
	return &JumpDiffusion{
		cfg:   cfg,
		price: float64(cfg.InitialPrice),
		rng:   rand.New(rand.NewSource(int64(seed))),
	}
}

func (j *JumpDiffusion) AdvanceTo(t ids.Timestamp) {
	if t <= j.updated {
		return
	}
	dt := dtSince(j.updated, t, j.cfg.TickSize)

	if j.cfg.Volatility == 0 {
		j.price *= math.Exp(j.cfg.Drift * dt)
		j.updated = t
		return
	}

	z := j.rng.NormFloat64()
	k := math.Exp(j.cfg.JumpMean+0.5*j.cfg.JumpStd*j.cfg.JumpStd) - 1

	diffusion := (j.cfg.Drift-0.5*j.cfg.Volatility*j.cfg.Volatility-j.cfg.JumpIntensity*k) * dt
	diffusion += j.cfg.Volatility * math.Sqrt(dt) * z

	n := poisson(j.rng, j.cfg.JumpIntensity*dt)
	var jumpSum float64
	for i := 0; i < n; i++ {
		jumpSum += j.cfg.JumpMean + j.cfg.JumpStd*j.rng.NormFloat64()
	}

	j.price *= math.Exp(diffusion + jumpSum)
	j.updated = t
}

func (j *JumpDiffusion) TruePrice() ids.Price      { return roundPrice(j.price) }
func (j *JumpDiffusion) LastUpdate() ids.Timestamp { return j.updated }

// poisson draws from a Poisson(mean) distribution via Knuth's algorithm.
// mean is expected to be small and non-negative (lambda*dt over one tick
// step); no pack repo imports a stats/distribution library, so this is
// implemented directly rather than pulled in from gonum.
func poisson(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for {
		k++
		p *= rng.Float64()
		if p <= l {
			return k - 1
		}
	}
}

func dtSince(last, t ids.Timestamp, tick ids.Timestamp) float64 {
	return float64(t-last) / float64(tick)
}

func roundPrice(p float64) ids.Price {
	r := math.Round(p)
	if r < 1 {
		r = 1
	}
	return ids.Price(r)
}

// Dummy lets tests fix or hand-advance the price without any randomness,
// matching the original's DummyFairPriceSource used throughout
// fair_price_tests.cpp.
type Dummy struct {
	price   ids.Price
	updated ids.Timestamp
}

// NewDummy returns a Dummy fixed at price.
func NewDummy(price ids.Price) *Dummy {
	return &Dummy{price: price}
}

func (d *Dummy) AdvanceTo(t ids.Timestamp) {
	if t <= d.updated {
		return
	}
	d.updated = t
}

func (d *Dummy) TruePrice() ids.Price      { return d.price }
func (d *Dummy) LastUpdate() ids.Timestamp { return d.updated }

// SetPrice lets a test change the fixed price directly.
func (d *Dummy) SetPrice(p ids.Price) { d.price = p }
