package dca

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Frequency is how often a contribution is made.
type Frequency string

const (
	FreqWeekly    Frequency = "weekly"
	FreqBiweekly  Frequency = "biweekly"
	FreqMonthly   Frequency = "monthly"
	FreqQuarterly Frequency = "quarterly"
)

func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FreqWeekly:
		return 52
	case FreqBiweekly:
		return 26
	case FreqQuarterly:
		return 4
	default:
		return 12
	}
}

// Params are the simulation inputs. A change to any field regenerates
// the whole series from scratch; points are never rescaled in place.
type Params struct {
	Contribution         float64   `json:"contribution"`
	Frequency            Frequency `json:"frequency"`
	ProjectionYears      int       `json:"projection_years"`
	BacktestYears        int       `json:"backtest_years"`
	TargetAnnualYieldPct float64   `json:"target_annual_yield_pct"`
	SmartAccumulation    bool      `json:"smart_accumulation"`
	CurrentPrice         float64   `json:"current_price"`
	CurrentSMA           float64   `json:"current_sma"`
	Symbol               string    `json:"symbol"`
}

// Point is one projection sample. Negative periods are the simulated
// past, zero is today, positive periods are the projected future.
type Point struct {
	Period         int      `json:"period"`
	Label          string   `json:"label"`
	TotalInvested  float64  `json:"total_invested"`
	PortfolioValue float64  `json:"portfolio_value"`
	IsPast         bool     `json:"is_past"`
	BuyPoint       *float64 `json:"buy_point,omitempty"`
	SMALevel       *float64 `json:"sma_level,omitempty"`
}

// Summary is derived from the clean accumulators, never from the
// noised chart values.
type Summary struct {
	TotalInvested  float64 `json:"total_invested"`
	FinalValue     float64 `json:"final_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// Tunables hold every constant the simulation is calibrated with.
// The defaults are the shipped calibration; all of them are
// overridable through config.
type Tunables struct {
	VolatilityBTC     float64 // per-period uniform noise width, BTC class
	VolatilityAlt     float64 // same, everything else
	DriftBTC          float64 // monthly trend drift, BTC class
	DriftAlt          float64
	AccumulationBoost float64 // contribution multiplier below the SMA
	AccumulationTrim  float64 // contribution multiplier when overextended
	OverextensionPct  float64 // price above SMA by this fraction counts as overextended
	SMADriftRatio     float64 // how much slower the SMA moves than price
	DisplayNoisePct   float64 // +/- bound of the future-segment chart noise
	RegimeLength      int     // future-segment accumulation regime length, in periods
	MaxYears          int     // clamp for both horizons
}

func DefaultTunables() Tunables {
	return Tunables{
		VolatilityBTC:     0.04,
		VolatilityAlt:     0.08,
		DriftBTC:          0.008,
		DriftAlt:          0.012,
		AccumulationBoost: 1.5,
		AccumulationTrim:  0.5,
		OverextensionPct:  0.30,
		SMADriftRatio:     0.3,
		DisplayNoisePct:   0.005,
		RegimeLength:      6,
		MaxYears:          50,
	}
}

// Engine produces DCA projection series. It is stateless; every call
// to Simulate recomputes the full series from its inputs and the
// injected randomness source.
type Engine struct {
	tun Tunables
}

func NewEngine(tun Tunables) *Engine {
	if tun.RegimeLength <= 0 {
		tun = DefaultTunables()
	}
	return &Engine{tun: tun}
}

// Simulate maps the parameters to an ordered series of points plus
// summary figures. It never returns an error: invalid numeric inputs
// are clamped before computation and a degenerate (all-zero) series
// is still a valid series.
func (e *Engine) Simulate(p Params, rng *rand.Rand) ([]Point, Summary) {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	p = e.sanitize(p)

	ppy := p.Frequency.PeriodsPerYear()
	pastPeriods := p.BacktestYears * ppy
	futurePeriods := p.ProjectionYears * ppy

	volatility := e.tun.VolatilityAlt
	drift := e.tun.DriftAlt
	if p.Symbol == "BTC" {
		volatility = e.tun.VolatilityBTC
		drift = e.tun.DriftBTC
	}
	driftPerPeriod := drift * 12 / float64(ppy)

	points := make([]Point, 0, pastPeriods+futurePeriods+1)

	var invested, value float64

	// The smart-accumulation rule tracks a simulated price and a
	// slower-moving simulated SMA through the same stochastic
	// process the portfolio value follows.
	simPrice := p.CurrentPrice
	simSMA := p.CurrentSMA
	if simSMA <= 0 {
		simSMA = simPrice
	}

	for i := -pastPeriods; i <= 0; i++ {
		contribution := p.Contribution
		var smaLevel *float64
		if p.SmartAccumulation {
			contribution *= e.accumulationFactor(simPrice, simSMA)
			level := simSMA
			smaLevel = &level
		}

		if i == -pastPeriods {
			invested = contribution
			value = contribution
		} else {
			noise := (rng.Float64() - 0.5) * volatility
			periodReturn := 1 + noise + driftPerPeriod
			value = value*periodReturn + contribution
			invested += contribution

			if p.SmartAccumulation {
				move := (rng.Float64()-0.5)*volatility + driftPerPeriod
				simPrice *= 1 + move
				simSMA *= 1 + move*e.tun.SMADriftRatio
			}
		}

		buy := value
		points = append(points, Point{
			Period:         i,
			Label:          pastLabel(i),
			TotalInvested:  invested,
			PortfolioValue: value,
			IsPast:         true,
			BuyPoint:       &buy,
			SMALevel:       smaLevel,
		})
	}

	ratePerPeriod := math.Pow(1+p.TargetAnnualYieldPct/100, 1/float64(ppy)) - 1

	regimeFactor := 1.0
	for i := 1; i <= futurePeriods; i++ {
		contribution := p.Contribution
		if p.SmartAccumulation {
			// Coarse regime draw: the future has no simulated price
			// path, only accumulation regimes that flip every few
			// periods.
			if (i-1)%e.tun.RegimeLength == 0 {
				regimeFactor = e.regimeDraw(rng)
			}
			contribution *= regimeFactor
		}

		invested += contribution
		value = value*(1+ratePerPeriod) + contribution

		// Chart-only noise. The accumulators above stay clean so the
		// summary and any downstream figure are exact.
		noise := 1 + (rng.Float64()-0.5)*2*e.tun.DisplayNoisePct
		display := value * noise

		var buy *float64
		if i%buyMarkerStride(p.Frequency) == 0 {
			b := display
			buy = &b
		}

		label := ""
		if i == futurePeriods {
			label = "TARGET"
		}
		points = append(points, Point{
			Period:         i,
			Label:          label,
			TotalInvested:  invested,
			PortfolioValue: display,
			IsPast:         false,
			BuyPoint:       buy,
		})
	}

	return points, summarize(invested, value)
}

func (e *Engine) sanitize(p Params) Params {
	if !isFinite(p.Contribution) || p.Contribution < 0 {
		p.Contribution = 0
	}
	if p.ProjectionYears < 0 {
		p.ProjectionYears = 0
	}
	if p.ProjectionYears > e.tun.MaxYears {
		p.ProjectionYears = e.tun.MaxYears
	}
	if p.BacktestYears < 0 {
		p.BacktestYears = 0
	}
	if p.BacktestYears > e.tun.MaxYears {
		p.BacktestYears = e.tun.MaxYears
	}
	if !isFinite(p.TargetAnnualYieldPct) {
		p.TargetAnnualYieldPct = 0
	}
	if p.TargetAnnualYieldPct < -99 {
		p.TargetAnnualYieldPct = -99
	}
	if !isFinite(p.CurrentPrice) || p.CurrentPrice <= 0 {
		p.CurrentPrice = 1
	}
	if !isFinite(p.CurrentSMA) || p.CurrentSMA < 0 {
		p.CurrentSMA = 0
	}
	switch p.Frequency {
	case FreqWeekly, FreqBiweekly, FreqMonthly, FreqQuarterly:
	default:
		p.Frequency = FreqMonthly
	}
	return p
}

// accumulationFactor scales a period's contribution: buy more below
// the moving average, trim when stretched far above it.
func (e *Engine) accumulationFactor(price, sma float64) float64 {
	if sma <= 0 {
		return 1
	}
	if price < sma {
		return e.tun.AccumulationBoost
	}
	if price > sma*(1+e.tun.OverextensionPct) {
		return e.tun.AccumulationTrim
	}
	return 1
}

func (e *Engine) regimeDraw(rng *rand.Rand) float64 {
	switch r := rng.Float64(); {
	case r < 0.3:
		return e.tun.AccumulationBoost
	case r > 0.85:
		return e.tun.AccumulationTrim
	default:
		return 1
	}
}

func summarize(invested, value float64) Summary {
	s := Summary{TotalInvested: invested, FinalValue: value}
	if invested > 0 {
		s.TotalReturnPct = (value - invested) / invested * 100
	}
	return s
}

func pastLabel(period int) string {
	if period == 0 {
		return "TODAY"
	}
	return fmt.Sprintf("P%d", period)
}

// buyMarkerStride thins the discrete purchase markers on dense series
// so weekly charts stay readable.
func buyMarkerStride(f Frequency) int {
	if f == FreqWeekly {
		return 8
	}
	return 1
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
