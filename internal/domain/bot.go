package domain

import "time"

type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Sign is +1 for longs and -1 for shorts.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// BotPhase is the engine's state machine phase.
type BotPhase string

const (
	PhaseIdle      BotPhase = "IDLE"
	PhaseScanning  BotPhase = "SCANNING"
	PhaseAnalyzing BotPhase = "ANALYZING"
	PhaseExecuting BotPhase = "EXECUTING"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// StrategyFlags enables/disables the scan strategies individually.
type StrategyFlags struct {
	SMA8w bool `json:"sma_8w"`
	S2F   bool `json:"s2f"`
	DCA   bool `json:"dca"`
	Fibbo bool `json:"fibbo"`
}

// BotConfig is the sole input governing the bot engine's behavior.
// Loaded once at startup, mutated by user controls, persisted on
// every change.
type BotConfig struct {
	Active                bool          `json:"active"`
	RiskLevel             RiskLevel     `json:"risk_level"`
	MaxAllocationPerTrade float64       `json:"max_allocation_per_trade"`
	Leverage              int           `json:"leverage"`
	AutoExecute           bool          `json:"auto_execute"`
	Strategies            StrategyFlags `json:"strategies"`
}

func DefaultBotConfig() BotConfig {
	return BotConfig{
		Active:                false,
		RiskLevel:             RiskMedium,
		MaxAllocationPerTrade: 1000,
		Leverage:              5,
		AutoExecute:           false,
		Strategies: StrategyFlags{
			SMA8w: true,
			S2F:   true,
			DCA:   true,
			Fibbo: false,
		},
	}
}

// RiskProfile is a named leverage/allocation preset. Selecting one
// overwrites both fields atomically.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "CONSERVATIVE"
	ProfileBalanced     RiskProfile = "BALANCED"
	ProfileAggressive   RiskProfile = "AGGRESSIVE"
)

// Apply sets the preset's leverage and max allocation on cfg.
func (p RiskProfile) Apply(cfg *BotConfig) bool {
	switch p {
	case ProfileConservative:
		cfg.Leverage = 2
		cfg.MaxAllocationPerTrade = 500
		cfg.RiskLevel = RiskLow
	case ProfileBalanced:
		cfg.Leverage = 10
		cfg.MaxAllocationPerTrade = 2000
		cfg.RiskLevel = RiskMedium
	case ProfileAggressive:
		cfg.Leverage = 50
		cfg.MaxAllocationPerTrade = 5000
		cfg.RiskLevel = RiskHigh
	default:
		return false
	}
	return true
}

type LogLevel string

const (
	LogInfo    LogLevel = "INFO"
	LogSuccess LogLevel = "SUCCESS"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
	LogSignal  LogLevel = "SIGNAL"
)

// BotLog is one append-only diagnostic record. Retention is capped
// both in the live view buffer and in the store, oldest first.
type BotLog struct {
	ID        string   `json:"id"`
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
	Asset     string   `json:"asset,omitempty"`
}

// TradeSignal is a candidate trade proposed by the engine. At most
// one pending signal exists at a time.
type TradeSignal struct {
	ID         string    `json:"id"`
	Asset      string    `json:"asset"`
	Direction  Direction `json:"direction"`
	Leverage   int       `json:"leverage"`
	EntryPrice float64   `json:"entry_price"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Confidence int       `json:"confidence"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivePosition is an open leveraged position. At most one exists
// at a time; it is closed only by explicit user action.
type ActivePosition struct {
	ID               string    `json:"id"`
	Asset            string    `json:"asset"`
	Direction        Direction `json:"direction"`
	Leverage         int       `json:"leverage"`
	EntryPrice       float64   `json:"entry_price"`
	CurrentPrice     float64   `json:"current_price"`
	Margin           float64   `json:"margin"`
	PnlUSD           float64   `json:"pnl_usd"`
	PnlPct           float64   `json:"pnl_pct"`
	LiquidationPrice float64   `json:"liquidation_price"`
	StopLoss         float64   `json:"stop_loss,omitempty"`
	TakeProfit       float64   `json:"take_profit,omitempty"`
	OpenedAt         time.Time `json:"opened_at"`
}

// LiquidationPrice is computed once at open time and never again:
// entry * (1 - 1/leverage) for longs, entry * (1 + 1/leverage) for
// shorts.
func LiquidationPrice(entry float64, leverage int, dir Direction) float64 {
	if leverage < 1 {
		leverage = 1
	}
	return entry * (1 - dir.Sign()/float64(leverage))
}

// MarkPrice updates the live price and the derived unrealized P&L.
// Everything else on the position is immutable after open.
func (p *ActivePosition) MarkPrice(price float64) {
	p.CurrentPrice = price
	move := (price - p.EntryPrice) / p.EntryPrice
	p.PnlPct = float64(p.Leverage) * p.Direction.Sign() * move * 100
	p.PnlUSD = p.Margin * p.PnlPct / 100
}

// PerformanceMetrics is the engine's realized-trade ledger, updated
// exactly once per position close.
type PerformanceMetrics struct {
	TotalTrades  int     `json:"total_trades"`
	WinRatePct   float64 `json:"win_rate_pct"`
	ProfitFactor float64 `json:"profit_factor"`
	NetPnl       float64 `json:"net_pnl"`
}

// RecordClose folds one realized trade into the ledger. Win rate is a
// running weighted average and stays within [0,100].
func (m *PerformanceMetrics) RecordClose(pnlUSD float64) {
	win := 0.0
	if pnlUSD > 0 {
		win = 100
	}
	m.WinRatePct = (m.WinRatePct*float64(m.TotalTrades) + win) / float64(m.TotalTrades+1)
	m.TotalTrades++
	m.NetPnl += pnlUSD
}

// BotAssets are the assets the engine scans. Entry prices come from
// the fixed reference table, not the live feed.
var BotAssets = []string{"BTC", "ETH"}

// ReferencePrice is the fixed per-asset entry price used when
// manufacturing signals.
var ReferencePrice = map[string]float64{
	"BTC": 96420.50,
	"ETH": 2750.20,
}

// TickVolatility is the per-asset volatility constant used by the
// position P&L ticker's multiplicative price moves.
var TickVolatility = map[string]float64{
	"BTC": 0.0005,
	"ETH": 0.001,
}
