package analysis

// StrategyVerdict is the final call of a strategy analysis.
type StrategyVerdict string

const (
	VerdictBuy  StrategyVerdict = "BUY"
	VerdictSell StrategyVerdict = "SELL"
	VerdictWait StrategyVerdict = "WAIT"
)

type TimeframeStatus string

const (
	StatusBullish TimeframeStatus = "BULLISH"
	StatusBearish TimeframeStatus = "BEARISH"
	StatusNeutral TimeframeStatus = "NEUTRAL"
)

// TimeframeView is the read of one timeframe (4h, daily, weekly).
type TimeframeView struct {
	Status   TimeframeStatus `json:"status"`
	Signal   string          `json:"signal"`
	KeyLevel string          `json:"key_level"`
}

type TimeframeAnalysis struct {
	H4 TimeframeView `json:"h4"`
	D1 TimeframeView `json:"d1"`
	W1 TimeframeView `json:"w1"`
}

type TradeLevels struct {
	EntryZone string   `json:"entry_zone"`
	Targets   []string `json:"targets"`
	StopLoss  string   `json:"stop_loss"`
}

// StrategyAnalysis is the structured verdict for one coin. Simulated
// marks responses produced by the deterministic engine instead of the
// LLM; the shape is identical either way.
type StrategyAnalysis struct {
	Verdict           StrategyVerdict   `json:"verdict"`
	ConfidenceScore   int               `json:"confidence_score"`
	Timeframes        TimeframeAnalysis `json:"timeframe_analysis"`
	Levels            TradeLevels       `json:"levels"`
	ExecutiveSummary  string            `json:"executive_summary"`
	DetailedReasoning string            `json:"detailed_reasoning"`
	RiskFactor        string            `json:"risk_factor"`
	Simulated         bool              `json:"simulated"`
}

// PortfolioReview is the free-text audit of a portfolio.
type PortfolioReview struct {
	Review    string `json:"review"`
	Simulated bool   `json:"simulated"`
}
