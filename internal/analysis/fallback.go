package analysis

import (
	"fmt"

	"nexus-terminal/internal/domain"
)

// SimulateStrategy is the deterministic analysis engine used when no
// LLM is configured or the LLM fails. The verdict hangs entirely on
// price vs the 8-week SMA; the S2F ratio colors the weekly view.
func SimulateStrategy(coin domain.CoinData) *StrategyAnalysis {
	bullish := coin.SMA8w < coin.Price

	verdict := VerdictWait
	confidence := 42
	if bullish {
		verdict = VerdictBuy
		confidence = 88
	}

	h4 := TimeframeView{Status: StatusNeutral, Signal: "Institutional volume", KeyLevel: fmt.Sprintf("$%.2f", coin.Price*0.98)}
	d1 := TimeframeView{Status: StatusBearish, Signal: "Breakout confirmed", KeyLevel: fmt.Sprintf("$%.2f", coin.SMA8w)}
	if bullish {
		h4.Status = StatusBullish
		d1.Status = StatusBullish
	}
	w1 := TimeframeView{Status: StatusNeutral, Signal: "S2F asymmetry", KeyLevel: "Macro support"}
	if coin.S2FRatio < 1.0 {
		w1.Status = StatusBullish
	}

	return &StrategyAnalysis{
		Verdict:         verdict,
		ConfidenceScore: confidence,
		Timeframes:      TimeframeAnalysis{H4: h4, D1: d1, W1: w1},
		Levels: TradeLevels{
			EntryZone: fmt.Sprintf("$%.2f - $%.2f", coin.Price, coin.Price*1.01),
			Targets: []string{
				fmt.Sprintf("$%.2f", coin.Price*1.15),
				fmt.Sprintf("$%.2f", coin.Price*1.30),
			},
			StopLoss: fmt.Sprintf("$%.2f", coin.Price*0.92),
		},
		ExecutiveSummary: "Asymmetric opportunity detected. Asset trading against the institutional average with buy-side order flow.",
		DetailedReasoning: fmt.Sprintf(
			"Price ($%.2f) relative to the 8-week SMA ($%.2f) defines the regime. The stock-to-flow model reads %.2f. Larger players accumulate in this zone; late entries buy the top.",
			coin.Price, coin.SMA8w, coin.S2FRatio),
		RiskFactor: "Short-term volatility designed to shake out weak hands.",
		Simulated:  true,
	}
}

// SimulatePortfolioReview is the offline portfolio audit.
func SimulatePortfolioReview(positions []domain.PortfolioPosition) *PortfolioReview {
	var losing int
	for _, p := range positions {
		if p.PnlPct < 0 {
			losing++
		}
	}
	review := "Portfolio audited. Allocation inefficiencies detected: exposure to assets below their 8-week SMA is draining capital. Rotate into trend leaders."
	if len(positions) > 0 && losing == 0 {
		review = "Portfolio audited. Every position is in profit; the risk now is overstaying. Ladder exits into S2F euphoria instead of round-tripping gains."
	}
	return &PortfolioReview{Review: review, Simulated: true}
}
