package analysis

import (
	"errors"
	"fmt"
	"strings"

	"nexus-terminal/internal/domain"
)

var errNoChoices = errors.New("no choices in LLM response")

const analystPersona = `You are a senior desk analyst at a crypto hedge fund. Tone: direct, decisive, institutional.

Strategy framework:
- 8-week SMA is the primary trend line. Price above it is strength, below it is weakness.
- Stock-to-flow ratio is the valuation model. Ratios below 1.0 mean the asset trades under its scarcity value.
- Identify where retail liquidity sits and what the larger players are likely doing against it.

Rules:
- Be decisive. Never hedge a verdict at 50% confidence.
- Always reference the specific numbers you were given.
- Keep the language tight; no disclaimers.`

// BuildStrategyPrompt assembles the per-coin analysis request. The
// response contract is JSON matching StrategyAnalysis.
func BuildStrategyPrompt(coin domain.CoinData, rsi4h float64) string {
	smaDistance := 0.0
	if coin.SMA8w > 0 {
		smaDistance = (coin.Price - coin.SMA8w) / coin.SMA8w * 100
	}
	dailyStructure := "Bearish structure (below SMA)"
	if smaDistance > 0 {
		dailyStructure = "Bullish structure (above SMA)"
	}
	s2fStatus := "overvalued vs scarcity model"
	if coin.S2FRatio < 1.0 {
		s2fStatus = "undervalued vs scarcity model"
	}

	var sb strings.Builder
	sb.WriteString("Analyze this target and return ONLY a JSON object.\n\n")
	sb.WriteString(fmt.Sprintf("TARGET: %s (%s)\n", coin.Name, strings.ToUpper(coin.Symbol)))
	sb.WriteString(fmt.Sprintf("- Current price: $%.2f\n", coin.Price))
	sb.WriteString(fmt.Sprintf("- 8-week SMA: $%.2f\n", coin.SMA8w))
	sb.WriteString(fmt.Sprintf("- S2F ratio: %.2f (%s)\n", coin.S2FRatio, s2fStatus))
	sb.WriteString(fmt.Sprintf("- RSI (4h): %.1f\n", rsi4h))
	sb.WriteString(fmt.Sprintf("- Daily context: %s\n", dailyStructure))
	sb.WriteString(`
REQUIRED OUTPUT (JSON):
{
  "verdict": "BUY" | "SELL" | "WAIT",
  "confidence_score": 0-100,
  "timeframe_analysis": {
    "h4": { "status": "BULLISH"|"BEARISH"|"NEUTRAL", "signal": "e.g. hidden accumulation", "key_level": "price" },
    "d1": { "status": "BULLISH"|"BEARISH"|"NEUTRAL", "signal": "e.g. pivot breakout", "key_level": "price" },
    "w1": { "status": "BULLISH"|"BEARISH"|"NEUTRAL", "signal": "e.g. secular trend", "key_level": "price" }
  },
  "levels": {
    "entry_zone": "exact price range",
    "targets": ["conservative target", "stretch target"],
    "stop_loss": "thesis invalidation point"
  },
  "executive_summary": "one high-impact sentence",
  "detailed_reasoning": "short paragraph in institutional trading language (liquidity, stop hunts, absorption)",
  "risk_factor": "where the thesis fails"
}`)
	return sb.String()
}

// BuildPortfolioPrompt assembles the portfolio audit request.
func BuildPortfolioPrompt(positions []domain.PortfolioPosition) string {
	var sb strings.Builder
	sb.WriteString("You are auditing a retail client's portfolio. The house strategy: accumulate below the 8-week SMA, distribute into S2F euphoria.\n\nPortfolio:\n")
	for _, p := range positions {
		sb.WriteString(fmt.Sprintf("- %s (%s): $%.2f (%.1f%% of portfolio). P&L: %+.1f%%.\n",
			p.Name, strings.ToUpper(p.Symbol), p.ValueUSD, p.AllocationPct, p.PnlPct))
	}
	sb.WriteString("\nGive a blunt diagnosis. If they are losing, explain whose liquidity they are providing. If they are winning, say how to optimize. Keep it short.")
	return sb.String()
}
