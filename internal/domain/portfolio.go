package domain

// TradeAdvice is the per-position BUY/SELL/HOLD tag shown in the
// portfolio table.
type TradeAdvice string

const (
	AdviceBuy  TradeAdvice = "BUY"
	AdviceSell TradeAdvice = "SELL"
	AdviceHold TradeAdvice = "HOLD"
)

type PositionSource string

const (
	SourceWallet PositionSource = "WALLET"
	SourceManual PositionSource = "MANUAL"
	SourceBot    PositionSource = "BOT"
)

// PortfolioPosition is one holding in the portfolio tracker.
type PortfolioPosition struct {
	ID            string         `json:"id"`
	CoinID        string         `json:"coin_id"`
	Symbol        string         `json:"symbol"`
	Name          string         `json:"name"`
	Amount        float64        `json:"amount"`
	AvgBuyPrice   float64        `json:"avg_buy_price"`
	CurrentPrice  float64        `json:"current_price"`
	ValueUSD      float64        `json:"value_usd"`
	PnlPct        float64        `json:"pnl_pct"`
	PnlUSD        float64        `json:"pnl_usd"`
	AllocationPct float64        `json:"allocation_pct"`
	Advice        TradeAdvice    `json:"advice"`
	Source        PositionSource `json:"source"`
}

// Reprice recomputes the derived value and P&L fields from a fresh
// market price. Allocation is a portfolio-level figure and is left to
// the service.
func (p *PortfolioPosition) Reprice(price float64) {
	p.CurrentPrice = price
	p.ValueUSD = p.Amount * price
	p.PnlUSD = (price - p.AvgBuyPrice) * p.Amount
	if p.AvgBuyPrice > 0 {
		p.PnlPct = (price - p.AvgBuyPrice) / p.AvgBuyPrice * 100
	} else {
		p.PnlPct = 0
	}
}

type AlertType string

const (
	AlertSMACross       AlertType = "SMA_CROSS"
	AlertPriceTarget    AlertType = "PRICE_TARGET"
	AlertSupertrendFlip AlertType = "SUPERTREND_FLIP"
	AlertFibRetracement AlertType = "FIB_RETRACEMENT"
)

type AlertCondition string

const (
	ConditionAbove     AlertCondition = "ABOVE"
	ConditionBelow     AlertCondition = "BELOW"
	ConditionCrossUp   AlertCondition = "CROSS_UP"
	ConditionCrossDown AlertCondition = "CROSS_DOWN"
)

// Alert is one user-configured market alert. Triggered alerts are
// deactivated, not deleted.
type Alert struct {
	ID         string         `json:"id"`
	CoinSymbol string         `json:"coin_symbol"`
	Type       AlertType      `json:"type"`
	Condition  AlertCondition `json:"condition"`
	Value      float64        `json:"value,omitempty"`
	Active     bool           `json:"active"`
	CreatedAt  string         `json:"created_at"`
}
