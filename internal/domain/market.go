package domain

// CoinData is one row of the market dashboard: raw exchange data from
// the market provider plus the synthetic strategy indicators the rest
// of the system keys off (8-week SMA, supertrend, stock-to-flow).
type CoinData struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	Change24hPct      float64 `json:"change_24h_pct"`
	MarketCap         float64 `json:"market_cap"`
	Volume24h         float64 `json:"volume_24h"`
	SMA8w             float64 `json:"sma_8w"`
	Supertrend        Trend   `json:"supertrend"`
	S2FRatio          float64 `json:"s2f_ratio"`
	ATH               float64 `json:"ath"`
	ATHChangePct      float64 `json:"ath_change_pct"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	TotalSupply       float64 `json:"total_supply,omitempty"`
	MaxSupply         float64 `json:"max_supply,omitempty"`
	CirculatingSupply float64 `json:"circulating_supply"`
	FDV               float64 `json:"fdv,omitempty"`
}

type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
)

// GlobalMetrics summarizes the whole market for the dashboard header.
// SentimentIndex is a 0-100 fear/greed style reading.
type GlobalMetrics struct {
	TotalMarketCap        float64 `json:"total_market_cap"`
	TotalVolume           float64 `json:"total_volume"`
	BTCDominance          float64 `json:"btc_dominance"`
	MarketCapChange24hPct float64 `json:"market_cap_change_24h_pct"`
	SentimentIndex        float64 `json:"sentiment_index"`
}

// ChartConfig is handed to the embeddable charting widget on the coin
// detail view. The widget itself is a frontend concern; the backend
// only decides symbol, interval, theme and studies.
type ChartConfig struct {
	Symbol   string   `json:"symbol"`
	Interval string   `json:"interval"`
	Theme    string   `json:"theme"`
	Studies  []string `json:"studies"`
}

func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Symbol:   "BTCUSDT",
		Interval: "D",
		Theme:    "dark",
		Studies:  []string{"MASimple@tv-basicstudies"},
	}
}

// SupportedChartIntervals lists the intervals the widget accepts.
var SupportedChartIntervals = []string{"15", "60", "240", "D", "W"}
