package provider

import "nexus-terminal/internal/domain"

// FallbackCoins is the offline dataset served when the upstream market
// API is unreachable or rate limited. Values are a plausible snapshot,
// not live data; the symbols cover everything the rest of the system
// depends on (bot assets, default chart, portfolio advice).
func FallbackCoins() []domain.CoinData {
	return []domain.CoinData{
		{
			ID: "bitcoin", Symbol: "btc", Name: "Bitcoin",
			Price: 96420.50, Change24hPct: 1.2, MarketCap: 1_900_000_000_000, Volume24h: 45_000_000_000,
			SMA8w: 92100, Supertrend: domain.TrendBullish, S2FRatio: 1.15,
			ATH: 102000, ATHChangePct: -5.4, High24h: 97100, Low24h: 95800,
			TotalSupply: 19_750_000, MaxSupply: 21_000_000, CirculatingSupply: 19_750_000, FDV: 2_024_830_500_000,
		},
		{
			ID: "ethereum", Symbol: "eth", Name: "Ethereum",
			Price: 2750.20, Change24hPct: -0.5, MarketCap: 330_000_000_000, Volume24h: 18_000_000_000,
			SMA8w: 2800, Supertrend: domain.TrendBearish, S2FRatio: 0.92,
			ATH: 4878, ATHChangePct: -43.6, High24h: 2810, Low24h: 2710,
			TotalSupply: 120_000_000, CirculatingSupply: 120_000_000, FDV: 330_000_000_000,
		},
		{
			ID: "solana", Symbol: "sol", Name: "Solana",
			Price: 210.60, Change24hPct: 3.8, MarketCap: 95_000_000_000, Volume24h: 5_000_000_000,
			SMA8w: 195, Supertrend: domain.TrendBullish, S2FRatio: 1.05,
			ATH: 260, ATHChangePct: -18.9, High24h: 215, Low24h: 202,
			TotalSupply: 570_000_000, CirculatingSupply: 450_000_000, FDV: 121_095_000_000,
		},
		{
			ID: "bnb", Symbol: "bnb", Name: "BNB",
			Price: 640.10, Change24hPct: 0.2, MarketCap: 98_000_000_000, Volume24h: 1_400_000_000,
			SMA8w: 630, Supertrend: domain.TrendBullish, S2FRatio: 1.00,
			ATH: 720, ATHChangePct: -11.1, High24h: 645, Low24h: 635,
			TotalSupply: 145_000_000, MaxSupply: 200_000_000, CirculatingSupply: 145_000_000, FDV: 92_800_000_000,
		},
		{
			ID: "ripple", Symbol: "xrp", Name: "XRP",
			Price: 2.45, Change24hPct: 5.4, MarketCap: 130_000_000_000, Volume24h: 4_000_000_000,
			SMA8w: 2.10, Supertrend: domain.TrendBullish, S2FRatio: 1.10,
			ATH: 3.40, ATHChangePct: -27.9, High24h: 2.55, Low24h: 2.30,
			TotalSupply: 99_987_000_000, MaxSupply: 100_000_000_000, CirculatingSupply: 55_000_000_000, FDV: 245_000_000_000,
		},
	}
}

// FallbackGlobalMetrics matches the fallback coin dataset.
func FallbackGlobalMetrics() domain.GlobalMetrics {
	return domain.GlobalMetrics{
		TotalMarketCap: 3_100_000_000_000,
		TotalVolume:    120_000_000_000,
		BTCDominance:   58.2,
		SentimentIndex: 68,
	}
}
