package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"nexus-terminal/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const coingeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoProvider fetches market listings and global metrics from
// the CoinGecko free API.
type CoinGeckoProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewCoinGeckoProvider creates a new provider with built-in rate limiting.
// Rate limited to 8 requests per minute (one token every 7.5 seconds).
func NewCoinGeckoProvider(tracer trace.Tracer) *CoinGeckoProvider {
	return &CoinGeckoProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: coingeckoBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(8, 7500*time.Millisecond),
	}
}

type marketsRow struct {
	ID                string  `json:"id"`
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	CurrentPrice      float64 `json:"current_price"`
	PriceChange24hPct float64 `json:"price_change_percentage_24h"`
	MarketCap         float64 `json:"market_cap"`
	TotalVolume       float64 `json:"total_volume"`
	ATH               float64 `json:"ath"`
	ATHChangePct      float64 `json:"ath_change_percentage"`
	High24h           float64 `json:"high_24h"`
	Low24h            float64 `json:"low_24h"`
	TotalSupply       float64 `json:"total_supply"`
	MaxSupply         float64 `json:"max_supply"`
	CirculatingSupply float64 `json:"circulating_supply"`
	FDV               float64 `json:"fully_diluted_valuation"`
}

// FetchCoins fetches the top coins by market cap in a single API call.
// Strategy indicators (SMA, supertrend, S2F) are not provided by the
// API; the market service synthesizes them downstream.
func (p *CoinGeckoProvider) FetchCoins(ctx context.Context, limit int) ([]domain.CoinData, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-coins")
	defer span.End()

	if limit <= 0 || limit > 250 {
		limit = 50
	}
	url := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1&sparkline=false",
		p.baseURL, limit)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch coins: %w", err)
	}

	var rows []marketsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("parse coins: %w", err)
	}

	coins := make([]domain.CoinData, 0, len(rows))
	for _, r := range rows {
		coins = append(coins, domain.CoinData{
			ID:                r.ID,
			Symbol:            r.Symbol,
			Name:              r.Name,
			Price:             r.CurrentPrice,
			Change24hPct:      r.PriceChange24hPct,
			MarketCap:         r.MarketCap,
			Volume24h:         r.TotalVolume,
			ATH:               r.ATH,
			ATHChangePct:      r.ATHChangePct,
			High24h:           r.High24h,
			Low24h:            r.Low24h,
			TotalSupply:       r.TotalSupply,
			MaxSupply:         r.MaxSupply,
			CirculatingSupply: r.CirculatingSupply,
			FDV:               r.FDV,
		})
	}
	return coins, nil
}

// FetchGlobalMetrics fetches aggregate market stats. SentimentIndex is
// left zero; the market service fills it from the sentiment provider.
func (p *CoinGeckoProvider) FetchGlobalMetrics(ctx context.Context) (*domain.GlobalMetrics, error) {
	_, span := p.tracer.Start(ctx, "coingecko.fetch-global-metrics")
	defer span.End()

	body, err := p.doRequest(ctx, p.baseURL+"/global")
	if err != nil {
		return nil, fmt.Errorf("fetch global metrics: %w", err)
	}

	var raw struct {
		Data struct {
			TotalMarketCap      map[string]float64 `json:"total_market_cap"`
			TotalVolume         map[string]float64 `json:"total_volume"`
			MarketCapPercentage map[string]float64 `json:"market_cap_percentage"`
			MarketCapChangePct  float64            `json:"market_cap_change_percentage_24h_usd"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse global metrics: %w", err)
	}

	return &domain.GlobalMetrics{
		TotalMarketCap:        raw.Data.TotalMarketCap["usd"],
		TotalVolume:           raw.Data.TotalVolume["usd"],
		BTCDominance:          raw.Data.MarketCapPercentage["btc"],
		MarketCapChange24hPct: raw.Data.MarketCapChangePct,
	}, nil
}

func (p *CoinGeckoProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("coingecko API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
