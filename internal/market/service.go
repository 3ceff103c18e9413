package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nexus-terminal/internal/domain"
	"nexus-terminal/internal/provider"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	coinsCacheKey   = "market:coins"
	globalCacheKey  = "market:global"
	marketCacheTTL  = 60 * time.Second
	defaultCoinPage = 50
)

// MarketProvider fetches live listings and aggregates.
type MarketProvider interface {
	FetchCoins(ctx context.Context, limit int) ([]domain.CoinData, error)
	FetchGlobalMetrics(ctx context.Context) (*domain.GlobalMetrics, error)
}

// SentimentProvider supplies the 0-100 market sentiment reading.
type SentimentProvider interface {
	FetchLatest(ctx context.Context) (*provider.FearGreedPoint, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Service orchestrates market data: provider fetch, Redis caching,
// indicator enrichment and the offline fallback. Callers never see an
// upstream failure on the listing paths; they get the fallback dataset
// instead.
type Service struct {
	tracer    trace.Tracer
	provider  MarketProvider
	sentiment SentimentProvider
	redis     RedisClient

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(
	tracer trace.Tracer,
	marketProvider MarketProvider,
	sentimentProvider SentimentProvider,
	redisClient RedisClient,
) *Service {
	return &Service{
		tracer:    tracer,
		provider:  marketProvider,
		sentiment: sentimentProvider,
		redis:     redisClient,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListCoins returns the market table, cache first. On provider failure
// it serves the fixed offline dataset so the dashboard never blanks.
func (s *Service) ListCoins(ctx context.Context) []domain.CoinData {
	_, span := s.tracer.Start(ctx, "market-service.list-coins")
	defer span.End()

	if s.redis != nil {
		var cached []domain.CoinData
		if ok, err := s.getCache(ctx, coinsCacheKey, &cached); err != nil {
			log.Printf("redis cache read error: %v", err)
		} else if ok {
			return cached
		}
	}

	coins, err := s.provider.FetchCoins(ctx, defaultCoinPage)
	if err != nil {
		log.Printf("market provider unavailable, serving fallback: %v", err)
		return provider.FallbackCoins()
	}

	s.enrichCoins(coins)
	s.setCache(ctx, coinsCacheKey, coins)
	return coins
}

// GetCoin looks up one coin by symbol, case-insensitive.
func (s *Service) GetCoin(ctx context.Context, symbol string) (*domain.CoinData, error) {
	coins := s.ListCoins(ctx)
	for i := range coins {
		if strings.EqualFold(coins[i].Symbol, symbol) {
			return &coins[i], nil
		}
	}
	return nil, fmt.Errorf("unknown symbol: %s", symbol)
}

// Price returns the live price for a symbol, zero when unknown.
func (s *Service) Price(ctx context.Context, symbol string) float64 {
	coin, err := s.GetCoin(ctx, symbol)
	if err != nil {
		return 0
	}
	return coin.Price
}

// GlobalMetrics returns the dashboard header aggregates with the
// sentiment index filled in. Sentiment comes from the fear & greed
// feed; when that feed is down it is derived from the 24h market cap
// change instead.
func (s *Service) GlobalMetrics(ctx context.Context) domain.GlobalMetrics {
	_, span := s.tracer.Start(ctx, "market-service.global-metrics")
	defer span.End()

	if s.redis != nil {
		var cached domain.GlobalMetrics
		if ok, err := s.getCache(ctx, globalCacheKey, &cached); err != nil {
			log.Printf("redis cache read error: %v", err)
		} else if ok {
			return cached
		}
	}

	metrics, err := s.provider.FetchGlobalMetrics(ctx)
	if err != nil {
		log.Printf("global metrics unavailable, serving fallback: %v", err)
		return provider.FallbackGlobalMetrics()
	}

	metrics.SentimentIndex = s.sentimentIndex(ctx, metrics.MarketCapChange24hPct)
	s.setCache(ctx, globalCacheKey, metrics)
	return *metrics
}

// RefreshMarket force-fetches coins and global metrics and rewrites the
// cache. Used by the background poller.
func (s *Service) RefreshMarket(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "market-service.refresh-market")
	defer span.End()

	coins, err := s.provider.FetchCoins(ctx, defaultCoinPage)
	if err != nil {
		return fmt.Errorf("refresh coins: %w", err)
	}
	s.enrichCoins(coins)
	s.setCache(ctx, coinsCacheKey, coins)

	metrics, err := s.provider.FetchGlobalMetrics(ctx)
	if err != nil {
		return fmt.Errorf("refresh global metrics: %w", err)
	}
	metrics.SentimentIndex = s.sentimentIndex(ctx, metrics.MarketCapChange24hPct)
	s.setCache(ctx, globalCacheKey, metrics)

	log.Printf("Refreshed market data for %d assets", len(coins))
	return nil
}

func (s *Service) sentimentIndex(ctx context.Context, mcapChange24h float64) float64 {
	if s.sentiment != nil {
		point, err := s.sentiment.FetchLatest(ctx)
		if err == nil {
			return float64(point.Value)
		}
		log.Printf("sentiment feed unavailable, deriving from market cap change: %v", err)
	}
	sentiment := 50 + mcapChange24h*3
	if sentiment < 0 {
		return 0
	}
	if sentiment > 100 {
		return 100
	}
	return sentiment
}

// enrichCoins synthesizes the strategy indicators the upstream API does
// not provide. The 8-week SMA sits within 5% of spot on the side the
// 24h move implies; supertrend follows the move unless it is flat, and
// the stock-to-flow ratio is drawn from [0.9, 1.2).
func (s *Service) enrichCoins(coins []domain.CoinData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range coins {
		c := &coins[i]

		offset := 1 + s.rng.Float64()*0.05
		if c.Change24hPct > 0 {
			offset = 1 - s.rng.Float64()*0.05
		}
		c.SMA8w = c.Price * offset

		switch {
		case c.Change24hPct > 0.5:
			c.Supertrend = domain.TrendBullish
		case c.Change24hPct < -0.5:
			c.Supertrend = domain.TrendBearish
		case s.rng.Float64() > 0.5:
			c.Supertrend = domain.TrendBullish
		default:
			c.Supertrend = domain.TrendBearish
		}

		c.S2FRatio = 0.9 + s.rng.Float64()*0.3

		if c.FDV == 0 {
			if c.MaxSupply > 0 {
				c.FDV = c.MaxSupply * c.Price
			} else {
				c.FDV = c.MarketCap
			}
		}
	}
}

func (s *Service) setCache(ctx context.Context, key string, v interface{}) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, marketCacheTTL).Err(); err != nil {
		log.Printf("redis cache write error for %s: %v", key, err)
	}
}

func (s *Service) getCache(ctx context.Context, key string, out interface{}) (bool, error) {
	if s.redis == nil {
		return false, nil
	}
	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, err
	}
	return true, nil
}
