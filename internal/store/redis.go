package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// Redis key space. Everything the dashboard persists between sessions
// lives under the nexus: prefix.
const (
	keyBotConfig   = "nexus:bot:config"
	keyBotLogs     = "nexus:bot:logs"
	keyOpenTrade   = "nexus:bot:open_trade"
	keyLicense     = "nexus:license"
	keyPortfolio   = "nexus:portfolio"
	keyAlerts      = "nexus:alerts"
	keyChartConfig = "nexus:chart_config"
)

// storedLogCap bounds the durable log list. The live in-memory buffer
// is smaller; this is the long retention tier.
const storedLogCap = 500

// RedisClient is the slice of go-redis the store needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// Store is the Redis-backed KV persistence layer. A nil client is
// accepted everywhere: reads return defaults and writes become no-ops,
// so the app degrades to session-only state instead of failing.
type Store struct {
	redis RedisClient
}

func NewStore(redisClient RedisClient) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) setJSON(ctx context.Context, key string, v interface{}) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.redis.Set(ctx, key, data, 0).Err()
}

// getJSON unmarshals key into out. Returns false when the key does not
// exist so callers can substitute their default.
func (s *Store) getJSON(ctx context.Context, key string, out interface{}) (bool, error) {
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
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SaveBotConfig(ctx context.Context, cfg domain.BotConfig) error {
	return s.setJSON(ctx, keyBotConfig, cfg)
}

func (s *Store) GetBotConfig(ctx context.Context) (domain.BotConfig, error) {
	cfg := domain.DefaultBotConfig()
	if _, err := s.getJSON(ctx, keyBotConfig, &cfg); err != nil {
		return domain.DefaultBotConfig(), err
	}
	return cfg, nil
}

// AppendLog pushes one entry onto the durable log list, newest first,
// trimmed to the retention cap.
func (s *Store) AppendLog(ctx context.Context, entry domain.BotLog) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal bot log: %w", err)
	}
	if err := s.redis.LPush(ctx, keyBotLogs, data).Err(); err != nil {
		return err
	}
	return s.redis.LTrim(ctx, keyBotLogs, 0, storedLogCap-1).Err()
}

// RecentLogs returns up to limit entries, oldest first, ready to append
// to a live view.
func (s *Store) RecentLogs(ctx context.Context, limit int) ([]domain.BotLog, error) {
	if s.redis == nil {
		return nil, nil
	}
	if limit <= 0 || limit > storedLogCap {
		limit = storedLogCap
	}
	raw, err := s.redis.LRange(ctx, keyBotLogs, 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	logs := make([]domain.BotLog, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry domain.BotLog
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		logs = append(logs, entry)
	}
	return logs, nil
}

func (s *Store) SaveOpenTrade(ctx context.Context, pos *domain.ActivePosition) error {
	return s.setJSON(ctx, keyOpenTrade, pos)
}

func (s *Store) GetOpenTrade(ctx context.Context) (*domain.ActivePosition, error) {
	var pos domain.ActivePosition
	ok, err := s.getJSON(ctx, keyOpenTrade, &pos)
	if err != nil || !ok {
		return nil, err
	}
	return &pos, nil
}

func (s *Store) DeleteOpenTrade(ctx context.Context) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, keyOpenTrade).Err()
}

// License gating: the bot surface unlocks once the (simulated)
// lifetime license is purchased.

func (s *Store) HasLicense(ctx context.Context) (bool, error) {
	var licensed bool
	if _, err := s.getJSON(ctx, keyLicense, &licensed); err != nil {
		return false, err
	}
	return licensed, nil
}

func (s *Store) SetLicense(ctx context.Context, licensed bool) error {
	return s.setJSON(ctx, keyLicense, licensed)
}

func (s *Store) GetPortfolio(ctx context.Context) ([]domain.PortfolioPosition, error) {
	var positions []domain.PortfolioPosition
	if _, err := s.getJSON(ctx, keyPortfolio, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *Store) SavePortfolio(ctx context.Context, positions []domain.PortfolioPosition) error {
	if positions == nil {
		positions = []domain.PortfolioPosition{}
	}
	return s.setJSON(ctx, keyPortfolio, positions)
}

func (s *Store) GetAlerts(ctx context.Context) ([]domain.Alert, error) {
	var alerts []domain.Alert
	if _, err := s.getJSON(ctx, keyAlerts, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

func (s *Store) SaveAlerts(ctx context.Context, alerts []domain.Alert) error {
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	return s.setJSON(ctx, keyAlerts, alerts)
}

func (s *Store) GetChartConfig(ctx context.Context) (domain.ChartConfig, error) {
	cfg := domain.DefaultChartConfig()
	if _, err := s.getJSON(ctx, keyChartConfig, &cfg); err != nil {
		return domain.DefaultChartConfig(), err
	}
	return cfg, nil
}

func (s *Store) SaveChartConfig(ctx context.Context, cfg domain.ChartConfig) error {
	return s.setJSON(ctx, keyChartConfig, cfg)
}
