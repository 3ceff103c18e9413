package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var ErrPositionNotFound = errors.New("position not found")

// Store persists the portfolio position list.
type Store interface {
	GetPortfolio(ctx context.Context) ([]domain.PortfolioPosition, error)
	SavePortfolio(ctx context.Context, positions []domain.PortfolioPosition) error
}

// MarketData resolves live coin data for repricing and advice.
type MarketData interface {
	GetCoin(ctx context.Context, symbol string) (*domain.CoinData, error)
}

// Summary is the portfolio with its aggregate header figures.
type Summary struct {
	TotalValueUSD float64                    `json:"total_value_usd"`
	TotalPnlUSD   float64                    `json:"total_pnl_usd"`
	Positions     []domain.PortfolioPosition `json:"positions"`
}

// Service tracks holdings. Every read reprices against the market and
// recomputes allocations so the stored list never goes stale for more
// than one request.
type Service struct {
	tracer trace.Tracer
	store  Store
	market MarketData

	mu  sync.Mutex
	rng *rand.Rand
}

func NewService(tracer trace.Tracer, store Store, market MarketData) *Service {
	return &Service{
		tracer: tracer,
		store:  store,
		market: market,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// List returns the repriced portfolio with allocations normalized to
// 100%.
func (s *Service) List(ctx context.Context) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio-service.list")
	defer span.End()

	positions, err := s.store.GetPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	for i := range positions {
		s.refresh(ctx, &positions[i])
	}
	summary := summarize(positions)

	if err := s.store.SavePortfolio(ctx, positions); err != nil {
		return nil, fmt.Errorf("save portfolio: %w", err)
	}
	return summary, nil
}

// Add appends a holding. The live market price fills the current
// price; for unknown symbols a small drift around the buy price stands
// in so the position still renders a P&L.
func (s *Service) Add(ctx context.Context, symbol string, amount, avgBuyPrice float64, source domain.PositionSource) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio-service.add")
	defer span.End()

	if amount <= 0 || avgBuyPrice <= 0 {
		return nil, fmt.Errorf("amount and buy price must be positive")
	}
	if symbol = strings.TrimSpace(symbol); symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if source == "" {
		source = domain.SourceManual
	}

	pos := domain.PortfolioPosition{
		ID:          uuid.NewString(),
		CoinID:      strings.ToLower(symbol),
		Symbol:      strings.ToUpper(symbol),
		Name:        strings.ToUpper(symbol),
		Amount:      amount,
		AvgBuyPrice: avgBuyPrice,
		Source:      source,
	}
	s.refresh(ctx, &pos)

	positions, err := s.store.GetPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	positions = append(positions, pos)
	summary := summarize(positions)

	if err := s.store.SavePortfolio(ctx, positions); err != nil {
		return nil, fmt.Errorf("save portfolio: %w", err)
	}
	return summary, nil
}

// Remove deletes a holding by ID.
func (s *Service) Remove(ctx context.Context, id string) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "portfolio-service.remove")
	defer span.End()

	positions, err := s.store.GetPortfolio(ctx)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}

	kept := positions[:0]
	found := false
	for _, p := range positions {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return nil, ErrPositionNotFound
	}
	summary := summarize(kept)

	if err := s.store.SavePortfolio(ctx, kept); err != nil {
		return nil, fmt.Errorf("save portfolio: %w", err)
	}
	return summary, nil
}

// refresh reprices one position from the market and re-derives its
// advice tag from the house strategy: accumulate below the 8-week SMA,
// take profit when the S2F model runs hot, hold otherwise.
func (s *Service) refresh(ctx context.Context, pos *domain.PortfolioPosition) {
	coin, err := s.market.GetCoin(ctx, pos.Symbol)
	if err != nil {
		if pos.CurrentPrice == 0 {
			pos.Reprice(pos.AvgBuyPrice * (1 + s.drift()))
		} else {
			pos.Reprice(pos.CurrentPrice)
		}
		pos.Advice = domain.AdviceHold
		return
	}

	if coin.Name != "" {
		pos.Name = coin.Name
	}
	pos.Reprice(coin.Price)

	switch {
	case coin.Price < coin.SMA8w:
		pos.Advice = domain.AdviceBuy
	case coin.S2FRatio > 1.15 && pos.PnlPct > 0:
		pos.Advice = domain.AdviceSell
	default:
		pos.Advice = domain.AdviceHold
	}
}

func (s *Service) drift() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()*0.1 - 0.05
}

func summarize(positions []domain.PortfolioPosition) *Summary {
	var totalValue, totalPnl float64
	for _, p := range positions {
		totalValue += p.ValueUSD
		totalPnl += p.PnlUSD
	}
	for i := range positions {
		if totalValue > 0 {
			positions[i].AllocationPct = positions[i].ValueUSD / totalValue * 100
		} else {
			positions[i].AllocationPct = 0
		}
	}
	return &Summary{
		TotalValueUSD: totalValue,
		TotalPnlUSD:   totalPnl,
		Positions:     positions,
	}
}
