package alert

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var ErrAlertNotFound = errors.New("alert not found")

// fibTolerance is how close (relative) price must come to a fib level
// before the alert fires.
const fibTolerance = 0.005

// Store persists the alert list.
type Store interface {
	GetAlerts(ctx context.Context) ([]domain.Alert, error)
	SaveAlerts(ctx context.Context, alerts []domain.Alert) error
}

// MarketData resolves coin data for evaluation.
type MarketData interface {
	GetCoin(ctx context.Context, symbol string) (*domain.CoinData, error)
}

// Notifier pushes trigger notifications. Optional.
type Notifier interface {
	Notify(level domain.LogLevel, message string)
}

// Service manages user alerts and evaluates them against the market.
// Triggered alerts are deactivated, not deleted, so the history stays
// visible.
type Service struct {
	tracer   trace.Tracer
	store    Store
	market   MarketData
	notifier Notifier
	now      func() time.Time
}

func NewService(tracer trace.Tracer, store Store, market MarketData, notifier Notifier) *Service {
	return &Service{
		tracer:   tracer,
		store:    store,
		market:   market,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Alert, error) {
	return s.store.GetAlerts(ctx)
}

// Create validates and stores a new alert.
func (s *Service) Create(ctx context.Context, alert domain.Alert) (*domain.Alert, error) {
	ctx, span := s.tracer.Start(ctx, "alert-service.create")
	defer span.End()

	alert.CoinSymbol = strings.ToUpper(strings.TrimSpace(alert.CoinSymbol))
	if alert.CoinSymbol == "" {
		return nil, fmt.Errorf("coin symbol is required")
	}
	if err := validate(alert); err != nil {
		return nil, err
	}

	alert.ID = uuid.NewString()
	alert.Active = true
	alert.CreatedAt = s.now().UTC().Format(time.RFC3339)

	alerts, err := s.store.GetAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	alerts = append(alerts, alert)
	if err := s.store.SaveAlerts(ctx, alerts); err != nil {
		return nil, fmt.Errorf("save alerts: %w", err)
	}
	return &alert, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "alert-service.delete")
	defer span.End()

	alerts, err := s.store.GetAlerts(ctx)
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}

	kept := alerts[:0]
	found := false
	for _, a := range alerts {
		if a.ID == id {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return ErrAlertNotFound
	}
	return s.store.SaveAlerts(ctx, kept)
}

// Evaluate checks every active alert against current market data and
// returns the ones that fired. Fired alerts are deactivated in place.
func (s *Service) Evaluate(ctx context.Context) ([]domain.Alert, error) {
	ctx, span := s.tracer.Start(ctx, "alert-service.evaluate")
	defer span.End()

	alerts, err := s.store.GetAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}

	var triggered []domain.Alert
	for i := range alerts {
		if !alerts[i].Active {
			continue
		}
		coin, err := s.market.GetCoin(ctx, alerts[i].CoinSymbol)
		if err != nil {
			continue
		}
		if !fires(alerts[i], coin) {
			continue
		}
		alerts[i].Active = false
		triggered = append(triggered, alerts[i])
		if s.notifier != nil {
			s.notifier.Notify(domain.LogSignal, describe(alerts[i], coin))
		}
	}

	if len(triggered) > 0 {
		if err := s.store.SaveAlerts(ctx, alerts); err != nil {
			return triggered, fmt.Errorf("save alerts: %w", err)
		}
	}
	return triggered, nil
}

func validate(alert domain.Alert) error {
	switch alert.Type {
	case domain.AlertPriceTarget, domain.AlertFibRetracement:
		if alert.Value <= 0 {
			return fmt.Errorf("%s alert requires a positive value", alert.Type)
		}
		if alert.Condition != domain.ConditionAbove && alert.Condition != domain.ConditionBelow {
			return fmt.Errorf("%s alert requires ABOVE or BELOW", alert.Type)
		}
	case domain.AlertSMACross, domain.AlertSupertrendFlip:
		if alert.Condition != domain.ConditionCrossUp && alert.Condition != domain.ConditionCrossDown {
			return fmt.Errorf("%s alert requires CROSS_UP or CROSS_DOWN", alert.Type)
		}
	default:
		return fmt.Errorf("unknown alert type: %s", alert.Type)
	}
	return nil
}

func fires(alert domain.Alert, coin *domain.CoinData) bool {
	switch alert.Type {
	case domain.AlertPriceTarget:
		if alert.Condition == domain.ConditionAbove {
			return coin.Price >= alert.Value
		}
		return coin.Price <= alert.Value
	case domain.AlertSMACross:
		if alert.Condition == domain.ConditionCrossUp {
			return coin.Price > coin.SMA8w
		}
		return coin.Price < coin.SMA8w
	case domain.AlertSupertrendFlip:
		if alert.Condition == domain.ConditionCrossUp {
			return coin.Supertrend == domain.TrendBullish
		}
		return coin.Supertrend == domain.TrendBearish
	case domain.AlertFibRetracement:
		// Fires when price tags the level from the configured side.
		near := math.Abs(coin.Price-alert.Value)/alert.Value <= fibTolerance
		if !near {
			return false
		}
		if alert.Condition == domain.ConditionAbove {
			return coin.Price >= alert.Value
		}
		return coin.Price <= alert.Value
	}
	return false
}

func describe(alert domain.Alert, coin *domain.CoinData) string {
	switch alert.Type {
	case domain.AlertPriceTarget:
		return fmt.Sprintf("ALERT %s: price target %s $%.2f hit (now $%.2f)", alert.CoinSymbol, alert.Condition, alert.Value, coin.Price)
	case domain.AlertSMACross:
		return fmt.Sprintf("ALERT %s: 8-week SMA %s (price $%.2f, SMA $%.2f)", alert.CoinSymbol, alert.Condition, coin.Price, coin.SMA8w)
	case domain.AlertSupertrendFlip:
		return fmt.Sprintf("ALERT %s: supertrend flipped %s", alert.CoinSymbol, coin.Supertrend)
	default:
		return fmt.Sprintf("ALERT %s: fib level $%.2f tagged (now $%.2f)", alert.CoinSymbol, alert.Value, coin.Price)
	}
}
