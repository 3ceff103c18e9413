package job

import (
	"context"
	"log"
	"time"

	"nexus-terminal/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// MarketPoller keeps the market cache warm and sweeps alerts against
// fresh data.
type MarketPoller struct {
	tracer        trace.Tracer
	market        MarketRefresher
	alerts        AlertEvaluator
	pollInterval  time.Duration
	sweepInterval time.Duration
}

type MarketRefresher interface {
	RefreshMarket(ctx context.Context) error
}

type AlertEvaluator interface {
	Evaluate(ctx context.Context) ([]domain.Alert, error)
}

func NewMarketPoller(tracer trace.Tracer, market MarketRefresher, alerts AlertEvaluator, pollIntervalSecs int) *MarketPoller {
	if pollIntervalSecs <= 0 {
		pollIntervalSecs = 60
	}
	return &MarketPoller{
		tracer:        tracer,
		market:        market,
		alerts:        alerts,
		pollInterval:  time.Duration(pollIntervalSecs) * time.Second,
		sweepInterval: 30 * time.Second,
	}
}

// Start launches the polling goroutines. Blocks until ctx is cancelled.
func (p *MarketPoller) Start(ctx context.Context) {
	log.Println("Market poller starting...")

	go p.pollLoop(ctx, "market-refresh", p.pollInterval, p.market.RefreshMarket)

	if p.alerts != nil {
		go p.alertSweep(ctx)
	}

	<-ctx.Done()
	log.Println("Market poller stopped")
}

func (p *MarketPoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *MarketPoller) alertSweep(ctx context.Context) {
	// Stagger behind the first market refresh so sweeps see warm data.
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	ticker := time.NewTicker(p.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			triggered, err := p.alerts.Evaluate(ctx)
			if err != nil {
				log.Printf("alert sweep error: %v", err)
				continue
			}
			if len(triggered) > 0 {
				log.Printf("alert sweep fired %d alert(s)", len(triggered))
			}
		}
	}
}
