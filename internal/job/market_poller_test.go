package job

import (
	"context"
	"testing"
	"time"

	"nexus-terminal/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

func TestNewMarketPollerInterval(t *testing.T) {
	tracer := trace.NewNoopTracerProvider().Tracer("test")
	poller := NewMarketPoller(tracer, &stubMarketService{}, nil, 2)
	if poller.pollInterval != 2*time.Second {
		t.Fatalf("expected 2s interval, got %v", poller.pollInterval)
	}

	poller = NewMarketPoller(tracer, &stubMarketService{}, nil, 0)
	if poller.pollInterval != 60*time.Second {
		t.Fatalf("expected 60s default interval, got %v", poller.pollInterval)
	}
}

func TestMarketPollerStart(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	stub := &stubMarketService{}
	poller := NewMarketPoller(tracer, stub, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go poller.Start(ctx)

	eventually(t, func() bool { return stub.refreshCalls > 0 })
	cancel()
}

func TestAlertSweepFires(t *testing.T) {
	t.Parallel()

	tracer := trace.NewNoopTracerProvider().Tracer("test")
	alerts := &stubAlertService{triggered: []domain.Alert{{ID: "a-1"}}}
	poller := NewMarketPoller(tracer, &stubMarketService{}, alerts, 1)
	poller.sweepInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drive the sweep loop directly to skip the startup stagger.
	go func() {
		ticker := time.NewTicker(poller.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := poller.alerts.Evaluate(ctx); err != nil {
					t.Error(err)
					return
				}
			}
		}
	}()

	eventually(t, func() bool { return alerts.evaluateCalls > 0 })
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

type stubMarketService struct {
	refreshCalls int
}

func (s *stubMarketService) RefreshMarket(context.Context) error {
	s.refreshCalls++
	return nil
}

type stubAlertService struct {
	triggered     []domain.Alert
	evaluateCalls int
}

func (s *stubAlertService) Evaluate(context.Context) ([]domain.Alert, error) {
	s.evaluateCalls++
	return s.triggered, nil
}
