package bot

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"nexus-terminal/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeStore struct {
	mu        sync.Mutex
	cfg       *domain.BotConfig
	logs      []domain.BotLog
	openTrade *domain.ActivePosition
	deletes   int
}

func (s *fakeStore) SaveBotConfig(_ context.Context, cfg domain.BotConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = &cfg
	return nil
}

func (s *fakeStore) GetBotConfig(context.Context) (domain.BotConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg == nil {
		return domain.DefaultBotConfig(), nil
	}
	return *s.cfg, nil
}

func (s *fakeStore) AppendLog(_ context.Context, entry domain.BotLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, entry)
	return nil
}

func (s *fakeStore) RecentLogs(context.Context, int) ([]domain.BotLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.BotLog(nil), s.logs...), nil
}

func (s *fakeStore) SaveOpenTrade(_ context.Context, pos *domain.ActivePosition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *pos
	s.openTrade = &clone
	return nil
}

func (s *fakeStore) GetOpenTrade(context.Context) (*domain.ActivePosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openTrade == nil {
		return nil, nil
	}
	clone := *s.openTrade
	return &clone, nil
}

func (s *fakeStore) DeleteOpenTrade(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openTrade = nil
	s.deletes++
	return nil
}

type fakeLedger struct {
	mu     sync.Mutex
	closed []domain.ActivePosition
}

func (l *fakeLedger) RecordClosedTrade(_ context.Context, pos domain.ActivePosition, _ time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = append(l.closed, pos)
	return nil
}

// newTestEngine returns an engine with a frozen clock and seeded
// randomness so ticks can be driven synchronously.
func newTestEngine(tun Tunables, store Store, ledger Ledger) *Engine {
	e := NewEngine(testTracer, store, ledger, nil, tun)
	e.rng = rand.New(rand.NewSource(1))
	e.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func (e *Engine) forceSignal(t *testing.T) *domain.TradeSignal {
	t.Helper()
	e.mu.Lock()
	e.phase = domain.PhaseScanning
	e.generateSignalLocked(context.Background())
	sig := e.pending
	e.mu.Unlock()
	if sig == nil {
		t.Fatal("expected a pending signal")
	}
	return sig
}

func TestScanTickEmitsLogBelowThreshold(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	tun.OpportunityThreshold = 1.1 // never crosses
	e := newTestEngine(tun, &fakeStore{}, nil)
	e.mu.Lock()
	e.phase = domain.PhaseScanning
	e.mu.Unlock()

	e.scanTick(context.Background())

	st := e.Snapshot()
	if st.Phase != domain.PhaseScanning {
		t.Fatalf("expected SCANNING, got %s", st.Phase)
	}
	if len(e.Logs()) != 1 {
		t.Fatalf("expected one scan log line, got %d", len(e.Logs()))
	}
	if st.Pending != nil {
		t.Fatal("no signal expected below threshold")
	}
}

func TestScanTickOpportunityFlow(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	tun.OpportunityThreshold = -1 // always crosses
	tun.AnalyzeDelay = 0
	e := newTestEngine(tun, &fakeStore{}, nil)
	e.mu.Lock()
	e.phase = domain.PhaseScanning
	e.mu.Unlock()

	e.scanTick(context.Background()) // opportunity -> ANALYZING
	if st := e.Snapshot(); st.Phase != domain.PhaseAnalyzing || st.Pending != nil {
		t.Fatalf("expected ANALYZING without pending, got %+v", st)
	}

	e.scanTick(context.Background()) // deadline due -> signal generated
	st := e.Snapshot()
	if st.Pending == nil {
		t.Fatal("expected a generated signal")
	}
	if st.Pending.Confidence < tun.ConfidenceFloor ||
		st.Pending.Confidence >= tun.ConfidenceFloor+tun.ConfidenceSpread {
		t.Fatalf("confidence outside the tuned band: %d", st.Pending.Confidence)
	}
	if st.Pending.Leverage != st.Config.Leverage {
		t.Fatalf("signal leverage %d != config leverage %d", st.Pending.Leverage, st.Config.Leverage)
	}
}

func TestSignalSingleFlight(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	tun.OpportunityThreshold = -1
	tun.AnalyzeDelay = 0
	tun.ReminderChance = 0
	e := newTestEngine(tun, &fakeStore{}, nil)
	first := e.forceSignal(t)

	// Further ticks must not replace the pending signal.
	e.scanTick(context.Background())
	e.scanTick(context.Background())

	st := e.Snapshot()
	if st.Pending == nil || st.Pending.ID != first.ID {
		t.Fatal("pending signal was replaced")
	}
}

func TestGenerateSignalInsufficientBalance(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	tun.StartingBalance = 400
	e := newTestEngine(tun, &fakeStore{}, nil)
	e.mu.Lock()
	e.cfg.MaxAllocationPerTrade = 500
	e.phase = domain.PhaseScanning
	e.generateSignalLocked(context.Background())
	e.mu.Unlock()

	st := e.Snapshot()
	if st.Pending != nil {
		t.Fatal("signal must be rejected on insufficient balance")
	}
	if st.Phase != domain.PhaseScanning {
		t.Fatalf("expected SCANNING after rejection, got %s", st.Phase)
	}
	logs := e.Logs()
	if len(logs) != 1 || logs[0].Level != domain.LogWarning {
		t.Fatalf("expected a single WARNING log, got %+v", logs)
	}
}

func TestAuthorizeOpensPosition(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	e := newTestEngine(DefaultTunables(), store, nil)
	sig := e.forceSignal(t)

	if err := e.Authorize(context.Background()); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	st := e.Snapshot()
	if st.Position == nil {
		t.Fatal("expected an open position")
	}
	if st.Phase != domain.PhaseExecuting {
		t.Fatalf("expected EXECUTING, got %s", st.Phase)
	}
	if st.Pending != nil {
		t.Fatal("pending signal must be consumed")
	}

	wantLiq := domain.LiquidationPrice(sig.EntryPrice, sig.Leverage, sig.Direction)
	if math.Abs(st.Position.LiquidationPrice-wantLiq) > 1e-9 {
		t.Fatalf("liquidation price: want %f, got %f", wantLiq, st.Position.LiquidationPrice)
	}
	wantBalance := DefaultTunables().StartingBalance - st.Position.Margin
	if math.Abs(st.Balance-wantBalance) > 1e-9 {
		t.Fatalf("margin not debited: balance %f", st.Balance)
	}
	if store.openTrade == nil {
		t.Fatal("open trade not persisted")
	}

	if err := e.Authorize(context.Background()); err != ErrNoPendingSignal {
		t.Fatalf("expected ErrNoPendingSignal, got %v", err)
	}
	_ = e.ClosePosition(context.Background())
}

func TestPositionTickPnlFormula(t *testing.T) {
	t.Parallel()

	e := newTestEngine(DefaultTunables(), &fakeStore{}, nil)
	e.forceSignal(t)
	if err := e.Authorize(context.Background()); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	for i := 0; i < 25; i++ {
		e.positionTick(context.Background())

		st := e.Snapshot()
		p := st.Position
		want := float64(p.Leverage) * p.Direction.Sign() *
			(p.CurrentPrice - p.EntryPrice) / p.EntryPrice * 100
		if math.Abs(p.PnlPct-want) > 1e-9 {
			t.Fatalf("tick %d: pnl%% %f, recomputed %f", i, p.PnlPct, want)
		}
		wantUSD := p.Margin * p.PnlPct / 100
		if math.Abs(p.PnlUSD-wantUSD) > 1e-9 {
			t.Fatalf("tick %d: pnlUSD %f, recomputed %f", i, p.PnlUSD, wantUSD)
		}
	}
	_ = e.ClosePosition(context.Background())
}

func TestClosePositionSettlesLedger(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	ledger := &fakeLedger{}
	e := newTestEngine(DefaultTunables(), store, ledger)
	e.forceSignal(t)
	if err := e.Authorize(context.Background()); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	// Push the position to a known P&L.
	e.mu.Lock()
	e.position.MarkPrice(e.position.EntryPrice * 1.01)
	margin := e.position.Margin
	pnl := e.position.PnlUSD
	balanceBefore := e.balance
	e.mu.Unlock()

	if err := e.ClosePosition(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	st := e.Snapshot()
	if st.Position != nil {
		t.Fatal("position must be gone after close")
	}
	wantBalance := balanceBefore + margin + pnl
	if math.Abs(st.Balance-wantBalance) > 1e-9 {
		t.Fatalf("balance: want %f, got %f", wantBalance, st.Balance)
	}
	if st.Performance.TotalTrades != 1 {
		t.Fatalf("expected 1 recorded trade, got %d", st.Performance.TotalTrades)
	}
	if math.Abs(st.Performance.NetPnl-pnl) > 1e-9 {
		t.Fatalf("net pnl: want %f, got %f", pnl, st.Performance.NetPnl)
	}
	if store.deletes != 1 {
		t.Fatalf("open trade record not deleted, deletes=%d", store.deletes)
	}
	if len(ledger.closed) != 1 {
		t.Fatalf("closed trade not written to ledger")
	}

	if err := e.ClosePosition(context.Background()); err != ErrNoOpenPosition {
		t.Fatalf("expected ErrNoOpenPosition, got %v", err)
	}
}

func TestAutoExecuteAuthorizesAfterDelay(t *testing.T) {
	t.Parallel()

	tun := DefaultTunables()
	tun.AutoExecuteDelay = 0
	e := newTestEngine(tun, &fakeStore{}, nil)
	e.mu.Lock()
	e.cfg.AutoExecute = true
	e.phase = domain.PhaseScanning
	e.generateSignalLocked(context.Background())
	e.mu.Unlock()

	e.scanTick(context.Background())

	st := e.Snapshot()
	if st.Position == nil {
		t.Fatal("auto-execute should have opened the position")
	}
	_ = e.ClosePosition(context.Background())
}

func TestRejectDiscardsSignal(t *testing.T) {
	t.Parallel()

	e := newTestEngine(DefaultTunables(), &fakeStore{}, nil)
	e.forceSignal(t)

	if err := e.Reject(context.Background()); err != nil {
		t.Fatalf("reject: %v", err)
	}
	st := e.Snapshot()
	if st.Pending != nil {
		t.Fatal("signal must be discarded")
	}
	if st.Phase != domain.PhaseIdle {
		t.Fatalf("inactive engine returns to IDLE, got %s", st.Phase)
	}
	if err := e.Reject(context.Background()); err != ErrNoPendingSignal {
		t.Fatalf("expected ErrNoPendingSignal, got %v", err)
	}
}

func TestDeactivateKeepsPositionOpen(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newTestEngine(DefaultTunables(), &fakeStore{}, nil)
	e.Start(ctx)
	e.Activate(ctx)
	e.forceSignal(t)
	if err := e.Authorize(ctx); err != nil {
		t.Fatalf("authorize: %v", err)
	}

	e.Deactivate(ctx)

	st := e.Snapshot()
	if st.Config.Active {
		t.Fatal("config must be inactive")
	}
	if st.Position == nil {
		t.Fatal("deactivation must not close the position")
	}
	if st.Phase != domain.PhaseExecuting {
		t.Fatalf("open position keeps phase EXECUTING, got %s", st.Phase)
	}
	_ = e.ClosePosition(ctx)
	if st := e.Snapshot(); st.Phase == domain.PhaseScanning {
		t.Fatal("inactive engine must not resume scanning after close")
	}
}

func TestStartRestoresPersistedState(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := domain.DefaultBotConfig()
	cfg.Leverage = 25
	open := &domain.ActivePosition{
		ID: "t-1", Asset: "BTC", Direction: domain.DirectionLong,
		Leverage: 10, EntryPrice: 100, CurrentPrice: 100, Margin: 500,
		LiquidationPrice: 90,
	}
	store := &fakeStore{cfg: &cfg, openTrade: open}

	e := newTestEngine(DefaultTunables(), store, nil)
	e.Start(ctx)

	st := e.Snapshot()
	if st.Config.Leverage != 25 {
		t.Fatalf("config not restored: %+v", st.Config)
	}
	if st.Position == nil || st.Position.ID != "t-1" {
		t.Fatal("open position not restored")
	}
	if st.Phase != domain.PhaseExecuting {
		t.Fatalf("restored open position implies EXECUTING, got %s", st.Phase)
	}
	_ = e.ClosePosition(ctx)
}
