package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrSignalPending       = errors.New("a signal is already pending")
	ErrNoPendingSignal     = errors.New("no pending signal")
	ErrPositionOpen        = errors.New("a position is already open")
	ErrNoOpenPosition      = errors.New("no open position")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Store is the persistence collaborator the engine mirrors its state
// into. Writes are best-effort; reads must tolerate missing records
// and return defaults.
type Store interface {
	SaveBotConfig(ctx context.Context, cfg domain.BotConfig) error
	GetBotConfig(ctx context.Context) (domain.BotConfig, error)
	AppendLog(ctx context.Context, entry domain.BotLog) error
	RecentLogs(ctx context.Context, limit int) ([]domain.BotLog, error)
	SaveOpenTrade(ctx context.Context, pos *domain.ActivePosition) error
	GetOpenTrade(ctx context.Context) (*domain.ActivePosition, error)
	DeleteOpenTrade(ctx context.Context) error
}

// Ledger receives realized trades for durable history. Optional.
type Ledger interface {
	RecordClosedTrade(ctx context.Context, pos domain.ActivePosition, closedAt time.Time) error
}

// Notifier pushes signal and reminder notifications to the operator.
// Optional.
type Notifier interface {
	Notify(level domain.LogLevel, message string)
}

// StrategyMetric is a display-only confidence meter for one scan
// strategy. Confidence values are cosmetic jitter, not analysis.
type StrategyMetric struct {
	Name        string  `json:"name"`
	Active      bool    `json:"active"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Status is an immutable snapshot of the engine for handlers and the
// terminal UI.
type Status struct {
	Phase       domain.BotPhase           `json:"phase"`
	Config      domain.BotConfig          `json:"config"`
	Balance     float64                   `json:"balance"`
	LatencyMs   float64                   `json:"latency_ms"`
	Pending     *domain.TradeSignal       `json:"pending_signal,omitempty"`
	Position    *domain.ActivePosition    `json:"active_position,omitempty"`
	Performance domain.PerformanceMetrics `json:"performance"`
	Strategies  []StrategyMetric          `json:"strategies"`
}

// Engine is the simulated trading bot: a state machine over
// IDLE -> SCANNING -> ANALYZING -> EXECUTING driven by ticker loops.
// All trading is simulated; nothing here can fail against an
// exchange. At most one pending signal and one open position exist
// at any time.
type Engine struct {
	tracer   trace.Tracer
	store    Store
	ledger   Ledger
	notifier Notifier
	tun      Tunables

	mu          sync.Mutex
	rng         *rand.Rand
	now         func() time.Time
	baseCtx     context.Context
	cfg         domain.BotConfig
	phase       domain.BotPhase
	balance     float64
	pending     *domain.TradeSignal
	position    *domain.ActivePosition
	perf        domain.PerformanceMetrics
	grossProfit float64
	grossLoss   float64
	logs        []domain.BotLog
	strategies  []StrategyMetric
	latencyMs   float64
	analyzeAt   time.Time // signal generation due, zero when none
	autoExecAt  time.Time // auto-execute due, zero when none

	stopScan     context.CancelFunc
	stopPosition context.CancelFunc
}

func NewEngine(tracer trace.Tracer, store Store, ledger Ledger, notifier Notifier, tun Tunables) *Engine {
	if tun.ScanInterval <= 0 {
		tun = DefaultTunables()
	}
	return &Engine{
		tracer:    tracer,
		store:     store,
		ledger:    ledger,
		notifier:  notifier,
		tun:       tun,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
		baseCtx:   context.Background(),
		cfg:       domain.DefaultBotConfig(),
		phase:     domain.PhaseIdle,
		balance:   tun.StartingBalance,
		latencyMs: 12,
		strategies: []StrategyMetric{
			{Name: "8-Week SMA", Active: true, Description: "Primary trend"},
			{Name: "Stock-to-Flow", Active: true, Description: "Scarcity model"},
			{Name: "Fibonacci", Active: false, Description: "Retracements"},
			{Name: "Order Flow", Active: true, Description: "Buy pressure"},
		},
	}
}

// Start loads persisted state and, if the persisted config says the
// bot was active, resumes scanning. ctx becomes the lifetime of all
// background loops.
func (e *Engine) Start(ctx context.Context) {
	_, span := e.tracer.Start(ctx, "bot-engine.start")
	defer span.End()

	e.mu.Lock()
	e.baseCtx = ctx

	if e.store != nil {
		cfg, err := e.store.GetBotConfig(ctx)
		if err != nil {
			log.Printf("bot: config restore failed, using defaults: %v", err)
		} else {
			e.cfg = cfg
		}

		logs, err := e.store.RecentLogs(ctx, e.tun.LogBuffer)
		if err != nil {
			log.Printf("bot: log restore failed: %v", err)
		} else {
			e.logs = logs
		}

		pos, err := e.store.GetOpenTrade(ctx)
		if err != nil {
			log.Printf("bot: open trade restore failed: %v", err)
		} else if pos != nil {
			e.position = pos
			e.phase = domain.PhaseExecuting
			e.startPositionLoopLocked()
		}
	}
	e.syncStrategyFlagsLocked()
	active := e.cfg.Active
	e.mu.Unlock()

	if active {
		e.Activate(ctx)
	}
}

// Activate turns the bot on and starts the scan/cosmetic loop. A
// no-op if already active.
func (e *Engine) Activate(ctx context.Context) {
	_, span := e.tracer.Start(ctx, "bot-engine.activate")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopScan != nil {
		return
	}
	e.cfg.Active = true
	if e.position != nil {
		e.phase = domain.PhaseExecuting
	} else {
		e.phase = domain.PhaseScanning
	}
	e.appendLogLocked(ctx, domain.LogInfo, "Engine started. Connected to internal datastore.", "")

	loopCtx, cancel := context.WithCancel(e.baseCtx)
	e.stopScan = cancel
	go e.scanLoop(loopCtx)

	e.persistConfigLocked(ctx)
}

// Deactivate stops scheduling scan and cosmetic ticks immediately.
// It never closes an open position; closing is always an explicit
// separate action, and the P&L loop keeps running while the position
// is open.
func (e *Engine) Deactivate(ctx context.Context) {
	_, span := e.tracer.Start(ctx, "bot-engine.deactivate")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopScan != nil {
		e.stopScan()
		e.stopScan = nil
	}
	e.cfg.Active = false
	e.pending = nil
	e.analyzeAt = time.Time{}
	e.autoExecAt = time.Time{}
	if e.position != nil {
		e.phase = domain.PhaseExecuting
	} else {
		e.phase = domain.PhaseIdle
	}
	e.appendLogLocked(ctx, domain.LogInfo, "Engine paused by operator.", "")
	e.persistConfigLocked(ctx)
}

func (e *Engine) scanLoop(ctx context.Context) {
	scan := time.NewTicker(e.tun.ScanInterval)
	defer scan.Stop()
	cosmetic := time.NewTicker(e.tun.CosmeticInterval)
	defer cosmetic.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cosmetic.C:
			e.cosmeticTick()
		case <-scan.C:
			e.scanTick(ctx)
		}
	}
}

// cosmeticTick jitters display-only numbers: network latency and the
// per-strategy confidence meters. Nothing downstream reads these.
func (e *Engine) cosmeticTick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.latencyMs = clamp(e.latencyMs+e.rng.Float64()*6-3, 8, 35)
	for i := range e.strategies {
		if !e.strategies[i].Active {
			e.strategies[i].Confidence = 0
			continue
		}
		e.strategies[i].Confidence = clamp(e.strategies[i].Confidence+e.rng.Float64()*30-15, 15, 99)
	}
}

// scanTick is one step of the logic loop. With a position open the
// position loop owns the work; with a signal pending it handles
// auto-execute deadlines and reminders; otherwise it scans for an
// opportunity.
func (e *Engine) scanTick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	if e.position != nil {
		return
	}

	if e.pending != nil {
		if !e.autoExecAt.IsZero() && !now.Before(e.autoExecAt) {
			if err := e.authorizeLocked(ctx, e.cfg.MaxAllocationPerTrade); err != nil {
				e.appendLogLocked(ctx, domain.LogError, "Auto-execution failed: "+err.Error(), e.pending.Asset)
			}
			return
		}
		if e.autoExecAt.IsZero() && e.rng.Float64() < e.tun.ReminderChance {
			e.notify(domain.LogSignal, fmt.Sprintf("Awaiting authorization for %s %s", e.pending.Direction, e.pending.Asset))
		}
		return
	}

	if e.phase == domain.PhaseAnalyzing {
		if !e.analyzeAt.IsZero() && !now.Before(e.analyzeAt) {
			e.analyzeAt = time.Time{}
			e.generateSignalLocked(ctx)
		}
		return
	}

	if e.rng.Float64() > e.tun.OpportunityThreshold {
		e.phase = domain.PhaseAnalyzing
		e.analyzeAt = now.Add(e.tun.AnalyzeDelay)
		return
	}

	e.phase = domain.PhaseScanning
	e.emitScanLogLocked(ctx)
}

func (e *Engine) emitScanLogLocked(ctx context.Context) {
	type scanLine struct {
		level domain.LogLevel
		msg   string
	}
	lines := []scanLine{
		{domain.LogInfo, fmt.Sprintf("Block sweep complete. Latency: %dms", int(e.latencyMs))},
		{domain.LogInfo, "Order flow: positive volume delta. Institutional pressure detected."},
		{domain.LogWarning, "Volatility rising. Recalculating position size..."},
	}
	if e.cfg.Strategies.SMA8w {
		lines = append(lines, scanLine{domain.LogInfo, "8-week SMA: validating primary trend on BTC/ETH..."})
	}
	if e.cfg.Strategies.S2F {
		lines = append(lines, scanLine{domain.LogInfo, "S2F model: current deviation -0.4. Asset undervalued."})
	}
	if e.cfg.Strategies.Fibbo {
		lines = append(lines, scanLine{domain.LogInfo, "Fibonacci: price testing the 0.618 retracement (golden pocket)."})
	}
	if e.cfg.Strategies.DCA {
		lines = append(lines, scanLine{domain.LogInfo, "DCA ladder: next accumulation tranche armed."})
	}

	pick := lines[e.rng.Intn(len(lines))]
	e.appendLogLocked(ctx, pick.level, pick.msg, "")
}

// generateSignalLocked manufactures a trade signal. Insufficient
// balance is a recoverable condition: it is logged as a warning and
// the engine keeps scanning.
func (e *Engine) generateSignalLocked(ctx context.Context) {
	asset := domain.BotAssets[0]
	if e.rng.Float64() <= 0.4 {
		asset = domain.BotAssets[1]
	}
	direction := domain.DirectionLong
	if e.rng.Float64() > 0.5 {
		direction = domain.DirectionShort
	}
	entry := domain.ReferencePrice[asset]

	if e.balance < e.cfg.MaxAllocationPerTrade {
		e.appendLogLocked(ctx, domain.LogWarning,
			fmt.Sprintf("EXECUTION BLOCKED: insufficient balance ($%.2f).", e.balance), asset)
		e.phase = domain.PhaseScanning
		return
	}

	stop := entry * (1 - direction.Sign()*e.tun.StopLossPct)
	target := entry * (1 + direction.Sign()*e.tun.TakeProfitPct)

	signal := &domain.TradeSignal{
		ID:         uuid.NewString(),
		Asset:      asset,
		Direction:  direction,
		Leverage:   e.cfg.Leverage,
		EntryPrice: entry,
		StopLoss:   stop,
		TakeProfit: target,
		Confidence: e.tun.ConfidenceFloor + e.rng.Intn(e.tun.ConfidenceSpread),
		Reason:     "Confluence: 8-week SMA breakout + bullish divergence",
		CreatedAt:  e.now(),
	}

	e.pending = signal
	e.phase = domain.PhaseAnalyzing
	e.appendLogLocked(ctx, domain.LogSignal,
		fmt.Sprintf("TARGET ACQUIRED: %s %s. Confidence: %d%%.", direction, asset, signal.Confidence), asset)
	e.notify(domain.LogSignal, fmt.Sprintf("%s %s detected, confidence %d%%", direction, asset, signal.Confidence))

	if e.cfg.AutoExecute {
		e.autoExecAt = e.now().Add(e.tun.AutoExecuteDelay)
		e.appendLogLocked(ctx, domain.LogInfo, "Auto-execution armed. Order placement pending...", asset)
	}
}

// Authorize converts the pending signal into an open position using
// the configured max allocation as margin.
func (e *Engine) Authorize(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authorizeLocked(ctx, e.cfg.MaxAllocationPerTrade)
}

// AuthorizeWithMargin is manual mode: the operator picks the margin.
func (e *Engine) AuthorizeWithMargin(ctx context.Context, margin float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.authorizeLocked(ctx, margin)
}

func (e *Engine) authorizeLocked(ctx context.Context, margin float64) error {
	_, span := e.tracer.Start(ctx, "bot-engine.authorize")
	defer span.End()

	if e.pending == nil {
		return ErrNoPendingSignal
	}
	if e.position != nil {
		return ErrPositionOpen
	}
	if margin <= 0 || margin > e.balance {
		return ErrInsufficientBalance
	}

	sig := e.pending
	e.balance -= margin

	pos := &domain.ActivePosition{
		ID:               sig.ID,
		Asset:            sig.Asset,
		Direction:        sig.Direction,
		Leverage:         sig.Leverage,
		EntryPrice:       sig.EntryPrice,
		CurrentPrice:     sig.EntryPrice,
		Margin:           margin,
		LiquidationPrice: domain.LiquidationPrice(sig.EntryPrice, sig.Leverage, sig.Direction),
		StopLoss:         sig.StopLoss,
		TakeProfit:       sig.TakeProfit,
		OpenedAt:         e.now(),
	}

	e.position = pos
	e.pending = nil
	e.autoExecAt = time.Time{}
	e.phase = domain.PhaseExecuting

	e.appendLogLocked(ctx, domain.LogSuccess,
		fmt.Sprintf("ORDER FILLED: %s %s @ %.2f", pos.Direction, pos.Asset, pos.EntryPrice), pos.Asset)

	if e.store != nil {
		if err := e.store.SaveOpenTrade(ctx, pos); err != nil {
			log.Printf("bot: open trade persist failed: %v", err)
		}
	}

	e.startPositionLoopLocked()
	return nil
}

// Reject discards the pending signal and resumes scanning.
func (e *Engine) Reject(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pending == nil {
		return ErrNoPendingSignal
	}
	asset := e.pending.Asset
	e.pending = nil
	e.autoExecAt = time.Time{}
	if e.cfg.Active {
		e.phase = domain.PhaseScanning
	} else {
		e.phase = domain.PhaseIdle
	}
	e.appendLogLocked(ctx, domain.LogWarning, "Signal rejected by operator.", asset)
	return nil
}

func (e *Engine) startPositionLoopLocked() {
	loopCtx, cancel := context.WithCancel(e.baseCtx)
	e.stopPosition = cancel
	go e.positionLoop(loopCtx)
}

func (e *Engine) positionLoop(ctx context.Context) {
	ticker := time.NewTicker(e.tun.PositionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.positionTick(ctx)
		}
	}
}

// positionTick advances the position's price with a randomized
// multiplicative move and recomputes unrealized P&L. The position is
// never closed here: no SL/TP/liquidation auto-close in this design.
func (e *Engine) positionTick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.position == nil {
		return
	}

	vol := domain.TickVolatility[e.position.Asset]
	if vol == 0 {
		vol = 0.001
	}
	change := e.rng.Float64()*vol*4 - vol*1.5
	e.position.MarkPrice(e.position.CurrentPrice * (1 + change))

	if e.store != nil {
		if err := e.store.SaveOpenTrade(ctx, e.position); err != nil {
			log.Printf("bot: position persist failed: %v", err)
		}
	}
}

// ClosePosition realizes the open position: margin plus P&L is
// credited back to the balance pool, the performance ledger is
// updated exactly once, and the trade is moved to the durable
// history.
func (e *Engine) ClosePosition(ctx context.Context) error {
	_, span := e.tracer.Start(ctx, "bot-engine.close-position")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.position == nil {
		return ErrNoOpenPosition
	}
	if e.stopPosition != nil {
		e.stopPosition()
		e.stopPosition = nil
	}

	pos := *e.position
	e.position = nil

	final := pos.Margin + pos.PnlUSD
	e.balance += final
	e.perf.RecordClose(pos.PnlUSD)
	if pos.PnlUSD >= 0 {
		e.grossProfit += pos.PnlUSD
	} else {
		e.grossLoss -= pos.PnlUSD
	}
	if e.grossLoss > 0 {
		e.perf.ProfitFactor = e.grossProfit / e.grossLoss
	} else {
		e.perf.ProfitFactor = e.grossProfit
	}

	level := domain.LogSuccess
	if pos.PnlUSD < 0 {
		level = domain.LogWarning
	}
	e.appendLogLocked(ctx, level,
		fmt.Sprintf("POSITION CLOSED. Returned: $%.2f (P&L: %+.2f)", final, pos.PnlUSD), pos.Asset)

	if e.store != nil {
		if err := e.store.DeleteOpenTrade(ctx); err != nil {
			log.Printf("bot: open trade delete failed: %v", err)
		}
	}
	if e.ledger != nil {
		if err := e.ledger.RecordClosedTrade(ctx, pos, e.now()); err != nil {
			log.Printf("bot: trade ledger write failed: %v", err)
		}
	}

	if e.cfg.Active {
		e.phase = domain.PhaseScanning
	} else {
		e.phase = domain.PhaseIdle
	}
	return nil
}

// SetRiskProfile applies a named preset, overwriting leverage and max
// allocation atomically.
func (e *Engine) SetRiskProfile(ctx context.Context, profile domain.RiskProfile) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !profile.Apply(&e.cfg) {
		return fmt.Errorf("unknown risk profile: %s", profile)
	}
	level := domain.LogInfo
	if profile == domain.ProfileAggressive {
		level = domain.LogWarning
	}
	e.appendLogLocked(ctx, level,
		fmt.Sprintf("Risk profile set: %s (%dx, $%.0f per trade)", profile, e.cfg.Leverage, e.cfg.MaxAllocationPerTrade), "")
	e.persistConfigLocked(ctx)
	return nil
}

// UpdateConfig replaces the tunable parts of the config. The active
// flag is handled through Activate/Deactivate so loop lifetimes stay
// consistent.
func (e *Engine) UpdateConfig(ctx context.Context, cfg domain.BotConfig) {
	e.mu.Lock()
	wasActive := e.cfg.Active
	cfg.Active = wasActive
	e.cfg = cfg
	e.syncStrategyFlagsLocked()
	e.persistConfigLocked(ctx)
	e.mu.Unlock()
}

func (e *Engine) syncStrategyFlagsLocked() {
	for i := range e.strategies {
		switch e.strategies[i].Name {
		case "8-Week SMA":
			e.strategies[i].Active = e.cfg.Strategies.SMA8w
		case "Stock-to-Flow":
			e.strategies[i].Active = e.cfg.Strategies.S2F
		case "Fibonacci":
			e.strategies[i].Active = e.cfg.Strategies.Fibbo
		}
	}
}

// Snapshot returns a deep copy of the engine state for rendering.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Phase:       e.phase,
		Config:      e.cfg,
		Balance:     e.balance,
		LatencyMs:   e.latencyMs,
		Performance: e.perf,
		Strategies:  append([]StrategyMetric(nil), e.strategies...),
	}
	if e.pending != nil {
		sig := *e.pending
		st.Pending = &sig
	}
	if e.position != nil {
		pos := *e.position
		st.Position = &pos
	}
	return st
}

// Logs returns the live log buffer, newest last.
func (e *Engine) Logs() []domain.BotLog {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.BotLog(nil), e.logs...)
}

func (e *Engine) appendLogLocked(ctx context.Context, level domain.LogLevel, message, asset string) {
	entry := domain.BotLog{
		ID:        uuid.NewString(),
		Timestamp: e.now().Format("15:04:05.000"),
		Level:     level,
		Message:   message,
		Asset:     asset,
	}
	e.logs = append(e.logs, entry)
	if len(e.logs) > e.tun.LogBuffer {
		e.logs = e.logs[len(e.logs)-e.tun.LogBuffer:]
	}
	if e.store != nil {
		if err := e.store.AppendLog(ctx, entry); err != nil {
			log.Printf("bot: log persist failed: %v", err)
		}
	}
}

func (e *Engine) persistConfigLocked(ctx context.Context) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveBotConfig(ctx, e.cfg); err != nil {
		log.Printf("bot: config persist failed: %v", err)
	}
}

func (e *Engine) notify(level domain.LogLevel, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(level, message)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
