package domain

import (
	"math"
	"testing"
)

func TestLiquidationPrice(t *testing.T) {
	t.Parallel()

	long := LiquidationPrice(100, 10, DirectionLong)
	if math.Abs(long-90) > 1e-9 {
		t.Fatalf("long liquidation: expected 90, got %f", long)
	}

	short := LiquidationPrice(100, 10, DirectionShort)
	if math.Abs(short-110) > 1e-9 {
		t.Fatalf("short liquidation: expected 110, got %f", short)
	}

	// Leverage below 1 is clamped, not divided by zero.
	clamped := LiquidationPrice(100, 0, DirectionLong)
	if math.Abs(clamped-0) > 1e-9 {
		t.Fatalf("1x long liquidation: expected 0, got %f", clamped)
	}
}

func TestMarkPriceLong(t *testing.T) {
	t.Parallel()

	p := &ActivePosition{
		Direction:  DirectionLong,
		Leverage:   10,
		EntryPrice: 100,
		Margin:     1000,
	}
	p.MarkPrice(105)

	if math.Abs(p.PnlPct-50) > 1e-9 {
		t.Fatalf("expected pnl 50%%, got %f", p.PnlPct)
	}
	if math.Abs(p.PnlUSD-500) > 1e-9 {
		t.Fatalf("expected pnl $500, got %f", p.PnlUSD)
	}
}

func TestMarkPriceShort(t *testing.T) {
	t.Parallel()

	p := &ActivePosition{
		Direction:  DirectionShort,
		Leverage:   5,
		EntryPrice: 200,
		Margin:     400,
	}
	p.MarkPrice(190)

	if math.Abs(p.PnlPct-25) > 1e-9 {
		t.Fatalf("expected pnl 25%%, got %f", p.PnlPct)
	}
	if math.Abs(p.PnlUSD-100) > 1e-9 {
		t.Fatalf("expected pnl $100, got %f", p.PnlUSD)
	}
}

func TestPerformanceRecordClose(t *testing.T) {
	t.Parallel()

	var m PerformanceMetrics
	m.RecordClose(100)
	m.RecordClose(-50)

	if m.TotalTrades != 2 {
		t.Fatalf("expected 2 trades, got %d", m.TotalTrades)
	}
	if math.Abs(m.NetPnl-50) > 1e-9 {
		t.Fatalf("expected net pnl 50, got %f", m.NetPnl)
	}
	if math.Abs(m.WinRatePct-50) > 1e-9 {
		t.Fatalf("expected win rate 50%%, got %f", m.WinRatePct)
	}
}

func TestPerformanceWinRateBounds(t *testing.T) {
	t.Parallel()

	var m PerformanceMetrics
	for i := 0; i < 200; i++ {
		pnl := 10.0
		if i%3 == 0 {
			pnl = -10
		}
		m.RecordClose(pnl)
		if m.WinRatePct < 0 || m.WinRatePct > 100 {
			t.Fatalf("win rate escaped [0,100]: %f after %d trades", m.WinRatePct, m.TotalTrades)
		}
	}
}

func TestRiskProfileApply(t *testing.T) {
	t.Parallel()

	cfg := DefaultBotConfig()
	if !ProfileAggressive.Apply(&cfg) {
		t.Fatal("expected aggressive profile to apply")
	}
	if cfg.Leverage != 50 || cfg.MaxAllocationPerTrade != 5000 {
		t.Fatalf("aggressive preset mismatch: %+v", cfg)
	}

	if RiskProfile("YOLO").Apply(&cfg) {
		t.Fatal("unknown profile must not apply")
	}
	if cfg.Leverage != 50 {
		t.Fatal("unknown profile must not mutate config")
	}
}
