package repository

import (
	"context"
	"time"

	"nexus-terminal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

const createTradesTable = `
CREATE TABLE IF NOT EXISTS trades (
    id           TEXT        PRIMARY KEY,
    asset        TEXT        NOT NULL,
    direction    TEXT        NOT NULL,
    leverage     INT         NOT NULL,
    entry_price  NUMERIC     NOT NULL,
    exit_price   NUMERIC     NOT NULL,
    margin       NUMERIC     NOT NULL,
    pnl_usd      NUMERIC     NOT NULL,
    pnl_pct      NUMERIC     NOT NULL,
    opened_at    TIMESTAMPTZ NOT NULL,
    closed_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_closed_at
    ON trades (closed_at DESC);
`

// ClosedTrade is one settled row of the trade history ledger.
type ClosedTrade struct {
	ID         string           `json:"id"`
	Asset      string           `json:"asset"`
	Direction  domain.Direction `json:"direction"`
	Leverage   int              `json:"leverage"`
	EntryPrice float64          `json:"entry_price"`
	ExitPrice  float64          `json:"exit_price"`
	Margin     float64          `json:"margin"`
	PnlUSD     float64          `json:"pnl_usd"`
	PnlPct     float64          `json:"pnl_pct"`
	OpenedAt   time.Time        `json:"opened_at"`
	ClosedAt   time.Time        `json:"closed_at"`
}

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// TradeRepository is the append-only durable ledger of closed
// positions. Live state (open trade, config, logs) lives in the KV
// store; only realized trades land here.
type TradeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewTradeRepository(pool PgxPool, tracer trace.Tracer) *TradeRepository {
	return &TradeRepository{pool: pool, tracer: tracer}
}

func (r *TradeRepository) RunMigrations(ctx context.Context) error {
	_, span := r.tracer.Start(ctx, "trade-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createTradesTable)
	return err
}

// RecordClosedTrade writes one settled position. The position's
// CurrentPrice at close time is the exit price.
func (r *TradeRepository) RecordClosedTrade(ctx context.Context, pos domain.ActivePosition, closedAt time.Time) error {
	_, span := r.tracer.Start(ctx, "trade-repo.record-closed-trade")
	defer span.End()

	_, err := r.pool.Exec(ctx,
		`INSERT INTO trades (id, asset, direction, leverage, entry_price, exit_price, margin, pnl_usd, pnl_pct, opened_at, closed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (id) DO NOTHING`,
		pos.ID, pos.Asset, string(pos.Direction), pos.Leverage,
		pos.EntryPrice, pos.CurrentPrice, pos.Margin, pos.PnlUSD, pos.PnlPct,
		pos.OpenedAt, closedAt,
	)
	return err
}

// ListTrades returns the most recent closed trades, newest first.
func (r *TradeRepository) ListTrades(ctx context.Context, limit int) ([]*ClosedTrade, error) {
	_, span := r.tracer.Start(ctx, "trade-repo.list-trades")
	defer span.End()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, asset, direction, leverage, entry_price, exit_price, margin, pnl_usd, pnl_pct, opened_at, closed_at
		 FROM trades
		 ORDER BY closed_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*ClosedTrade
	for rows.Next() {
		t := &ClosedTrade{}
		if err := rows.Scan(&t.ID, &t.Asset, &t.Direction, &t.Leverage, &t.EntryPrice, &t.ExitPrice, &t.Margin, &t.PnlUSD, &t.PnlPct, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
