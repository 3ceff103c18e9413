package main

import (
	"context"
	"log"
	"os"

	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/cache"
	"nexus-terminal/internal/config"
	"nexus-terminal/internal/db"
	"nexus-terminal/internal/repository"
	"nexus-terminal/internal/store"
	"nexus-terminal/internal/tui"
	"nexus-terminal/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	runProgramFunc   = func(p *tea.Program) error {
		_, err := p.Run()
		return err
	}
)

// The interactive bot terminal. Runs the engine in-process against the
// same Redis and Postgres state the HTTP server uses.
func main() {
	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Traces from an interactive session are noise; keep the tracer
	// unless explicitly enabled.
	if os.Getenv("TRACING_ENABLED") == "" {
		os.Setenv("TRACING_ENABLED", "false")
	}
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	var kvClient store.RedisClient
	if cache.Client != nil {
		kvClient = cache.Client
	}
	kv := store.NewStore(kvClient)

	var ledger bot.Ledger
	if db.Pool != nil {
		tradeRepo := repository.NewTradeRepository(db.Pool, tracer)
		if err := tradeRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		ledger = tradeRepo
	}

	tun := bot.DefaultTunables()
	if cfg.BotLogBuffer > 0 {
		tun.LogBuffer = cfg.BotLogBuffer
	}
	engine := bot.NewEngine(tracer, kv, ledger, nil, tun)
	engine.Start(ctx)

	p := tea.NewProgram(tui.NewModel(engine), tea.WithAltScreen())
	if err := runProgramFunc(p); err != nil {
		log.Fatalf("terminal error: %v", err)
	}
}
