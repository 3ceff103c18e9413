package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus-terminal/internal/alert"
	"nexus-terminal/internal/analysis"
	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/cache"
	"nexus-terminal/internal/config"
	"nexus-terminal/internal/db"
	"nexus-terminal/internal/dca"
	"nexus-terminal/internal/domain"
	"nexus-terminal/internal/handler"
	"nexus-terminal/internal/job"
	"nexus-terminal/internal/market"
	"nexus-terminal/internal/notify"
	"nexus-terminal/internal/portfolio"
	"nexus-terminal/internal/provider"
	"nexus-terminal/internal/repository"
	"nexus-terminal/internal/store"
	"nexus-terminal/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "nexus-terminal/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	startPollerFunc        = func(p *job.MarketPoller, ctx context.Context) { go p.Start(ctx) }
	startTelegramFunc      = notify.StartTelegram
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// notifierFunc lets the engine be built before the Telegram bot, which
// in turn needs the engine for its /bot command.
type notifierFunc func(level domain.LogLevel, message string)

func (f notifierFunc) Notify(level domain.LogLevel, message string) { f(level, message) }

// @title           Nexus Terminal API
// @version         1.0
// @description     Crypto analytics dashboard backend: market data, DCA projections, the trading bot, and AI strategy analysis.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// KV store over Redis; a nil client degrades to session-only state.
	var kvClient store.RedisClient
	if cache.Client != nil {
		kvClient = cache.Client
	}
	kv := store.NewStore(kvClient)

	// Closed-trade ledger, only when Postgres is configured.
	var ledger bot.Ledger
	var tradeRepo *repository.TradeRepository
	if db.Pool != nil {
		tradeRepo = repository.NewTradeRepository(db.Pool, tracer)
		if err := tradeRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		ledger = tradeRepo
	}

	// Market data: provider fetch, cache, enrichment, offline fallback.
	var marketRedis market.RedisClient
	if cache.Client != nil {
		marketRedis = cache.Client
	}
	marketSvc := market.NewService(
		tracer,
		provider.NewCoinGeckoProvider(tracer),
		provider.NewFearGreedProvider(tracer),
		marketRedis,
	)

	dcaEngine := dca.NewEngine(dca.DefaultTunables())

	var llm analysis.LLMClient
	if cfg.OpenAIAPIKey != "" {
		llm = analysis.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Println("OPENAI_API_KEY not set, analysis runs in simulation mode")
	}
	analyzer := analysis.NewAnalyzer(tracer, llm, cfg.OpenAIModel)

	// Bot engine; notifications go through the Telegram bridge once it
	// is up.
	var telegram *notify.Telegram
	tun := bot.DefaultTunables()
	if cfg.BotScanSecs > 0 {
		tun.ScanInterval = time.Duration(cfg.BotScanSecs) * time.Second
	}
	if cfg.BotAutoExecSecs > 0 {
		tun.AutoExecuteDelay = time.Duration(cfg.BotAutoExecSecs) * time.Second
	}
	if cfg.BotLogBuffer > 0 {
		tun.LogBuffer = cfg.BotLogBuffer
	}
	botEngine := bot.NewEngine(tracer, kv, ledger, notifierFunc(func(level domain.LogLevel, message string) {
		telegram.Notify(level, message)
	}), tun)
	botEngine.Start(ctx)

	portfolioSvc := portfolio.NewService(tracer, kv, marketSvc)
	alertSvc := alert.NewService(tracer, kv, marketSvc, notifierFunc(func(level domain.LogLevel, message string) {
		telegram.Notify(level, message)
	}))

	// Background market refresh + alert sweep.
	poller := job.NewMarketPoller(tracer, marketSvc, alertSvc, cfg.CoinGeckoPollSecs)
	startPollerFunc(poller, ctx)

	// Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	os.Setenv("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	telegram = startTelegramFunc(marketSvc, botEngine)

	// Create handlers and routes
	h := handler.New(tracer, marketSvc, dcaEngine, botEngine, analyzer, portfolioSvc, alertSvc, kv, tradeRepo)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("nexus-terminal"))
	r.Use(cors.Default())

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
