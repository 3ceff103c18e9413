package handler

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"nexus-terminal/internal/alert"
	"nexus-terminal/internal/analysis"
	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/dca"
	"nexus-terminal/internal/market"
	"nexus-terminal/internal/portfolio"
	"nexus-terminal/internal/repository"
	"nexus-terminal/internal/store"
)

// Handler holds the HTTP handlers and their service dependencies.
type Handler struct {
	tracer    trace.Tracer
	market    *market.Service
	dca       *dca.Engine
	bot       *bot.Engine
	analyzer  *analysis.Analyzer
	portfolio *portfolio.Service
	alerts    *alert.Service
	store     *store.Store
	trades    *repository.TradeRepository
}

func New(
	tracer trace.Tracer,
	marketSvc *market.Service,
	dcaEngine *dca.Engine,
	botEngine *bot.Engine,
	analyzer *analysis.Analyzer,
	portfolioSvc *portfolio.Service,
	alertSvc *alert.Service,
	kv *store.Store,
	trades *repository.TradeRepository,
) *Handler {
	return &Handler{
		tracer:    tracer,
		market:    marketSvc,
		dca:       dcaEngine,
		bot:       botEngine,
		analyzer:  analyzer,
		portfolio: portfolioSvc,
		alerts:    alertSvc,
		store:     kv,
		trades:    trades,
	}
}

// RegisterRoutes registers all API routes on the given router.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.GET("/coins", h.GetCoins)
		api.GET("/coins/:symbol", h.GetCoin)
		api.GET("/global", h.GetGlobalMetrics)

		api.GET("/chart-config", h.GetChartConfig)
		api.PUT("/chart-config", h.SaveChartConfig)

		api.POST("/dca/simulate", h.SimulateDCA)

		api.POST("/analysis/strategy/:symbol", h.AnalyzeStrategy)
		api.POST("/analysis/portfolio", h.AnalyzePortfolio)

		api.GET("/portfolio", h.GetPortfolio)
		api.POST("/portfolio", h.AddPosition)
		api.DELETE("/portfolio/:id", h.RemovePosition)

		api.GET("/alerts", h.GetAlerts)
		api.POST("/alerts", h.CreateAlert)
		api.DELETE("/alerts/:id", h.DeleteAlert)

		api.GET("/license", h.GetLicense)
		api.POST("/license/activate", h.ActivateLicense)

		botGroup := api.Group("/bot", h.LicenseGate())
		{
			botGroup.GET("/status", h.BotStatus)
			botGroup.POST("/activate", h.BotActivate)
			botGroup.POST("/deactivate", h.BotDeactivate)
			botGroup.POST("/authorize", h.BotAuthorize)
			botGroup.POST("/reject", h.BotReject)
			botGroup.POST("/close", h.BotClosePosition)
			botGroup.PUT("/config", h.BotUpdateConfig)
			botGroup.PUT("/risk-profile", h.BotSetRiskProfile)
			botGroup.GET("/logs", h.BotLogs)
			botGroup.GET("/performance", h.BotPerformance)
			botGroup.GET("/trades", h.BotTradeHistory)
		}
	}
}
