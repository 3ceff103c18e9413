package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"nexus-terminal/internal/bot"
	"nexus-terminal/internal/domain"
	"nexus-terminal/internal/repository"
)

type authorizeRequest struct {
	Margin float64 `json:"margin"`
}

type riskProfileRequest struct {
	Profile string `json:"profile"`
}

// BotStatus godoc
// @Summary      Get the bot status snapshot
// @Description  Returns phase, config, balance, pending signal, open position, and performance
// @Tags         bot
// @Produce      json
// @Success      200  {object}  bot.Status
// @Router       /api/bot/status [get]
func (h *Handler) BotStatus(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.bot-status")
	defer span.End()

	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotActivate godoc
// @Summary      Activate the bot
// @Description  Starts market scanning; a no-op when already active
// @Tags         bot
// @Produce      json
// @Success      200  {object}  bot.Status
// @Router       /api/bot/activate [post]
func (h *Handler) BotActivate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-activate")
	defer span.End()

	h.bot.Activate(ctx)
	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotDeactivate godoc
// @Summary      Deactivate the bot
// @Description  Stops scanning and discards any pending signal; an open position keeps ticking
// @Tags         bot
// @Produce      json
// @Success      200  {object}  bot.Status
// @Router       /api/bot/deactivate [post]
func (h *Handler) BotDeactivate(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-deactivate")
	defer span.End()

	h.bot.Deactivate(ctx)
	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotAuthorize godoc
// @Summary      Authorize the pending signal
// @Description  Opens a position from the pending signal, optionally overriding the margin
// @Tags         bot
// @Accept       json
// @Produce      json
// @Param        body  body  authorizeRequest  false  "Optional margin override"
// @Success      200  {object}  bot.Status
// @Failure      409  {object}  map[string]string
// @Router       /api/bot/authorize [post]
func (h *Handler) BotAuthorize(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-authorize")
	defer span.End()

	var req authorizeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	var err error
	if req.Margin > 0 {
		err = h.bot.AuthorizeWithMargin(ctx, req.Margin)
	} else {
		err = h.bot.Authorize(ctx)
	}
	if err != nil {
		c.JSON(botErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotReject godoc
// @Summary      Reject the pending signal
// @Tags         bot
// @Produce      json
// @Success      200  {object}  bot.Status
// @Failure      409  {object}  map[string]string
// @Router       /api/bot/reject [post]
func (h *Handler) BotReject(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-reject")
	defer span.End()

	if err := h.bot.Reject(ctx); err != nil {
		c.JSON(botErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotClosePosition godoc
// @Summary      Close the open position
// @Description  Settles P&L into the balance and records the trade in the ledger
// @Tags         bot
// @Produce      json
// @Success      200  {object}  bot.Status
// @Failure      409  {object}  map[string]string
// @Router       /api/bot/close [post]
func (h *Handler) BotClosePosition(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-close")
	defer span.End()

	if err := h.bot.ClosePosition(ctx); err != nil {
		c.JSON(botErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotUpdateConfig godoc
// @Summary      Replace the bot configuration
// @Tags         bot
// @Accept       json
// @Produce      json
// @Param        config  body  domain.BotConfig  true  "New configuration"
// @Success      200  {object}  bot.Status
// @Failure      400  {object}  map[string]string
// @Router       /api/bot/config [put]
func (h *Handler) BotUpdateConfig(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-update-config")
	defer span.End()

	var cfg domain.BotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	h.bot.UpdateConfig(ctx, cfg)
	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotSetRiskProfile godoc
// @Summary      Apply a risk profile preset
// @Description  Sets leverage and max allocation from the CONSERVATIVE/BALANCED/AGGRESSIVE preset
// @Tags         bot
// @Accept       json
// @Produce      json
// @Param        body  body  riskProfileRequest  true  "Risk profile"
// @Success      200  {object}  bot.Status
// @Failure      400  {object}  map[string]string
// @Router       /api/bot/risk-profile [put]
func (h *Handler) BotSetRiskProfile(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-set-risk-profile")
	defer span.End()

	var req riskProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(attribute.String("profile", req.Profile))

	if err := h.bot.SetRiskProfile(ctx, domain.RiskProfile(req.Profile)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.bot.Snapshot())
}

// BotLogs godoc
// @Summary      Get recent bot activity logs
// @Description  Returns the durable log tail, oldest first
// @Tags         bot
// @Produce      json
// @Param        limit  query  int  false  "Max entries (default 100, max 500)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bot/logs [get]
func (h *Handler) BotLogs(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-logs")
	defer span.End()

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.store.RecentLogs(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// BotPerformance godoc
// @Summary      Get the aggregate performance ledger
// @Tags         bot
// @Produce      json
// @Success      200  {object}  domain.PerformanceMetrics
// @Router       /api/bot/performance [get]
func (h *Handler) BotPerformance(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.bot-performance")
	defer span.End()

	c.JSON(http.StatusOK, h.bot.Snapshot().Performance)
}

// BotTradeHistory godoc
// @Summary      Get the closed-trade history
// @Description  Returns settled trades from the ledger, newest first
// @Tags         bot
// @Produce      json
// @Param        limit  query  int  false  "Max trades (default 100)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/bot/trades [get]
func (h *Handler) BotTradeHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.bot-trade-history")
	defer span.End()

	if h.trades == nil {
		c.JSON(http.StatusOK, gin.H{"trades": []*repository.ClosedTrade{}})
		return
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	trades, err := h.trades.ListTrades(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

// botErrorStatus maps engine state errors to HTTP conflict codes.
func botErrorStatus(err error) int {
	switch {
	case errors.Is(err, bot.ErrNoPendingSignal),
		errors.Is(err, bot.ErrNoOpenPosition),
		errors.Is(err, bot.ErrSignalPending),
		errors.Is(err, bot.ErrPositionOpen):
		return http.StatusConflict
	case errors.Is(err, bot.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
