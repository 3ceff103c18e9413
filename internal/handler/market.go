package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"nexus-terminal/internal/domain"
)

// GetCoins godoc
// @Summary      List tracked coins
// @Description  Returns the current market table with derived indicators
// @Tags         market
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/coins [get]
func (h *Handler) GetCoins(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coins")
	defer span.End()

	coins := h.market.ListCoins(ctx)
	c.JSON(http.StatusOK, gin.H{"coins": coins})
}

// GetCoin godoc
// @Summary      Get one coin by symbol
// @Tags         market
// @Produce      json
// @Param        symbol  path  string  true  "Coin symbol (e.g., BTC, ETH)"
// @Success      200  {object}  domain.CoinData
// @Failure      404  {object}  map[string]string
// @Router       /api/coins/{symbol} [get]
func (h *Handler) GetCoin(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-coin")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	coin, err := h.market.GetCoin(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, coin)
}

// GetGlobalMetrics godoc
// @Summary      Get global market metrics
// @Description  Returns total market cap, volume, BTC dominance, and the sentiment index
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.GlobalMetrics
// @Router       /api/global [get]
func (h *Handler) GetGlobalMetrics(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-global-metrics")
	defer span.End()

	c.JSON(http.StatusOK, h.market.GlobalMetrics(ctx))
}

// GetChartConfig godoc
// @Summary      Get the saved chart widget configuration
// @Tags         market
// @Produce      json
// @Success      200  {object}  domain.ChartConfig
// @Router       /api/chart-config [get]
func (h *Handler) GetChartConfig(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-chart-config")
	defer span.End()

	cfg, err := h.store.GetChartConfig(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// SaveChartConfig godoc
// @Summary      Save the chart widget configuration
// @Tags         market
// @Accept       json
// @Produce      json
// @Param        config  body  domain.ChartConfig  true  "Chart configuration"
// @Success      200  {object}  domain.ChartConfig
// @Failure      400  {object}  map[string]string
// @Router       /api/chart-config [put]
func (h *Handler) SaveChartConfig(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.save-chart-config")
	defer span.End()

	var cfg domain.ChartConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if cfg.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	if err := h.store.SaveChartConfig(ctx, cfg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cfg)
}
