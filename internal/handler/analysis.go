package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// AnalyzeStrategy godoc
// @Summary      Run the multi-timeframe strategy analysis for a coin
// @Description  Asks the language model for a 4H/1D/1W verdict; falls back to the deterministic simulation when the model is unavailable
// @Tags         analysis
// @Produce      json
// @Param        symbol  path  string  true  "Coin symbol (e.g., BTC, ETH)"
// @Success      200  {object}  analysis.StrategyAnalysis
// @Failure      404  {object}  map[string]string
// @Router       /api/analysis/strategy/{symbol} [post]
func (h *Handler) AnalyzeStrategy(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-strategy")
	defer span.End()

	symbol := c.Param("symbol")
	span.SetAttributes(attribute.String("symbol", symbol))

	coin, err := h.market.GetCoin(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	result := h.analyzer.AnalyzeStrategy(ctx, *coin)
	span.SetAttributes(attribute.Bool("simulated", result.Simulated))
	c.JSON(http.StatusOK, result)
}

// AnalyzePortfolio godoc
// @Summary      Run the portfolio health review
// @Description  Reviews the saved portfolio positions; falls back to the deterministic summary when the model is unavailable
// @Tags         analysis
// @Produce      json
// @Success      200  {object}  analysis.PortfolioReview
// @Failure      500  {object}  map[string]string
// @Router       /api/analysis/portfolio [post]
func (h *Handler) AnalyzePortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze-portfolio")
	defer span.End()

	positions, err := h.store.GetPortfolio(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.analyzer.AnalyzePortfolio(ctx, positions))
}
