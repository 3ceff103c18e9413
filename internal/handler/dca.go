package handler

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"nexus-terminal/internal/dca"
)

// SimulateDCA godoc
// @Summary      Run a DCA projection
// @Description  Simulates a dollar-cost-averaging plan: a synthetic backtest segment plus a projected future segment
// @Tags         dca
// @Accept       json
// @Produce      json
// @Param        params  body  dca.Params  true  "Simulation parameters"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/dca/simulate [post]
func (h *Handler) SimulateDCA(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.simulate-dca")
	defer span.End()

	var params dca.Params
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("symbol", params.Symbol),
		attribute.Float64("contribution", params.Contribution),
	)

	// Fill live market context when the caller did not pin prices.
	if params.CurrentPrice <= 0 && params.Symbol != "" {
		if coin, err := h.market.GetCoin(ctx, params.Symbol); err == nil {
			params.CurrentPrice = coin.Price
			params.CurrentSMA = coin.SMA8w
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	points, summary := h.dca.Simulate(params, rng)

	c.JSON(http.StatusOK, gin.H{
		"points":  points,
		"summary": summary,
	})
}
