package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"nexus-terminal/internal/domain"
	"nexus-terminal/internal/portfolio"
)

type addPositionRequest struct {
	Symbol      string  `json:"symbol"`
	Amount      float64 `json:"amount"`
	AvgBuyPrice float64 `json:"avg_buy_price"`
	Source      string  `json:"source"`
}

// GetPortfolio godoc
// @Summary      List portfolio positions
// @Description  Reprices every position against the live market and returns the summary
// @Tags         portfolio
// @Produce      json
// @Success      200  {object}  portfolio.Summary
// @Router       /api/portfolio [get]
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-portfolio")
	defer span.End()

	summary, err := h.portfolio.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AddPosition godoc
// @Summary      Add a portfolio position
// @Tags         portfolio
// @Accept       json
// @Produce      json
// @Param        position  body  addPositionRequest  true  "Position to add"
// @Success      201  {object}  portfolio.Summary
// @Failure      400  {object}  map[string]string
// @Router       /api/portfolio [post]
func (h *Handler) AddPosition(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.add-position")
	defer span.End()

	var req addPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(attribute.String("symbol", req.Symbol))

	summary, err := h.portfolio.Add(ctx, req.Symbol, req.Amount, req.AvgBuyPrice, domain.PositionSource(req.Source))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, summary)
}

// RemovePosition godoc
// @Summary      Remove a portfolio position
// @Tags         portfolio
// @Produce      json
// @Param        id  path  string  true  "Position ID"
// @Success      200  {object}  portfolio.Summary
// @Failure      404  {object}  map[string]string
// @Router       /api/portfolio/{id} [delete]
func (h *Handler) RemovePosition(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.remove-position")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("position_id", id))

	summary, err := h.portfolio.Remove(ctx, id)
	if err != nil {
		if errors.Is(err, portfolio.ErrPositionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}
