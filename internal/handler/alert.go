package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"nexus-terminal/internal/alert"
	"nexus-terminal/internal/domain"
)

// GetAlerts godoc
// @Summary      List market alerts
// @Tags         alerts
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/alerts [get]
func (h *Handler) GetAlerts(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-alerts")
	defer span.End()

	alerts, err := h.alerts.List(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// CreateAlert godoc
// @Summary      Create a market alert
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        alert  body  domain.Alert  true  "Alert to create"
// @Success      201  {object}  domain.Alert
// @Failure      400  {object}  map[string]string
// @Router       /api/alerts [post]
func (h *Handler) CreateAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.create-alert")
	defer span.End()

	var req domain.Alert
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("symbol", req.CoinSymbol),
		attribute.String("type", string(req.Type)),
	)

	created, err := h.alerts.Create(ctx, req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, created)
}

// DeleteAlert godoc
// @Summary      Delete a market alert
// @Tags         alerts
// @Produce      json
// @Param        id  path  string  true  "Alert ID"
// @Success      204  "deleted"
// @Failure      404  {object}  map[string]string
// @Router       /api/alerts/{id} [delete]
func (h *Handler) DeleteAlert(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.delete-alert")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("alert_id", id))

	if err := h.alerts.Delete(ctx, id); err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
