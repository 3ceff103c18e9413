package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetLicense godoc
// @Summary      Get the bot license state
// @Tags         license
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/license [get]
func (h *Handler) GetLicense(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-license")
	defer span.End()

	licensed, err := h.store.HasLicense(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"licensed": licensed})
}

// ActivateLicense godoc
// @Summary      Activate the bot license
// @Description  Marks the bot license as purchased, unlocking the bot endpoints
// @Tags         license
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/license/activate [post]
func (h *Handler) ActivateLicense(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.activate-license")
	defer span.End()

	if err := h.store.SetLicense(ctx, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"licensed": true})
}

// LicenseGate returns a middleware that rejects bot requests until the
// license flag has been set.
func (h *Handler) LicenseGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		licensed, err := h.store.HasLicense(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if !licensed {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "bot license required"})
			return
		}
		c.Next()
	}
}
