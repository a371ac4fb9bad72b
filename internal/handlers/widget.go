package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cartboost/cartboost-blocks-service/internal/apperrors"
	"github.com/cartboost/cartboost-blocks-service/internal/rewards"
)

// GetWidgetSettings handles GET /api/v1/widget/settings?shop=
func (h *Handlers) GetWidgetSettings(c *gin.Context) {
	shop := c.Query("shop")

	settings, err := h.widgets.GetSettings(c.Request.Context(), shop)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateWidgetSettings handles PUT /api/v1/widget/settings?shop=
func (h *Handlers) UpdateWidgetSettings(c *gin.Context) {
	shop := c.Query("shop")

	var thresholds rewards.Thresholds
	if err := c.ShouldBindJSON(&thresholds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.widgets.UpdateSettings(c.Request.Context(), shop, &thresholds); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, thresholds)
}

// GetWidgetProgress handles GET /api/v1/widget/progress?shop=&total=
//
// With a total parameter the evaluation is purely server-side; without
// one the live cart is fetched. A cart fetch failure answers 204 so the
// widget keeps its previous state and the shopper never sees an error.
func (h *Handlers) GetWidgetProgress(c *gin.Context) {
	shop := c.Query("shop")

	var total *int64
	if raw := c.Query("total"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "total must be a non-negative integer of minor currency units"})
			return
		}
		total = &parsed
	}

	result, err := h.widgets.EvaluateProgress(c.Request.Context(), shop, total)
	if err != nil {
		var upstreamErr *apperrors.UpstreamUnavailableError
		if errors.As(err, &upstreamErr) {
			h.logger.Warn().Err(err).Str("shop", shop).Msg("Cart fetch failed, widget keeps stale state")
			c.Status(http.StatusNoContent)
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
