package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type cancelSubscriptionRequest struct {
	Shop    string `json:"shop"`
	Prorate bool   `json:"prorate"`
}

// CancelSubscription handles POST /api/v1/subscriptions/:id/cancel
func (h *Handlers) CancelSubscription(c *gin.Context) {
	chargeID := c.Param("id")

	var req cancelSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.billing.CancelSubscription(c.Request.Context(), req.Shop, chargeID, req.Prorate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type recordSubscriptionRequest struct {
	Shop     string `json:"shop"`
	ChargeID string `json:"charge_id"`
}

// RecordSubscription handles POST /api/v1/subscriptions
//
// Called when a merchant accepts a recurring charge; the platform's
// billing events later move it to active.
func (h *Handlers) RecordSubscription(c *gin.Context) {
	var req recordSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.billing.RecordPendingSubscription(c.Request.Context(), req.Shop, req.ChargeID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"shop":      req.Shop,
		"charge_id": req.ChargeID,
		"status":    "pending",
	})
}
