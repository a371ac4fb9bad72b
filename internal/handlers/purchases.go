package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createPurchaseRequest struct {
	Shop    string `json:"shop"`
	BlockID string `json:"block_id"`
	Email   string `json:"email"`
}

// CreatePurchase handles POST /api/v1/purchases
func (h *Handlers) CreatePurchase(c *gin.Context) {
	var req createPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	purchase, err := h.purchases.CreatePurchase(c.Request.Context(), req.Shop, req.BlockID, req.Email)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, purchase)
}

// GetPurchase handles GET /api/v1/purchases/:id
func (h *Handlers) GetPurchase(c *gin.Context) {
	purchase, err := h.purchases.GetPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// ListPurchases handles GET /api/v1/purchases?shop=
//
// Admin route: the bearer-token middleware runs before this handler.
func (h *Handlers) ListPurchases(c *gin.Context) {
	purchases, err := h.purchases.ListPurchases(c.Request.Context(), c.Query("shop"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"purchases": purchases,
		"count":     len(purchases),
	})
}

// ConfirmPurchase handles POST /api/v1/purchases/:id/confirm
func (h *Handlers) ConfirmPurchase(c *gin.Context) {
	purchase, err := h.purchases.ConfirmPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// FailPurchase handles POST /api/v1/purchases/:id/fail
func (h *Handlers) FailPurchase(c *gin.Context) {
	purchase, err := h.purchases.FailPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}

// RefundPurchase handles POST /api/v1/purchases/:id/refund
func (h *Handlers) RefundPurchase(c *gin.Context) {
	purchase, err := h.purchases.RefundPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, purchase)
}
