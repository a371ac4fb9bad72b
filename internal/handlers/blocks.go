package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListBlocks handles GET /api/v1/blocks
func (h *Handlers) ListBlocks(c *gin.Context) {
	blocks, err := h.catalog.ListBlocks(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"blocks": blocks,
		"count":  len(blocks),
	})
}

// GetBlock handles GET /api/v1/blocks/:id
func (h *Handlers) GetBlock(c *gin.Context) {
	block, err := h.catalog.GetBlock(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, block)
}

// InstallShop handles POST /api/v1/shops/:shop/install
//
// Manual refresh trigger for merchants whose purchase did not show up
// through the automated path. Safe to call repeatedly.
func (h *Handlers) InstallShop(c *gin.Context) {
	blockIDs, err := h.installs.RefreshShop(c.Request.Context(), c.Param("shop"), "manual")
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shop":   c.Param("shop"),
		"blocks": blockIDs,
	})
}

// GetShopBlocks handles GET /api/v1/shops/:shop/blocks
func (h *Handlers) GetShopBlocks(c *gin.Context) {
	blockIDs, err := h.installs.EntitledBlocks(c.Request.Context(), c.Param("shop"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"shop":   c.Param("shop"),
		"blocks": blockIDs,
	})
}
