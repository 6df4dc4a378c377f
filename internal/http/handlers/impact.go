package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetImpact returns the global environmental impact stats.
func (h *Handler) GetImpact(c *gin.Context) {
	stats, err := h.Impact.Global(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get impact"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMyImpact returns the authenticated user's environmental impact stats.
func (h *Handler) GetMyImpact(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.Impact.ForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get impact"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
