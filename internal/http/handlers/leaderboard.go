package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard returns the top of the board, recomputing ranks first.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 10
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	top, err := h.Leaderboard.TopList(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}

// GetMyRank returns the authenticated user's rank with the neighbors
// directly above and below plus the top three.
func (h *Handler) GetMyRank(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	view, err := h.Leaderboard.Query(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get rank"})
		return
	}

	c.JSON(http.StatusOK, view)
}

// RecomputeLeaderboard forces a full rank recompute.
func (h *Handler) RecomputeLeaderboard(c *gin.Context) {
	if err := h.Leaderboard.Recompute(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recompute failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
