package handlers

import (
	"errors"
	"net/http"

	"github.com/jasmnyeh/staircase-fairy/internal/domain"
	"github.com/jasmnyeh/staircase-fairy/internal/repository"
	"github.com/jasmnyeh/staircase-fairy/internal/service"

	"github.com/gin-gonic/gin"
)

// MyProgress returns the authenticated user's progression record plus their
// latest scans. A user who never scanned gets the zero record.
func (h *Handler) MyProgress(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.Progression.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load progression"})
			return
		}
		level, toNext := service.CalculateLevel(0)
		rec = &domain.ProgressionRecord{UserID: userID, Level: level, PointsToNext: toNext}
	}

	scans, err := h.ScanLog.RecentScans(ctx, userID, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"progress":     rec,
		"recent_scans": scans,
	})
}
