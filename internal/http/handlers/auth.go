package handlers

import (
	"net/http"

	"github.com/jasmnyeh/staircase-fairy/internal/service"

	"github.com/gin-gonic/gin"
)

type authRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Auth issues a token for the engine's query API. Verification of the chat
// transport's inbound signatures happens upstream, outside the engine.
func (h *Handler) Auth(c *gin.Context) {
	var req authRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, err := h.Users.GetOrCreate(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	token, err := service.GenerateJWT(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}
