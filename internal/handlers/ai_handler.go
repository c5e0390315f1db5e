package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hortifruti-pdv/internal/middleware"
)

type AskRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) AskAI(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	if h.assistant == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Assistant is not configured"})
		return
	}

	reply, err := h.assistant.Ask(c.Request.Context(), sessionOf(c), req.Message)
	if err != nil {
		h.log.Error("assistant failed",
			zap.String("correlation_id", middleware.CorrelationIDFrom(c)),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Assistant is unavailable, try again"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
