package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/domain"
	"github.com/VikramVasudevan/youtube-surfer-ai-agent/internal/service"
)

// AskHandler handles question answering endpoints.
type AskHandler struct {
	answerer *service.AnswererService
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(answerer *service.AnswererService) *AskHandler {
	return &AskHandler{answerer: answerer}
}

// AskRequest is the body of POST /api/v1/ask.
type AskRequest struct {
	Query     string `json:"query" binding:"required"`
	TopK      int    `json:"top_k"`
	ChannelID string `json:"channel_id"`
}

// Ask handles POST /api/v1/ask.
func (h *AskHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	answer, err := h.answerer.Answer(c.Request.Context(), req.Query, req.TopK, req.ChannelID)
	if err != nil {
		status := http.StatusInternalServerError
		var answerErr *domain.AnswerError
		if errors.As(err, &answerErr) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": "Failed to answer: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, answer)
}
