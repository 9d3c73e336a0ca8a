package handler

import (
	"errors"
	"net/http"

	"furnisher/internal/model"
	"furnisher/internal/service"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles feedback-related HTTP requests
type FeedbackHandler struct {
	quoteService *service.QuoteService
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(quoteService *service.QuoteService) *FeedbackHandler {
	return &FeedbackHandler{
		quoteService: quoteService,
	}
}

// Submit handles POST /api/v1/feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req model.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	err := h.quoteService.LogFeedback(c.Request.Context(), req.SessionID, req.Action)
	if err != nil {
		if errors.Is(err, service.ErrInvalidAction) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action. Must be one of: accept, reject, request_changes"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to log feedback: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, model.FeedbackResponse{
		Success: true,
		Message: "Feedback logged successfully",
	})
}
