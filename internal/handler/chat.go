package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"furnisher/internal/model"
	"furnisher/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles conversational quotation requests
type ChatHandler struct {
	quoteService *service.QuoteService
	turnTimeout  time.Duration
}

// NewChatHandler creates a new chat handler
func NewChatHandler(quoteService *service.QuoteService, turnTimeout time.Duration) *ChatHandler {
	return &ChatHandler{
		quoteService: quoteService,
		turnTimeout:  turnTimeout,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.turnTimeout)
		defer cancel()
	}

	response, err := h.quoteService.Turn(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Turn failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ChatStream handles POST /api/v1/chat/stream - SSE streaming turn
func (h *ChatHandler) ChatStream(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
		return
	}

	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	sendSSE(c, "start", map[string]any{"session_id": req.SessionID, "message": req.Message})
	flusher.Flush()

	ctx := c.Request.Context()
	if h.turnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.turnTimeout)
		defer cancel()
	}

	_, err := h.quoteService.TurnStream(ctx, &req, func(event string, data any) error {
		sendSSE(c, event, data)
		flusher.Flush()
		return ctx.Err()
	})
	if err != nil {
		sendSSE(c, "error", map[string]any{"error": err.Error()})
		flusher.Flush()
	}
}

// sendSSE sends a Server-Sent Event
func sendSSE(c *gin.Context, event string, data any) {
	if data == nil {
		fmt.Fprintf(c.Writer, "event: %s\ndata: {}\n\n", event)
		return
	}
	jsonData, err := json.Marshal(data)
	if err != nil {
		fmt.Fprintf(c.Writer, "event: error\ndata: {\"error\": \"JSON marshal failed\"}\n\n")
		return
	}
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, string(jsonData))
}

// Alternatives handles GET /api/v1/sessions/:id/alternatives
func (h *ChatHandler) Alternatives(c *gin.Context) {
	var req model.AlternativesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	response, err := h.quoteService.Alternatives().List(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		if errors.Is(err, service.ErrUnknownLine) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alternatives: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResetSession handles DELETE /api/v1/sessions/:id
func (h *ChatHandler) ResetSession(c *gin.Context) {
	if err := h.quoteService.Reset(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session: " + err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GetItem handles GET /api/v1/items/:id
func (h *ChatHandler) GetItem(c *gin.Context) {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	item, err := h.quoteService.GetItem(c.Request.Context(), itemID)
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get item: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, item)
}
