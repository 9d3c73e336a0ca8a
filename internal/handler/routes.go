package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API endpoints on group
func RegisterRoutes(group *gin.RouterGroup, chat *ChatHandler, feedback *FeedbackHandler) {
	// Conversation endpoints
	group.POST("/chat", chat.Chat)
	group.POST("/chat/stream", chat.ChatStream) // Streaming turn

	// Session endpoints
	group.GET("/sessions/:id/alternatives", chat.Alternatives)
	group.DELETE("/sessions/:id", chat.ResetSession)

	// Catalog endpoint
	group.GET("/items/:id", chat.GetItem)

	// Feedback endpoint
	group.POST("/feedback", feedback.Submit)
}
