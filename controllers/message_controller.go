package controllers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/services"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

// SendMessageRequest represents the request body for sending a message.
// The receiver is always the other party of the order.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// MessageController serves the per-order chat between user and therapist
type MessageController struct {
	messages *services.MessageService
	log      *zap.Logger
}

func NewMessageController(messages *services.MessageService, log *zap.Logger) *MessageController {
	return &MessageController{messages: messages, log: log}
}

// SendMessage handles POST /api/v1/orders/:id/messages - sends a message on an order
func (h *MessageController) SendMessage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}

	message, err := h.messages.SendMessage(c.Request.Context(), actor, orderID, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondCreated(c, message)
}

// GetMessages handles GET /api/v1/orders/:id/messages - returns the thread
// oldest first and marks the caller's incoming messages read
func (h *MessageController) GetMessages(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}

	page := pagination(c)
	messages, total, err := h.messages.GetMessageHistory(c.Request.Context(), actor, orderID, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(messages, total, page))
}

// GetConversations handles GET /api/v1/messages/conversations
func (h *MessageController) GetConversations(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	page := pagination(c)
	messages, total, err := h.messages.GetConversationList(c.Request.Context(), actor, page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, utils.NewPage(messages, total, page))
}

// GetUnreadCount handles GET /api/v1/messages/unread-count
func (h *MessageController) GetUnreadCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	count, err := h.messages.GetUnreadCount(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, gin.H{"unread_count": count})
}

// MarkRead handles PUT /api/v1/messages/:id/read
func (h *MessageController) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	messageID, ok := idParam(c, "id")
	if !ok {
		return
	}

	message, err := h.messages.MarkMessageRead(c.Request.Context(), actor, messageID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	respondOK(c, message)
}
