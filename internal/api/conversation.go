package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rohan-b84/stackroom/internal/chat"
	"github.com/rohan-b84/stackroom/internal/middleware"
	"go.uber.org/zap"
)

// ConversationHandler exposes the chat service over HTTP. It shares the
// service with the WebSocket endpoint — same PostMessage contract, two
// transports.
type ConversationHandler struct {
	service *chat.Service
	logger  *zap.Logger
}

func NewConversationHandler(service *chat.Service, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{service: service, logger: logger}
}

type createConversationRequest struct {
	Type       string  `json:"type" binding:"required"`
	RoutingKey string  `json:"routing_key"`
	Title      string  `json:"title" binding:"required"`
	VendorName *string `json:"vendor_name"`
}

// Create handles POST /v1/conversations
func (h *ConversationHandler) Create(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.service.CreateConversation(c.Request.Context(), middleware.GetOrgID(c), chat.CreateConversationInput{
		Type:       req.Type,
		RoutingKey: req.RoutingKey,
		Title:      req.Title,
		VendorName: req.VendorName,
	})
	if err != nil {
		h.respondError(c, err, "create conversation")
		return
	}

	c.JSON(http.StatusCreated, conv)
}

// List handles GET /v1/conversations?type=internal|vendor
func (h *ConversationHandler) List(c *gin.Context) {
	conversations, err := h.service.ListConversations(c.Request.Context(), middleware.GetOrgID(c), c.Query("type"))
	if err != nil {
		h.respondError(c, err, "list conversations")
		return
	}

	c.JSON(http.StatusOK, conversations)
}

// GetByID handles GET /v1/conversations/:id
func (h *ConversationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	conv, err := h.service.GetConversation(c.Request.Context(), middleware.GetOrgID(c), id)
	if err != nil {
		h.respondError(c, err, "get conversation")
		return
	}

	c.JSON(http.StatusOK, conv)
}

// Archive handles POST /v1/conversations/:id/archive
func (h *ConversationHandler) Archive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.service.ArchiveConversation(c.Request.Context(), middleware.GetOrgID(c), id); err != nil {
		h.respondError(c, err, "archive conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /v1/conversations/:id
func (h *ConversationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return
	}

	if err := h.service.DeleteConversation(c.Request.Context(), middleware.GetOrgID(c), id); err != nil {
		h.respondError(c, err, "delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

// ListMessages handles GET /v1/conversations/:id/messages?after=0&limit=100
//
// The path parameter on the message routes is the conversation's routing
// key (an integration id, or a vendor thread's own id) — the identifier
// live connections subscribe under.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	routingKey := c.Param("id")

	var after int64
	var err error
	if a := c.Query("after"); a != "" {
		after, err = strconv.ParseInt(a, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'after' parameter"})
			return
		}
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit' parameter"})
			return
		}
		if limit > 500 {
			limit = 500
		}
	}

	messages, err := h.service.History(c.Request.Context(), middleware.GetOrgID(c), routingKey, after, limit)
	if err != nil {
		h.respondError(c, err, "list messages")
		return
	}

	c.JSON(http.StatusOK, messages)
}

type postMessageRequest struct {
	SenderName  string  `json:"sender_name"`
	SenderRole  string  `json:"sender_role"`
	Content     string  `json:"content" binding:"required"`
	MessageType string  `json:"message_type"`
	Metadata    *string `json:"metadata"`
}

// PostMessage handles POST /v1/conversations/:id/messages — the HTTP way
// of invoking the same contract the send_message frame uses. Subscribers
// get the broadcast; the HTTP caller also gets the persisted message back.
func (h *ConversationHandler) PostMessage(c *gin.Context) {
	routingKey := c.Param("id")

	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Same defaulting as the frame path: missing sender fields fall back
	// to the authenticated caller's identity.
	if req.SenderName == "" {
		req.SenderName = middleware.GetDisplayName(c)
	}
	if req.SenderRole == "" {
		req.SenderRole = middleware.GetRole(c)
	}

	msg, err := h.service.PostMessageByKey(
		c.Request.Context(),
		middleware.GetOrgID(c),
		routingKey,
		req.SenderName,
		req.SenderRole,
		req.Content,
		req.MessageType,
		req.Metadata,
	)
	if err != nil {
		h.respondError(c, err, "post message")
		return
	}

	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) respondError(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, chat.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed to "+action, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}
