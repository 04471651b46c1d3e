package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rohan-b84/stackroom/internal/auth"
	"github.com/rohan-b84/stackroom/internal/chat"
	"github.com/rohan-b84/stackroom/internal/realtime"
	"go.uber.org/zap"
)

const wsReadTimeout = 60 * time.Second

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The token query param is the actual gate; origin is not
		// load-bearing for a bearer-token API.
		return true
	},
}

// WSHandler owns the live-connection endpoint: authenticate, upgrade,
// then interpret subscribe/unsubscribe/send_message frames until the
// client goes away.
type WSHandler struct {
	hub       *realtime.Hub
	service   *chat.Service
	jwtSecret string
	logger    *zap.Logger
}

func NewWSHandler(hub *realtime.Hub, service *chat.Service, jwtSecret string, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		hub:       hub,
		service:   service,
		jwtSecret: jwtSecret,
		logger:    logger,
	}
}

// Handle serves GET /v1/ws?token=<jwt>.
//
// Browsers can't set an Authorization header on a WebSocket handshake, so
// the token rides in the query string and is verified before the upgrade.
// Everything the connection later does is scoped to the org baked into
// those claims.
func (h *WSHandler) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := realtime.NewConnection(claims.UserID, claims.OrgID, claims.DisplayName, claims.Role, ws)
	conn.Start()
	defer func() {
		// Closed state: whatever rooms this connection joined, it is in
		// none of them afterwards.
		h.hub.Detach(conn)
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	ws.SetReadLimit(1 << 20)
	_ = ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	h.reply(conn, connectedFrame{Type: "connected"})

	h.logger.Info("websocket connected",
		zap.String("session_id", conn.ID),
		zap.String("org_id", conn.OrgID.String()),
	)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) && !errors.Is(err, websocket.ErrCloseSent) {
				h.logger.Debug("websocket read error", zap.String("session_id", conn.ID), zap.Error(err))
			}
			return
		}

		frame, err := parseFrame(data)
		if err != nil {
			h.replyError(conn, "invalid_input", err.Error())
			continue
		}

		switch f := frame.(type) {
		case subscribeFrame:
			h.handleSubscribe(conn, f)
		case unsubscribeFrame:
			h.handleUnsubscribe(conn, f)
		case sendMessageFrame:
			h.handleSendMessage(c, conn, f)
		}
	}
}

func (h *WSHandler) handleSubscribe(conn *realtime.Connection, f subscribeFrame) {
	if f.RoutingKey == "" {
		h.replyError(conn, "invalid_input", "routingKey is required")
		return
	}
	h.hub.Join(f.RoutingKey, conn)
	h.reply(conn, subscribedFrame{Type: "subscribed", RoutingKey: f.RoutingKey})
}

func (h *WSHandler) handleUnsubscribe(conn *realtime.Connection, f unsubscribeFrame) {
	if f.RoutingKey == "" {
		h.replyError(conn, "invalid_input", "routingKey is required")
		return
	}
	// No ack; leaving a room never joined is a no-op.
	h.hub.Leave(f.RoutingKey, conn)
}

func (h *WSHandler) handleSendMessage(c *gin.Context, conn *realtime.Connection, f sendMessageFrame) {
	conversationID, err := uuid.Parse(f.ConversationID)
	if err != nil {
		h.replyError(conn, "invalid_input", "invalid conversationId")
		return
	}

	// Sender identity defaults to the connection's claims; the frame may
	// override the display fields (a vendor rep typing under a shared
	// account) but never the organization.
	senderName := f.SenderName
	if senderName == "" {
		senderName = conn.DisplayName
	}
	senderRole := f.SenderRole
	if senderRole == "" {
		senderRole = conn.Role
	}

	_, err = h.service.PostMessage(c.Request.Context(), conn.OrgID, conversationID, senderName, senderRole, f.Content, f.MessageType, nil)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrNotFound):
			h.replyError(conn, "not_found", "conversation not found")
		case errors.Is(err, chat.ErrInvalidInput):
			h.replyError(conn, "invalid_input", err.Error())
		default:
			h.logger.Error("send_message failed", zap.String("session_id", conn.ID), zap.Error(err))
			h.replyError(conn, "internal_error", "failed to send message")
		}
		return
	}
	// No per-sender ack: the sender observes its own message through the
	// room broadcast like any other subscriber.
}

func (h *WSHandler) reply(conn *realtime.Connection, frame any) {
	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("encode reply frame", zap.Error(err))
		return
	}
	_ = conn.Send(payload)
}

func (h *WSHandler) replyError(conn *realtime.Connection, code, message string) {
	h.reply(conn, errorFrame{Type: "error", Code: code, Error: message})
}
