package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/evrelay/event-relay/internal/model"
	"github.com/evrelay/event-relay/internal/service"
)

// EventWSHandler handles WebSocket connections for /ws/events/:channel_id/:user_id.
type EventWSHandler struct {
	hub    *service.EventHub
	svc    service.ChannelServicer
	logger *zap.Logger
}

// NewEventWSHandler creates the WebSocket event handler.
func NewEventWSHandler(hub *service.EventHub, svc service.ChannelServicer, logger *zap.Logger) *EventWSHandler {
	return &EventWSHandler{hub: hub, svc: svc, logger: logger}
}

// ServeWS upgrades the request to WebSocket and runs the event loop.
// Path: /ws/events/:channel_id/:user_id
// A connection with user_id == channel.OwnerID is the publisher; others are subscribers.
func (h *EventWSHandler) ServeWS(c *gin.Context) {
	channelID := c.Param("channel_id")
	userID := c.Param("user_id")
	if channelID == "" || userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id and user_id required"})
		return
	}

	ch, err := h.svc.Get(channelID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "channel not found"})
		return
	}
	if ch.Status == model.ChannelStatusClosed {
		c.JSON(http.StatusGone, gin.H{"error": "channel already closed"})
		return
	}

	conn, err := h.hub.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	role := service.PeerRoleSubscriber
	if userID == ch.OwnerID {
		role = service.PeerRolePublisher
	}

	peer, cleanup := h.hub.Register(channelID, userID, role, conn)
	defer cleanup()

	if role == service.PeerRoleSubscriber {
		if err := h.svc.AddSubscriber(channelID, userID); err != nil {
			h.logger.Warn("failed to add subscriber to channel", zap.Error(err))
			return
		}
	}

	// Writer goroutine: send from peer.Send to connection
	go h.writePump(peer)

	// Reader: receive from publisher and fan out to subscribers
	h.readPump(peer)
}

func (h *EventWSHandler) readPump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for {
		_, data, err := p.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			break
		}
		if p.Role == service.PeerRolePublisher {
			h.hub.Broadcast(p.ChannelID, data)
		}
		// Subscriber frames are ignored; no upstream traffic in this version
	}
}

func (h *EventWSHandler) writePump(p *service.Peer) {
	defer func() {
		_ = p.Conn.Close()
	}()
	for data := range p.Send {
		if err := p.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			break
		}
	}
}
