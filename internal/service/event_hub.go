package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// PeerRole is publisher (event source) or subscriber (event consumer).
type PeerRole string

const (
	PeerRolePublisher  PeerRole = "publisher"
	PeerRoleSubscriber PeerRole = "subscriber"
)

// Peer represents a WebSocket connection in a channel.
type Peer struct {
	ChannelID string
	UserID    string
	Role      PeerRole
	Conn      *websocket.Conn
	Send      chan []byte

	mu     sync.Mutex
	closed bool
}

// trySend queues data unless the peer is closed or its buffer is full. The
// peer mutex orders sends against closeSend so a concurrent unregister can
// never close Send mid-broadcast.
func (p *Peer) trySend(data []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.Send <- data:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once.
func (p *Peer) closeSend() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.Send)
}

// ArchiveSink receives a copy of the published event stream (optional).
type ArchiveSink interface {
	WriteEvent(ctx context.Context, channelID string, data []byte)
	EndChannel(ctx context.Context, channelID string)
}

// EventHub manages WebSocket connections and fans events out per channel.
type EventHub struct {
	mu         sync.RWMutex
	peers      map[string]map[*Peer]struct{} // channelID -> set of peers
	upgrader   websocket.Upgrader
	maxMsgSize int64
	log        *zap.Logger
	archive    ArchiveSink     // optional: copy of published events to archive-service
	ctx        context.Context // app context for archiving (shutdown propagation)
}

// NewEventHub creates a new event hub.
func NewEventHub(readBufferSize, writeBufferSize int, maxMessageSize int64, log *zap.Logger) *EventHub {
	return &EventHub{
		peers:      make(map[string]map[*Peer]struct{}),
		maxMsgSize: maxMessageSize,
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBufferSize,
			WriteBufferSize: writeBufferSize,
			// Allow all origins for dev; in prod set CheckOrigin.
		},
	}
}

// SetArchive sets the optional sink copying published events to an archive service.
func (h *EventHub) SetArchive(a ArchiveSink) { h.archive = a }

// SetContext sets the app context for archiving (for shutdown propagation).
func (h *EventHub) SetContext(ctx context.Context) { h.ctx = ctx }

// Register adds a peer to a channel and returns a cleanup function.
func (h *EventHub) Register(channelID, userID string, role PeerRole, conn *websocket.Conn) (*Peer, func()) {
	if h.maxMsgSize > 0 {
		conn.SetReadLimit(h.maxMsgSize)
	}
	p := &Peer{
		ChannelID: channelID,
		UserID:    userID,
		Role:      role,
		Conn:      conn,
		Send:      make(chan []byte, 256),
	}
	h.mu.Lock()
	if h.peers[channelID] == nil {
		h.peers[channelID] = make(map[*Peer]struct{})
	}
	h.peers[channelID][p] = struct{}{}
	h.mu.Unlock()

	h.log.Info("peer registered",
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
		zap.String("role", string(role)))

	cleanup := func() {
		h.unregister(channelID, p)
	}
	return p, cleanup
}

func (h *EventHub) unregister(channelID string, p *Peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.peers[channelID]; ok {
		if _, ok := m[p]; !ok {
			return // already removed by CloseChannel
		}
		delete(m, p)
		if len(m) == 0 {
			delete(h.peers, channelID)
		}
	} else {
		return
	}
	p.closeSend()
	h.log.Info("peer unregistered",
		zap.String("channel_id", channelID),
		zap.String("user_id", p.UserID))
}

// Broadcast sends an event from the publisher to all subscribers in the channel.
// A subscriber with a full send buffer misses the event rather than blocking the publisher.
func (h *EventHub) Broadcast(channelID string, data []byte) {
	h.mu.RLock()
	m, ok := h.peers[channelID]
	if !ok {
		h.mu.RUnlock()
		return
	}
	// Copy peers so we don't hold the lock while writing
	peers := make([]*Peer, 0, len(m))
	for p := range m {
		if p.Role == PeerRoleSubscriber {
			peers = append(peers, p)
		}
	}
	h.mu.RUnlock()

	for _, p := range peers {
		if !p.trySend(data) {
			h.log.Warn("subscriber unavailable, event dropped",
				zap.String("channel_id", channelID),
				zap.String("user_id", p.UserID))
		}
	}
	if h.archive != nil && len(data) > 0 {
		ctx := h.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		h.archive.WriteEvent(ctx, channelID, data)
	}
}

// CloseChannel closes all connections in the channel and removes them.
func (h *EventHub) CloseChannel(channelID string) {
	h.mu.Lock()
	m, ok := h.peers[channelID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, channelID)
	h.mu.Unlock()

	if h.archive != nil {
		ctx := h.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		h.archive.EndChannel(ctx, channelID)
	}
	// Send close event then close connections
	closeMsg := map[string]string{"event": "channel_closed", "channel_id": channelID}
	raw, _ := json.Marshal(closeMsg)
	for p := range m {
		_ = p.Conn.WriteMessage(websocket.TextMessage, raw)
		p.closeSend()
		_ = p.Conn.Close()
	}
	h.log.Info("channel closed", zap.String("channel_id", channelID))
}

// Upgrader returns the WebSocket upgrader for HTTP handlers.
func (h *EventHub) Upgrader() *websocket.Upgrader {
	return &h.upgrader
}

// PeerCount returns the number of peers in a channel.
func (h *EventHub) PeerCount(channelID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers[channelID])
}
