// Package archive forwards a copy of published events to an external
// archive service over an outbound websocket connection.
package archive

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/evrelay/event-relay/internal/wsurl"
)

// ingestPath is the archive service's websocket ingest endpoint.
const ingestPath = "/ws/archive"

// envelope is the wire frame sent to the archive service. Data is
// base64-encoded by encoding/json since published events are opaque bytes.
type envelope struct {
	ChannelID string `json:"channel_id"`
	Data      []byte `json:"data,omitempty"`
	Last      bool   `json:"last,omitempty"`
	SentAt    int64  `json:"sent_at"`
}

// Client copies published events to the archive service. Safe for concurrent
// use; a failed write drops the connection and the next write redials.
type Client struct {
	url string
	log *zap.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates an archive client. baseURL may be an http(s) origin or a
// ws(s) endpoint; the ingest URL is derived from it. Call Connect before use,
// then Close when done.
func NewClient(baseURL string, log *zap.Logger) (*Client, error) {
	u, err := wsurl.Resolve(baseURL, ingestPath)
	if err != nil {
		return nil, err
	}
	return &Client{url: u, log: log}, nil
}

// Connect dials the archive service, retrying with exponential backoff until
// ctx is cancelled or the retry budget is exhausted.
func (c *Client) Connect(ctx context.Context) error {
	conn, err := backoff.Retry(ctx, func() (*websocket.Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
		if err != nil {
			c.log.Warn("archive: dial failed, retrying", zap.String("url", c.url), zap.Error(err))
			return nil, err
		}
		return conn, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(30*time.Second))
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

// Close closes the archive connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// WriteEvent sends one event frame for the given channel. The lock is held
// for the whole redial-and-send so concurrent writers never interleave frames
// on the same connection.
func (c *Client) WriteEvent(ctx context.Context, channelID string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ensureConn(ctx, channelID) {
		return
	}
	frame := envelope{ChannelID: channelID, Data: data, SentAt: time.Now().UnixMilli()}
	if err := c.writeJSON(frame); err != nil {
		c.log.Warn("archive: send event failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// EndChannel sends the end-of-stream marker for the channel.
func (c *Client) EndChannel(ctx context.Context, channelID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return
	}
	frame := envelope{ChannelID: channelID, Last: true, SentAt: time.Now().UnixMilli()}
	if err := c.writeJSON(frame); err != nil {
		c.log.Warn("archive: send end marker failed", zap.String("channel_id", channelID), zap.Error(err))
	}
}

// ensureConn redials once if the connection was dropped. Caller holds c.mu.
func (c *Client) ensureConn(ctx context.Context, channelID string) bool {
	if c.conn != nil {
		return true
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.log.Warn("archive: redial failed, event dropped",
			zap.String("channel_id", channelID), zap.Error(err))
		return false
	}
	c.conn = conn
	return true
}

// writeJSON marshals and sends a frame; on error the connection is dropped so
// the next write redials. Caller holds c.mu.
func (c *Client) writeJSON(frame envelope) error {
	raw, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		_ = c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
