package archive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// archiveSink is a test double for the archive service's ingest endpoint.
type archiveSink struct {
	srv    *httptest.Server
	frames chan envelope
}

func newArchiveSink(t *testing.T) *archiveSink {
	t.Helper()
	s := &archiveSink{frames: make(chan envelope, 16)}
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/archive", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f envelope
			if err := json.Unmarshal(data, &f); err != nil {
				continue
			}
			s.frames <- f
		}
	})
	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *archiveSink) next(t *testing.T) envelope {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received from archive client")
		return envelope{}
	}
}

func TestClientForwardsEventsAndEndMarker(t *testing.T) {
	sink := newArchiveSink(t)

	// http base exercises the origin rule of the URL resolver
	c, err := NewClient(sink.srv.URL, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	c.WriteEvent(context.Background(), "chan-1", []byte(`{"n":1}`))
	f := sink.next(t)
	assert.Equal(t, "chan-1", f.ChannelID)
	assert.Equal(t, []byte(`{"n":1}`), f.Data)
	assert.False(t, f.Last)
	assert.NotZero(t, f.SentAt)

	c.EndChannel(context.Background(), "chan-1")
	f = sink.next(t)
	assert.Equal(t, "chan-1", f.ChannelID)
	assert.True(t, f.Last)
	assert.Empty(t, f.Data)
}

func TestClientRedialsAfterDrop(t *testing.T) {
	sink := newArchiveSink(t)

	wsBase := strings.Replace(sink.srv.URL, "http", "ws", 1)
	c, err := NewClient(wsBase, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Connect(context.Background()))
	defer c.Close()

	// Drop the connection under the client; the first write fails and drops
	// state, the next one redials.
	c.mu.Lock()
	_ = c.conn.Close()
	c.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.WriteEvent(context.Background(), "chan-2", []byte(`{"n":2}`))
		select {
		case f := <-sink.frames:
			assert.Equal(t, "chan-2", f.ChannelID)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
	t.Fatal("client never recovered the archive connection")
}

func TestNewClientRejectsBadBase(t *testing.T) {
	_, err := NewClient("ftp://archive.example.com", zap.NewNop())
	assert.Error(t, err)
}

func TestConnectGivesUpWithoutServer(t *testing.T) {
	if testing.Short() {
		t.Skip("waits out the retry budget")
	}
	c, err := NewClient("ws://127.0.0.1:1", zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.Error(t, c.Connect(ctx))
}
