package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBroadcastDuringUnregisterDoesNotPanic(t *testing.T) {
	hub := NewEventHub(4096, 4096, 0, zap.NewNop())

	for i := 0; i < 200; i++ {
		_, cleanup := hub.Register("chan-1", "viewer-1", PeerRoleSubscriber, nil)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				hub.Broadcast("chan-1", []byte(`{"event":"tick"}`))
			}
		}()
		cleanup()
		wg.Wait()
	}
	assert.Equal(t, 0, hub.PeerCount("chan-1"))
}

func TestPeerSendAfterCloseIsDropped(t *testing.T) {
	hub := NewEventHub(4096, 4096, 0, zap.NewNop())
	p, cleanup := hub.Register("chan-2", "viewer-1", PeerRoleSubscriber, nil)

	assert.True(t, p.trySend([]byte(`{"event":"tick"}`)))
	cleanup()
	assert.False(t, p.trySend([]byte(`{"event":"tick"}`)))

	// closing twice must be a no-op
	p.closeSend()
}
