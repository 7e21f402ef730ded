package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-hero/internal/log"
)

func runHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := New("test", log.NewRecorder().Logger())
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-h.Done()
	})
	return h, cancel
}

func attach(h *Hub, buf int) *Client {
	c := &Client{hub: h, send: make(chan Message, buf)}
	h.register <- c
	return c
}

func recv(t *testing.T, c *Client) (Message, bool) {
	t.Helper()
	select {
	case m, ok := <-c.send:
		return m, ok
	case <-time.After(time.Second):
		t.Fatal("timed out")
		return nil, false
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h, _ := runHub(t)
	a, b := attach(h, 4), attach(h, 4)
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]string{"msg": "hi"}))
	for _, c := range []*Client{a, b} {
		m, ok := recv(t, c)
		require.True(t, ok)
		assert.JSONEq(t, `{"msg":"hi"}`, string(m))
	}
}

func TestSlowClientDropped(t *testing.T) {
	h, _ := runHub(t)
	slow := attach(h, 0)
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	h.Broadcast(Message(`{}`))
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
	_, ok := <-slow.send
	assert.False(t, ok)
}

func TestUnregisterAndShutdown(t *testing.T) {
	h, cancel := runHub(t)
	a, b := attach(h, 1), attach(h, 1)
	h.unregister <- a
	_, ok := recv(t, a)
	assert.False(t, ok)

	cancel()
	<-h.Done()
	_, ok = <-b.send
	assert.False(t, ok)
	assert.Equal(t, 0, h.ClientCount())
}

func TestClientSend(t *testing.T) {
	c := &Client{send: make(chan Message, 1)}
	assert.True(t, c.Send(Message("{}")))
	assert.False(t, c.Send(Message("{}")))
}
