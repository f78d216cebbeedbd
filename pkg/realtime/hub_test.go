package realtime

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/governance"
)

func testConfig() *config.RealtimeConfig {
	return &config.RealtimeConfig{
		HeartbeatTimeout: 5 * time.Minute,
		SweepInterval:    time.Hour,
		MaxClients:       10,
		SendBuffer:       16,
	}
}

func startHub(t *testing.T, cfg *config.RealtimeConfig) (*Hub, string) {
	t.Helper()
	hub := NewHub(cfg, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(Handler(hub, Upgrader(nil)))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	msg := read(t, conn)
	require.Equal(t, TypeWelcome, msg.Type)
	var w welcome
	require.NoError(t, json.Unmarshal(msg.Data, &w))
	require.NotEmpty(t, w.ClientID)
	return conn, w.ClientID
}

func read(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func subscribe(t *testing.T, conn *websocket.Conn, id string) {
	t.Helper()
	send(t, conn, ClientMessage{Type: TypeSubscribe, ProposalID: id})
	msg := read(t, conn)
	require.Equal(t, TypeSubscribed, msg.Type)
	require.Equal(t, id, msg.ProposalID)
}

func voteNotification(id int64) governance.Notification {
	return governance.Notification{
		Type:       governance.NotifyVoteCast,
		ProposalID: big.NewInt(id),
		Payload:    map[string]string{"voter": "0xabc"},
	}
}

func globalNotification() governance.Notification {
	return governance.Notification{
		Type:    governance.NotifyProposalCreated,
		Payload: map[string]string{"title": "new"},
	}
}

func TestHub_RoomDelivery(t *testing.T) {
	hub, url := startHub(t, testConfig())
	member, _ := dial(t, url)
	outsider, _ := dial(t, url)

	subscribe(t, member, "7")
	require.Equal(t, 1, hub.RoomSize("7"))

	hub.Notify(voteNotification(7))
	hub.Notify(globalNotification())

	msg := read(t, member)
	assert.Equal(t, "vote_cast", msg.Type)
	assert.Equal(t, "7", msg.ProposalID)
	assert.JSONEq(t, `{"voter":"0xabc"}`, string(msg.Data))
	assert.Equal(t, "proposal_created", read(t, member).Type)

	// The outsider only sees the global notification.
	msg = read(t, outsider)
	assert.Equal(t, "proposal_created", msg.Type)
	assert.Empty(t, msg.ProposalID)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub, url := startHub(t, testConfig())
	conn, _ := dial(t, url)

	subscribe(t, conn, "3")
	send(t, conn, ClientMessage{Type: TypeUnsubscribe, ProposalID: "3"})
	assert.Equal(t, TypeUnsubscribed, read(t, conn).Type)
	assert.Equal(t, 0, hub.RoomSize("3"))

	hub.Notify(voteNotification(3))
	hub.Notify(globalNotification())
	assert.Equal(t, "proposal_created", read(t, conn).Type)
}

func TestHub_ClientMessages(t *testing.T) {
	_, url := startHub(t, testConfig())
	conn, _ := dial(t, url)

	send(t, conn, ClientMessage{Type: TypePing})
	assert.Equal(t, TypePong, read(t, conn).Type)

	send(t, conn, ClientMessage{Type: TypeHeartbeat})
	assert.Equal(t, TypeHeartbeatAck, read(t, conn).Type)

	send(t, conn, ClientMessage{Type: TypeSubscribe, ProposalID: "abc"})
	msg := read(t, conn)
	assert.Equal(t, TypeError, msg.Type)
	assert.Equal(t, "invalid proposal_id", msg.Error)

	send(t, conn, ClientMessage{Type: "dance"})
	assert.Equal(t, "unknown message type: dance", read(t, conn).Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, "invalid message format", read(t, conn).Error)

	// Room keys are canonical decimal ids.
	send(t, conn, ClientMessage{Type: TypeSubscribe, ProposalID: "007"})
	assert.Equal(t, "7", read(t, conn).ProposalID)
}

func TestHub_DisconnectLeavesRooms(t *testing.T) {
	hub, url := startHub(t, testConfig())
	conn, _ := dial(t, url)
	subscribe(t, conn, "1")
	subscribe(t, conn, "2")

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && hub.RoomSize("1") == 0 && hub.RoomSize("2") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_MaxClients(t *testing.T) {
	cfg := testConfig()
	cfg.MaxClients = 1
	_, url := startHub(t, cfg)
	dial(t, url)

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHub_HeartbeatTimeoutClosesConnection(t *testing.T) {
	cfg := testConfig()
	cfg.HeartbeatTimeout = 100 * time.Millisecond
	cfg.SweepInterval = 20 * time.Millisecond
	hub, url := startHub(t, cfg)
	conn, _ := dial(t, url)
	subscribe(t, conn, "9")

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, hub.RoomSize("9"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived), "got %v", err)
}

// The tests below drive the hub directly with hand-built clients.

func fakeClient(h *Hub, id string, buffer int) *Client {
	c := &Client{id: id, hub: h, send: make(chan []byte, buffer), rooms: make(map[string]struct{}), logger: zap.NewNop()}
	c.touch()
	return c
}

func TestHub_SweepIdle(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHub(testConfig(), zap.NewNop())
	h.now = func() time.Time { return now }

	idle := fakeClient(h, "idle", 1)
	active := fakeClient(h, "active", 1)
	require.True(t, h.register(idle))
	require.True(t, h.register(active))
	require.True(t, h.join(idle, "1"))

	before := testutil.ToFloat64(metrics.DroppedClients.WithLabelValues(ReasonHeartbeatTimeout))

	now = now.Add(4 * time.Minute)
	active.touch()
	now = now.Add(61 * time.Second)
	h.sweepIdle()

	assert.Equal(t, 1, h.ClientCount())
	assert.Equal(t, 0, h.RoomSize("1"))
	_, open := <-idle.send
	assert.False(t, open)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DroppedClients.WithLabelValues(ReasonHeartbeatTimeout)))
}

func TestHub_SlowConsumerIsDropped(t *testing.T) {
	h := NewHub(testConfig(), zap.NewNop())
	slow := fakeClient(h, "slow", 1)
	fast := fakeClient(h, "fast", 4)
	require.True(t, h.register(slow))
	require.True(t, h.register(fast))
	require.True(t, h.join(slow, "5"))
	require.True(t, h.join(fast, "5"))

	before := testutil.ToFloat64(metrics.DroppedClients.WithLabelValues(ReasonSlowConsumer))
	broadcasts := testutil.ToFloat64(metrics.Broadcasts.WithLabelValues("vote_cast"))

	h.deliver(voteNotification(5))
	h.deliver(voteNotification(5))

	assert.Equal(t, 1, h.ClientCount())
	assert.Equal(t, 1, h.RoomSize("5"))
	assert.Len(t, fast.send, 2)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DroppedClients.WithLabelValues(ReasonSlowConsumer)))
	assert.Equal(t, broadcasts+2, testutil.ToFloat64(metrics.Broadcasts.WithLabelValues("vote_cast")))

	// Replies to a removed client are discarded.
	h.reply(slow, ServerMessage{Type: TypePong})
}

func TestHub_NotifyNeverBlocks(t *testing.T) {
	h := NewHub(testConfig(), zap.NewNop())
	for i := 0; i < broadcastBuffer+10; i++ {
		h.Notify(globalNotification())
	}
	assert.Len(t, h.broadcast, broadcastBuffer)
}
