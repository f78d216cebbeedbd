package realtime

import (
	"encoding/json"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Client is one websocket observer. rooms is guarded by the hub lock.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	rooms map[string]struct{}
	seen  atomic.Int64

	logger *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn) *Client {
	id := uuid.NewString()
	c := &Client{
		id:     id,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, hub.sendBuffer),
		rooms:  make(map[string]struct{}),
		logger: hub.logger.With(zap.String("client_id", id)),
	}
	c.touch()
	return c
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.id
}

func (c *Client) touch() {
	c.seen.Store(c.hub.now().UnixNano())
}

func (c *Client) lastSeen() time.Time {
	return time.Unix(0, c.seen.Load())
}

// readPump handles client messages until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c, ReasonDisconnect)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.handleMessage(message)
	}
}

// writePump writes queued frames and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub removed the client.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.hub.reply(c, ServerMessage{Type: TypeError, Error: "invalid message format"})
		return
	}
	c.touch()

	switch msg.Type {
	case TypeSubscribe:
		room, ok := roomKey(msg.ProposalID)
		if !ok {
			c.hub.reply(c, ServerMessage{Type: TypeError, Error: "invalid proposal_id"})
			return
		}
		if c.hub.join(c, room) {
			c.hub.reply(c, ServerMessage{Type: TypeSubscribed, ProposalID: room})
		}
	case TypeUnsubscribe:
		room, ok := roomKey(msg.ProposalID)
		if !ok {
			c.hub.reply(c, ServerMessage{Type: TypeError, Error: "invalid proposal_id"})
			return
		}
		c.hub.leave(c, room)
		c.hub.reply(c, ServerMessage{Type: TypeUnsubscribed, ProposalID: room})
	case TypeHeartbeat:
		c.hub.reply(c, ServerMessage{Type: TypeHeartbeatAck})
	case TypePing:
		c.hub.reply(c, ServerMessage{Type: TypePong})
	default:
		c.hub.reply(c, ServerMessage{Type: TypeError, Error: "unknown message type: " + msg.Type})
	}
}

// roomKey canonicalizes a decimal proposal id.
func roomKey(id string) (string, bool) {
	v, ok := new(big.Int).SetString(id, 10)
	if !ok || v.Sign() < 0 {
		return "", false
	}
	return v.String(), true
}
