// Package realtime fans governance updates out to websocket observers grouped
// into per-proposal rooms.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/dao-governance/internal/metrics"
	"github.com/chainsafe/dao-governance/pkg/config"
	"github.com/chainsafe/dao-governance/pkg/governance"
)

// Reasons a client is removed from the hub.
const (
	ReasonDisconnect       = "disconnect"
	ReasonHeartbeatTimeout = "heartbeat_timeout"
	ReasonSlowConsumer     = "slow_consumer"
	ReasonShutdown         = "shutdown"
)

const broadcastBuffer = 1024

// Hub tracks connected clients and the proposal rooms they joined. It
// implements the indexer notifier.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	broadcast chan governance.Notification

	heartbeatTimeout time.Duration
	sweepInterval    time.Duration
	maxClients       int
	sendBuffer       int

	now    func() time.Time
	logger *zap.Logger
}

// NewHub creates a hub from configuration
func NewHub(cfg *config.RealtimeConfig, logger *zap.Logger) *Hub {
	return &Hub{
		clients:          make(map[*Client]struct{}),
		rooms:            make(map[string]map[*Client]struct{}),
		broadcast:        make(chan governance.Notification, broadcastBuffer),
		heartbeatTimeout: cfg.HeartbeatTimeout,
		sweepInterval:    cfg.SweepInterval,
		maxClients:       cfg.MaxClients,
		sendBuffer:       cfg.SendBuffer,
		now:              time.Now,
		logger:           logger,
	}
}

// Run delivers notifications and sweeps idle clients until ctx is done. All
// clients are closed on return.
func (h *Hub) Run(ctx context.Context) {
	sweep := time.NewTicker(h.sweepInterval)
	defer sweep.Stop()
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-h.broadcast:
			h.deliver(n)
		case <-sweep.C:
			h.sweepIdle()
		}
	}
}

// Notify queues n for delivery. It never blocks the caller; when the queue is
// full the notification is dropped.
func (h *Hub) Notify(n governance.Notification) {
	select {
	case h.broadcast <- n:
	default:
		metrics.ErrorsTotal.WithLabelValues("realtime", "broadcast_queue_full").Inc()
		h.logger.Warn("broadcast queue full, dropping notification", zap.String("type", string(n.Type)))
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients in the room of proposalID.
func (h *Hub) RoomSize(proposalID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[proposalID])
}

// register adds c unless the hub is full.
func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return false
	}
	h.clients[c] = struct{}{}
	metrics.WebsocketConnections.Inc()
	h.logger.Debug("client registered", zap.String("client_id", c.id), zap.Int("total_clients", len(h.clients)))
	return true
}

// unregister removes c from the hub and every room.
func (h *Hub) unregister(c *Client, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, reason)
}

func (h *Hub) removeLocked(c *Client, reason string) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)

	metrics.WebsocketConnections.Dec()
	metrics.DroppedClients.WithLabelValues(reason).Inc()
	h.logger.Debug("client removed",
		zap.String("client_id", c.id),
		zap.String("reason", reason),
		zap.Int("total_clients", len(h.clients)))
}

func (h *Hub) join(c *Client, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return true
}

func (h *Hub) leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// deliver sends n to its room, or to every client for global notifications.
// Clients whose send buffer is full are dropped.
func (h *Hub) deliver(n governance.Notification) {
	msg := ServerMessage{Type: string(n.Type), Timestamp: h.now().UTC()}
	if !n.Global() {
		msg.ProposalID = n.ProposalID.String()
	}
	data, err := json.Marshal(n.Payload)
	if err != nil {
		h.logger.Error("failed to marshal notification payload", zap.String("type", string(n.Type)), zap.Error(err))
		return
	}
	msg.Data = data
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal notification", zap.String("type", string(n.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	audience := h.clients
	if !n.Global() {
		audience = h.rooms[msg.ProposalID]
	}

	var slow []*Client
	sent := 0
	for c := range audience {
		select {
		case c.send <- frame:
			sent++
		default:
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		h.logger.Warn("client send buffer full, dropping client", zap.String("client_id", c.id))
		h.removeLocked(c, ReasonSlowConsumer)
	}

	metrics.Broadcasts.WithLabelValues(string(n.Type)).Inc()
	h.logger.Debug("notification broadcast",
		zap.String("type", string(n.Type)),
		zap.String("proposal_id", msg.ProposalID),
		zap.Int("recipients", sent))
}

// sweepIdle drops clients that have not sent anything within the heartbeat timeout.
func (h *Hub) sweepIdle() {
	cutoff := h.now().Add(-h.heartbeatTimeout)

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.lastSeen().Before(cutoff) {
			h.removeLocked(c, ReasonHeartbeatTimeout)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c, ReasonShutdown)
	}
	h.logger.Info("realtime hub stopped")
}

// reply queues msg for c alone. Replies to a removed client are discarded.
func (h *Hub) reply(c *Client, msg ServerMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = h.now().UTC()
	}
	frame, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal reply", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
		h.removeLocked(c, ReasonSlowConsumer)
	}
}
