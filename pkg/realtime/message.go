package realtime

import (
	"encoding/json"
	"time"
)

// Client message types.
const (
	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeHeartbeat   = "heartbeat"
	TypePing        = "ping"
)

// Server message types besides the notification types.
const (
	TypeWelcome      = "welcome"
	TypeSubscribed   = "subscribed"
	TypeUnsubscribed = "unsubscribed"
	TypeHeartbeatAck = "heartbeat_ack"
	TypePong         = "pong"
	TypeError        = "error"
)

// ClientMessage is a message sent by an observer.
type ClientMessage struct {
	Type       string `json:"type"`
	ProposalID string `json:"proposal_id,omitempty"`
}

// ServerMessage is a message pushed to an observer.
type ServerMessage struct {
	Type       string          `json:"type"`
	ProposalID string          `json:"proposal_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}
