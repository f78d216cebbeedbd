package realtime

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type welcome struct {
	ClientID string `json:"client_id"`
}

// Upgrader returns a websocket upgrader accepting the given origins. An empty
// list accepts every origin.
func Upgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range allowedOrigins {
				if allowed == "*" || strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// Handler upgrades requests to websocket connections served by hub.
func Handler(hub *Hub, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub.maxClients > 0 && hub.ClientCount() >= hub.maxClients {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.logger.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		c := newClient(hub, conn)
		if !hub.register(c) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"))
			_ = conn.Close()
			return
		}

		go c.writePump()
		go c.readPump()

		data, _ := json.Marshal(welcome{ClientID: c.id})
		hub.reply(c, ServerMessage{Type: TypeWelcome, Data: data})
	}
}
