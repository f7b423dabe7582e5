package websocket

import (
	"context"
	"encoding/json"

	"campaign-session/internal/entity"
	"campaign-session/internal/mapper"
	"campaign-session/internal/pkg/logger"
)

const messageTypeSessionState = "session_state"

// Hub fans session snapshots out to every connected UI. A client that
// connects late is sent the latest snapshot first.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	// latest is owned by the Run goroutine.
	latest []byte

	logger logger.ILogger
}

func NewHub(log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.snapshots)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = struct{}{}
			if h.latest != nil {
				h.deliver(client, h.latest)
			}
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"client_id": client.ID, "clients": len(h.clients)})

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.snapshots)
				h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"client_id": client.ID, "clients": len(h.clients)})
			}

		case data := <-h.broadcast:
			h.latest = data
			for client := range h.clients {
				h.deliver(client, data)
			}
		}
	}
}

// deliver drops a client whose buffer is full rather than stalling the hub.
func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.snapshots <- data:
	default:
		h.logger.Warn("Hub", "Client snapshot buffer full, dropping client", map[string]interface{}{"client_id": client.ID})
		delete(h.clients, client)
		close(client.snapshots)
	}
}

// PublishState is a session watcher. It never blocks the session.
func (h *Hub) PublishState(st entity.SessionState) {
	data, err := json.Marshal(map[string]interface{}{
		"type": messageTypeSessionState,
		"data": mapper.ToSessionStateResponse(st),
	})
	if err != nil {
		h.logger.Error("Hub", "Failed to encode session state", map[string]interface{}{"error": err.Error()})
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("Hub", "Broadcast queue full, dropping session snapshot", map[string]interface{}{"status": string(st.Status)})
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
