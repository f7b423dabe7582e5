package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs runs one session stream connection until the peer leaves.
func ServeWs(hub *Hub, c *websocket.Conn) {
	client := &Client{
		ID:        uuid.NewString(),
		hub:       hub,
		conn:      c,
		snapshots: make(chan []byte, 32),
		log:       hub.logger,
	}
	if !hub.join(client) {
		c.Close()
		return
	}

	go client.stream()
	client.listen()
}

// RegisterRoutes mounts the stream at /ws/session.
func RegisterRoutes(app fiber.Router, hub *Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/session", websocket.New(func(c *websocket.Conn) {
		ServeWs(hub, c)
	}))
}
