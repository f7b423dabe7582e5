package websocket

import (
	"time"

	"campaign-session/internal/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

const (
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
	pingEvery    = idleTimeout * 9 / 10

	// Inbound frames are only pongs and close frames.
	inboundLimit = 512
)

// Client is one UI connection subscribed to session snapshots.
type Client struct {
	ID string

	hub  *Hub
	conn *websocket.Conn
	log  logger.ILogger

	// snapshots is closed by the hub when the client is dropped.
	snapshots chan []byte
}

func (c *Client) touch() error {
	return c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

func (c *Client) write(kind int, data []byte) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(kind, data)
}

// listen blocks until the peer goes away, then detaches from the hub.
func (c *Client) listen() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(inboundLimit)
	_ = c.touch()
	c.conn.SetPongHandler(func(string) error { return c.touch() })

	for {
		_, _, err := c.conn.ReadMessage()
		if err == nil {
			continue
		}
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			c.log.Warn("WebSocket", "Unexpected close", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
		}
		return
	}
}

// stream writes each snapshot as its own text frame and keeps the
// connection alive with pings.
func (c *Client) stream() {
	keepalive := time.NewTicker(pingEvery)
	defer func() {
		keepalive.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case snapshot, open := <-c.snapshots:
			if !open {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, snapshot); err != nil {
				return
			}
		case <-keepalive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.log.Debug("WebSocket", "Ping failed", map[string]interface{}{"client_id": c.ID, "error": err.Error()})
				return
			}
		}
	}
}
