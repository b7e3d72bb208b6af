package hub

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod is the interval between pings. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxInboundSize bounds inbound frames; clients only receive, so
	// anything large is a misbehaving peer.
	maxInboundSize = 512

	// sendBufferSize is the per-client outbound buffer. When it fills, the
	// hub drops the client rather than block the event loop.
	sendBufferSize = 32
)

// Client is one live websocket connection, bound to the verified email of
// the authenticated user. The email, not any client-supplied value, decides
// which room the connection lands in.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	email  string
	send   chan []byte
	logger *slog.Logger
}

// NewClient wraps a websocket connection for the given verified email.
// The caller must Register the client with the hub and start both pumps.
func NewClient(h *Hub, conn *websocket.Conn, email string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		hub:    h,
		conn:   conn,
		email:  email,
		send:   make(chan []byte, sendBufferSize),
		logger: logger.With(slog.String("component", "hub_client")),
	}
}

// Email returns the verified email this connection is bound to.
func (c *Client) Email() string {
	return c.email
}

// ReadPump drains inbound frames until the connection closes, then
// unregisters the client. Inbound payloads are discarded: room membership is
// derived from the verified identity at connect time, never from messages.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("unexpected close", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// WritePump forwards queued events to the peer and keeps the connection
// alive with pings. It exits when the hub closes the send channel or a write
// fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub dropped us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
