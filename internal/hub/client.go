package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client is one websocket connection known to the Hub. Its identity is a
// server-assigned uuid; the connection never tells the server who it is.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// roomID is owned by the hub loop; the pumps never read it.
	roomID string

	// send buffers outbound frames so broadcasts never block the hub loop.
	send chan []byte
}

// NewClient wraps an upgraded connection. The caller must Register it with
// the hub and then start its pumps via Run.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: uuid.NewString(),
		send:   make(chan []byte, 256),
	}
}

// UserID is the server-assigned connection identity.
func (c *Client) UserID() string { return c.userID }

// Run starts the read and write pumps.
func (c *Client) Run() {
	go c.writePump()
	go c.readPump()
}

// CloseConn force-closes the underlying connection.
func (c *Client) CloseConn() { c.conn.Close() }

// readPump forwards inbound frames to the hub until the connection dies,
// then requests unregistration.
func (c *Client) readPump() {
	logCtx := logrus.WithField("user_id", c.userID)
	defer func() {
		select {
		case c.hub.inbox <- hubMessage{kind: kindUnregister, client: c}:
		case <-time.After(time.Second):
			logCtx.Warn("Timeout sending unregister to hub")
		}
		c.conn.Close()
		logCtx.Debug("readPump exited")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logCtx.WithError(err).Warn("WebSocket read error")
			} else {
				logCtx.Debug("WebSocket connection closed")
			}
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if !c.hub.queue(hubMessage{kind: kindFrame, client: c, raw: message}) {
			logCtx.Warn("Hub inbox full, dropping client frame")
		}
	}
}

// writePump drains the send queue to the connection and keeps the peer alive
// with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	logCtx := logrus.WithField("user_id", c.userID)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		logCtx.Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the queue during unregistration.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logCtx.WithError(err).Warn("Failed to write frame")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logCtx.WithError(err).Warn("Failed to send ping")
				return
			}
		}
	}
}
