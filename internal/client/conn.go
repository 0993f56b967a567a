package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/protocol"
)

const writeWait = 10 * time.Second

// Conn is a websocket connection to the canvas server. It implements
// Emitter; reads are driven by Listen.
type Conn struct {
	ws  *websocket.Conn
	mu  sync.Mutex // gorilla allows one concurrent writer
	log *logrus.Entry
}

// Dial connects to a server's /ws endpoint.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", url, err)
	}
	return &Conn{
		ws:  ws,
		log: logrus.WithField("component", "client_conn"),
	}, nil
}

// Emit sends one event frame.
func (c *Conn) Emit(event string, data interface{}) error {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, frame)
}

// Listen pumps server events into the reconciler until the connection
// closes or ctx is done. Recovery after a drop is a fresh Dial plus a new
// JoinRoom: the canvas-state snapshot is the sole resync mechanism.
func (c *Conn) Listen(ctx context.Context, r *Reconciler) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	for {
		messageType, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return fmt.Errorf("client: read: %w", err)
			}
			return nil
		}
		if messageType != websocket.TextMessage {
			continue
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			c.log.WithError(err).Warn("Dropping undecodable server frame")
			continue
		}
		r.Apply(msg)
	}
}

// Close tears the connection down.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.ws.Close()
}
