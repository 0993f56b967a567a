// Package hub routes websocket traffic between connections and room state.
// A single event loop consumes every inbound message and runs it to
// completion, so no two mutations of the same room's DrawingState ever
// interleave; broadcasts are non-blocking channel sends so a slow peer never
// stalls the loop.
package hub

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/protocol"
	"collaborative-canvas/internal/registry"
	"collaborative-canvas/internal/state"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096

	// statsTimeout bounds how long an HTTP stats query waits on the loop.
	statsTimeout = 2 * time.Second
)

type messageKind int

const (
	kindRegister messageKind = iota
	kindUnregister
	kindFrame
	kindStats
)

type hubMessage struct {
	kind   messageKind
	client *Client
	raw    []byte
	stats  *statsQuery
}

type statsQuery struct {
	roomID string
	reply  chan RoomStats
}

// RoomStats is a point-in-time view of one room, for the introspection API.
type RoomStats struct {
	Known        bool `json:"known"`
	Users        int  `json:"users"`
	Paths        int  `json:"paths"`
	HistoryDepth int  `json:"historyDepth"`
	RedoDepth    int  `json:"redoDepth"`
}

// Hub owns the room table and fans events out to room members.
type Hub struct {
	inbox chan hubMessage

	// Everything below is touched only by the Run loop.
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool
	states  map[string]*state.DrawingState

	registry *registry.Registry

	quit     chan struct{}
	stopOnce sync.Once
	log      *logrus.Entry
}

// NewHub creates a Hub bound to the given registry.
func NewHub(reg *registry.Registry) *Hub {
	if reg == nil {
		panic("registry cannot be nil for Hub")
	}
	return &Hub{
		inbox:    make(chan hubMessage, 512),
		clients:  make(map[*Client]bool),
		rooms:    make(map[string]map[*Client]bool),
		states:   make(map[string]*state.DrawingState),
		registry: reg,
		quit:     make(chan struct{}),
		log:      logrus.WithField("component", "hub"),
	}
}

// Run is the hub's event loop. It must run in its own goroutine and is the
// sole writer of every room's DrawingState.
func (h *Hub) Run() {
	h.log.Info("Hub is running")
	for {
		select {
		case msg := <-h.inbox:
			switch msg.kind {
			case kindRegister:
				h.registerClient(msg.client)
			case kindUnregister:
				h.unregisterClient(msg.client)
			case kindFrame:
				h.handleFrame(msg.client, msg.raw)
			case kindStats:
				msg.stats.reply <- h.collectStats(msg.stats.roomID)
			}
		case <-h.quit:
			h.log.Info("Hub is shutting down")
			return
		}
	}
}

// Stop terminates the event loop. In-flight messages may be dropped; the
// process is going away anyway.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register queues a freshly upgraded connection. Returns false if the hub is
// overloaded and the caller should close the connection.
func (h *Hub) Register(c *Client) bool {
	return h.queue(hubMessage{kind: kindRegister, client: c})
}

// Stats queries one room's counters through the event loop, so readers never
// touch DrawingState concurrently with mutations.
func (h *Hub) Stats(roomID string) RoomStats {
	q := &statsQuery{roomID: roomID, reply: make(chan RoomStats, 1)}
	if !h.queue(hubMessage{kind: kindStats, stats: q}) {
		return RoomStats{}
	}
	select {
	case s := <-q.reply:
		return s
	case <-time.After(statsTimeout):
		return RoomStats{}
	}
}

// queue enqueues without blocking; a full inbox drops the message.
func (h *Hub) queue(msg hubMessage) bool {
	select {
	case h.inbox <- msg:
		return true
	default:
		h.log.WithField("kind", int(msg.kind)).Warn("Hub inbox full, dropping message")
		return false
	}
}

func (h *Hub) registerClient(c *Client) {
	if c == nil {
		h.log.Error("Attempted to register a nil client")
		return
	}
	h.clients[c] = true
	h.unicastEvent(c, protocol.EventWelcome, protocol.WelcomeEvent{UserID: c.userID})
	h.log.WithField("user_id", c.userID).Info("Client registered")
}

func (h *Hub) unregisterClient(c *Client) {
	if c == nil || !h.clients[c] {
		return
	}
	delete(h.clients, c)

	// Disconnects carry no room context; the registry's reverse lookup
	// tells us what to tear down. A user who never joined is a silent no-op.
	if roomID, ok := h.registry.UserRoom(c.userID); ok {
		h.leaveRoom(c, roomID)
	}

	// The clients guard above makes this path run at most once per client,
	// so the close cannot double-fire.
	close(c.send)
	h.log.WithField("user_id", c.userID).Info("Client unregistered")
}

// leaveRoom removes the client from its room, notifies the remaining
// members and destroys the room once it is empty.
func (h *Hub) leaveRoom(c *Client, roomID string) {
	h.registry.RemoveUser(roomID, c.userID)
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
			delete(h.states, roomID)
			h.log.WithField("room_id", roomID).Info("Room empty, state destroyed")
		}
	}
	c.roomID = ""

	h.broadcastEvent(roomID, protocol.EventUserLeft, protocol.UserLeftEvent{UserID: c.userID}, nil)
	h.broadcastEvent(roomID, protocol.EventUsersUpdated, h.registry.RoomUsers(roomID), nil)
}

func (h *Hub) collectStats(roomID string) RoomStats {
	st, ok := h.states[roomID]
	if !ok {
		return RoomStats{}
	}
	return RoomStats{
		Known:        true,
		Users:        len(h.rooms[roomID]),
		Paths:        st.Len(),
		HistoryDepth: st.HistoryLen(),
		RedoDepth:    st.RedoLen(),
	}
}

// sendTo queues a frame for one client without blocking. If the client's
// queue is full the frame is dropped for that client only.
func (h *Hub) sendTo(c *Client, frame []byte) {
	select {
	case c.send <- frame:
	default:
		h.log.WithField("user_id", c.userID).Warn("Client send queue full, dropping frame")
	}
}

// broadcastEvent encodes once and fans out to every room member except the
// excluded client (nil to include everyone).
func (h *Hub) broadcastEvent(roomID, event string, data interface{}, except *Client) {
	members, ok := h.rooms[roomID]
	if !ok || len(members) == 0 {
		return
	}
	frame, err := protocol.Encode(event, data)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Failed to encode broadcast")
		return
	}
	for c := range members {
		if c == except {
			continue
		}
		h.sendTo(c, frame)
	}
}

// unicastEvent sends one event to a single client.
func (h *Hub) unicastEvent(c *Client, event string, data interface{}) {
	frame, err := protocol.Encode(event, data)
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("Failed to encode unicast")
		return
	}
	h.sendTo(c, frame)
}
