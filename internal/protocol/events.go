// Package protocol defines the websocket wire format: a JSON envelope with an
// event name and a typed payload per event. Payload validation lives here so
// malformed frames are rejected at the boundary and never reach room state.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"collaborative-canvas/internal/domain"
)

// Event names. Requests travel client -> server, events server -> room.
const (
	// welcome is sent once per connection so the client learns its
	// server-assigned identity, the way a socket handshake would.
	EventWelcome = "welcome"

	EventJoinRoom     = "join-room"
	EventCanvasState  = "canvas-state"
	EventUserJoined   = "user-joined"
	EventUsersUpdated = "users-updated"
	EventDrawStart    = "draw-start"
	EventDrawMove     = "draw-move"
	EventDrawEnd      = "draw-end"
	EventCursorMove   = "cursor-move"
	EventUndo         = "undo"
	EventRedo         = "redo"
	EventClearCanvas  = "clear-canvas"
	EventUserLeft     = "user-left"
)

var (
	ErrMalformedPayload = errors.New("protocol: malformed payload")
	ErrUnknownEvent     = errors.New("protocol: unknown event")
)

// Message is the envelope every frame is wrapped in.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// --- client -> server requests ---

// Coordinates use pointers so a missing field is distinguishable from zero,
// which is a valid canvas position.

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

func (r *JoinRoomRequest) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("%w: join-room requires roomId", ErrMalformedPayload)
	}
	return nil
}

type DrawStartRequest struct {
	RoomID    string      `json:"roomId"`
	X         *float64    `json:"x"`
	Y         *float64    `json:"y"`
	Color     string      `json:"color"`
	LineWidth float64     `json:"lineWidth"`
	Tool      domain.Tool `json:"tool"`
}

func (r *DrawStartRequest) Validate() error {
	if r.RoomID == "" || r.X == nil || r.Y == nil {
		return fmt.Errorf("%w: draw-start requires roomId and coordinates", ErrMalformedPayload)
	}
	if !r.Tool.Valid() {
		return fmt.Errorf("%w: draw-start has unknown tool %q", ErrMalformedPayload, r.Tool)
	}
	if r.LineWidth <= 0 {
		return fmt.Errorf("%w: draw-start requires a positive lineWidth", ErrMalformedPayload)
	}
	return nil
}

type DrawMoveRequest struct {
	RoomID string   `json:"roomId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

func (r *DrawMoveRequest) Validate() error {
	if r.RoomID == "" || r.X == nil || r.Y == nil {
		return fmt.Errorf("%w: draw-move requires roomId and coordinates", ErrMalformedPayload)
	}
	return nil
}

type DrawEndRequest struct {
	RoomID string `json:"roomId"`
}

func (r *DrawEndRequest) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("%w: draw-end requires roomId", ErrMalformedPayload)
	}
	return nil
}

type CursorMoveRequest struct {
	RoomID string   `json:"roomId"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

func (r *CursorMoveRequest) Validate() error {
	if r.RoomID == "" || r.X == nil || r.Y == nil {
		return fmt.Errorf("%w: cursor-move requires roomId and coordinates", ErrMalformedPayload)
	}
	return nil
}

type UndoRequest struct {
	RoomID string `json:"roomId"`
}

func (r *UndoRequest) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("%w: undo requires roomId", ErrMalformedPayload)
	}
	return nil
}

type RedoRequest struct {
	RoomID string `json:"roomId"`
}

func (r *RedoRequest) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("%w: redo requires roomId", ErrMalformedPayload)
	}
	return nil
}

type ClearRequest struct {
	RoomID string `json:"roomId"`
}

func (r *ClearRequest) Validate() error {
	if r.RoomID == "" {
		return fmt.Errorf("%w: clear-canvas requires roomId", ErrMalformedPayload)
	}
	return nil
}

// --- server -> client events ---

type WelcomeEvent struct {
	UserID string `json:"userId"`
}

type CanvasStateEvent struct {
	Paths []*domain.Path    `json:"paths"`
	Users []domain.UserInfo `json:"users"`
}

type UserJoinedEvent struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Color    string `json:"color"`
}

// users-updated carries the full roster as its data payload.

type DrawStartEvent struct {
	UserID    string      `json:"userId"`
	PathID    string      `json:"pathId"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Color     string      `json:"color"`
	LineWidth float64     `json:"lineWidth"`
	Tool      domain.Tool `json:"tool"`
}

type DrawMoveEvent struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type DrawEndEvent struct {
	UserID string `json:"userId"`
}

type CursorMoveEvent struct {
	UserID string  `json:"userId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type UndoEvent struct {
	UserID string `json:"userId"`
	PathID string `json:"pathId"`
}

// RedoEvent carries the full restored path: peers discarded it on undo and
// need complete data to put it back.
type RedoEvent struct {
	UserID string       `json:"userId"`
	PathID string       `json:"pathId"`
	Path   *domain.Path `json:"path"`
}

type UserLeftEvent struct {
	UserID string `json:"userId"`
}
