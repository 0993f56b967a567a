package hub

import (
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/protocol"
	"collaborative-canvas/internal/state"
)

// handleFrame decodes and dispatches one inbound frame. Malformed frames are
// logged and dropped here, at the boundary, before any room state is touched.
func (h *Hub) handleFrame(c *Client, raw []byte) {
	logCtx := h.log.WithField("user_id", c.userID)

	msg, err := protocol.Decode(raw)
	if err != nil {
		logCtx.WithError(err).Warn("Dropping undecodable frame")
		return
	}
	logCtx = logCtx.WithField("event", msg.Event)

	switch msg.Event {
	case protocol.EventJoinRoom:
		var req protocol.JoinRoomRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleJoin(c, req)

	case protocol.EventDrawStart:
		var req protocol.DrawStartRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleDrawStart(c, req)

	case protocol.EventDrawMove:
		var req protocol.DrawMoveRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleDrawMove(c, req)

	case protocol.EventDrawEnd:
		var req protocol.DrawEndRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleDrawEnd(c, req)

	case protocol.EventCursorMove:
		var req protocol.CursorMoveRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		// Cursors are relayed, never persisted.
		h.broadcastEvent(req.RoomID, protocol.EventCursorMove, protocol.CursorMoveEvent{
			UserID: c.userID, X: *req.X, Y: *req.Y,
		}, c)

	case protocol.EventUndo:
		var req protocol.UndoRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleUndo(c, req)

	case protocol.EventRedo:
		var req protocol.RedoRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleRedo(c, req)

	case protocol.EventClearCanvas:
		var req protocol.ClearRequest
		if err := msg.Bind(&req); err != nil {
			logCtx.WithError(err).Warn("Dropping malformed frame")
			return
		}
		h.handleClear(c, req)

	default:
		logCtx.WithError(protocol.ErrUnknownEvent).Warn("Dropping frame")
	}
}

// handleJoin puts the client in the room, unicasts the full canvas snapshot
// to the joiner, then announces the join to the rest of the room.
func (h *Hub) handleJoin(c *Client, req protocol.JoinRoomRequest) {
	logCtx := h.log.WithFields(logrus.Fields{"user_id": c.userID, "room_id": req.RoomID})

	if c.roomID != "" && c.roomID != req.RoomID {
		// A connection is in at most one room; switching leaves the old one.
		h.leaveRoom(c, c.roomID)
	}

	st, ok := h.states[req.RoomID]
	if !ok {
		st = state.New()
		h.states[req.RoomID] = st
		logCtx.Info("Room state created")
	}
	user := h.registry.AddUser(req.RoomID, c.userID, req.UserName, req.Color)

	members, ok := h.rooms[req.RoomID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[req.RoomID] = members
	}
	alreadyMember := members[c]
	members[c] = true
	c.roomID = req.RoomID

	// The joiner alone gets the current canvas; this snapshot is also the
	// sole recovery path after a reconnect.
	h.unicastEvent(c, protocol.EventCanvasState, protocol.CanvasStateEvent{
		Paths: st.AllPaths(),
		Users: h.registry.RoomUsers(req.RoomID),
	})

	if !alreadyMember {
		h.broadcastEvent(req.RoomID, protocol.EventUserJoined, protocol.UserJoinedEvent{
			UserID:   c.userID,
			UserName: user.UserName,
			Color:    user.Color,
		}, c)
	}
	h.broadcastEvent(req.RoomID, protocol.EventUsersUpdated, h.registry.RoomUsers(req.RoomID), nil)

	logCtx.WithField("user_name", user.UserName).Info("User joined room")
}

// handleDrawStart commits a new path and echoes the canonical id to the
// whole room, the originator included: that echo is what lets the origin
// reconcile its optimistic local path.
func (h *Hub) handleDrawStart(c *Client, req protocol.DrawStartRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	pathID := st.StartPath(c.userID, *req.X, *req.Y, req.Color, req.LineWidth, req.Tool)
	h.broadcastEvent(req.RoomID, protocol.EventDrawStart, protocol.DrawStartEvent{
		UserID:    c.userID,
		PathID:    pathID,
		X:         *req.X,
		Y:         *req.Y,
		Color:     req.Color,
		LineWidth: req.LineWidth,
		Tool:      req.Tool,
	}, nil)
}

// handleDrawMove appends to the originator's open path and relays the point
// to everyone else; the originator already drew it locally.
func (h *Hub) handleDrawMove(c *Client, req protocol.DrawMoveRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	st.AddPoint(c.userID, *req.X, *req.Y)
	h.broadcastEvent(req.RoomID, protocol.EventDrawMove, protocol.DrawMoveEvent{
		UserID: c.userID, X: *req.X, Y: *req.Y,
	}, c)
}

func (h *Hub) handleDrawEnd(c *Client, req protocol.DrawEndRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	st.EndPath(c.userID)
	h.broadcastEvent(req.RoomID, protocol.EventDrawEnd, protocol.DrawEndEvent{UserID: c.userID}, c)
}

// handleUndo broadcasts only when something was actually removed.
func (h *Hub) handleUndo(c *Client, req protocol.UndoRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	pathID, ok := st.Undo(c.userID)
	if !ok {
		return
	}
	h.broadcastEvent(req.RoomID, protocol.EventUndo, protocol.UndoEvent{
		UserID: c.userID, PathID: pathID,
	}, nil)
}

// handleRedo broadcasts the full restored path: peers dropped it on undo and
// have nothing else to rebuild it from.
func (h *Hub) handleRedo(c *Client, req protocol.RedoRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	path, ok := st.Redo(c.userID)
	if !ok {
		return
	}
	h.broadcastEvent(req.RoomID, protocol.EventRedo, protocol.RedoEvent{
		UserID: c.userID, PathID: path.ID, Path: path,
	}, nil)
}

func (h *Hub) handleClear(c *Client, req protocol.ClearRequest) {
	st, ok := h.states[req.RoomID]
	if !ok {
		return
	}
	st.Clear()
	h.broadcastEvent(req.RoomID, protocol.EventClearCanvas, nil, nil)
	h.log.WithFields(logrus.Fields{"user_id": c.userID, "room_id": req.RoomID}).Info("Canvas cleared")
}
