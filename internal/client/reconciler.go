// Package client implements the canvas-side half of the protocol: a local
// optimistic path store, reconciliation of locally-originated strokes with
// server-confirmed identifiers, and application of remote deltas. It renders
// through the Renderer interface and talks to the server through an Emitter,
// so it runs equally well under a UI or headless.
package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/protocol"
)

// Emitter sends one protocol event to the server.
type Emitter interface {
	Emit(event string, data interface{}) error
}

// Reconciler keeps the local canvas eventually consistent with the room.
// Local input renders synchronously; server echoes are merged whenever they
// arrive. All methods are safe for concurrent use.
type Reconciler struct {
	mu       sync.Mutex
	userID   string // server-assigned, learned from the welcome event
	roomID   string
	store    *Store
	renderer Renderer
	emitter  Emitter
	log      *logrus.Entry

	// localOpen is our stroke currently receiving points; pending is our
	// temporary id awaiting the server's canonical one. pending outlives
	// the stroke: the ack may arrive after FinishStroke.
	localOpen string
	pending   string

	// openByUser mirrors the server's open-path rule for remote peers:
	// draw-move frames carry no path id, only an owner.
	openByUser map[string]string

	// undoStack orders our own committed paths for optimistic local undo.
	undoStack []string

	// Optional notification hooks for the embedding UI.
	OnUsersUpdated func(users []domain.UserInfo)
	OnUserJoined   func(userID, userName, color string)
	OnUserLeft     func(userID string)
	OnCursorMove   func(userID string, x, y float64)
}

// NewReconciler creates a Reconciler. A nil renderer means headless.
func NewReconciler(emitter Emitter, renderer Renderer) *Reconciler {
	if emitter == nil {
		panic("Emitter cannot be nil for Reconciler")
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}
	return &Reconciler{
		store:      NewStore(),
		renderer:   renderer,
		emitter:    emitter,
		openByUser: make(map[string]string),
		log:        logrus.WithField("component", "reconciler"),
	}
}

// UserID returns the server-assigned identity, empty before the welcome.
func (r *Reconciler) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.userID
}

// Paths snapshots the local store in draw order.
func (r *Reconciler) Paths() []*domain.Path {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Path, 0, r.store.Len())
	for _, p := range r.store.Paths() {
		out = append(out, p.Clone())
	}
	return out
}

// --- local input ---

// JoinRoom requests room membership; the canvas-state snapshot follows.
func (r *Reconciler) JoinRoom(roomID, userName, color string) error {
	r.mu.Lock()
	r.roomID = roomID
	r.mu.Unlock()
	return r.emitter.Emit(protocol.EventJoinRoom, protocol.JoinRoomRequest{
		RoomID: roomID, UserName: userName, Color: color,
	})
}

// BeginStroke starts a local stroke under a temporary id, renders it
// immediately and asks the server for a canonical id. Returns the temp id.
func (r *Reconciler) BeginStroke(x, y float64, color string, lineWidth float64, tool domain.Tool) string {
	r.mu.Lock()
	tempID := "local-" + uuid.NewString()
	path := &domain.Path{
		ID:        tempID,
		OwnerID:   r.userID,
		Tool:      tool,
		Color:     color,
		LineWidth: lineWidth,
		Opacity:   1.0,
		Points:    []domain.Point{{X: x, Y: y}},
		CreatedAt: time.Now().UnixMilli(),
	}
	r.store.Add(path)
	r.localOpen = tempID
	r.pending = tempID
	roomID := r.roomID
	r.mu.Unlock()

	r.renderer.DrawStroke(path)
	r.emit(protocol.EventDrawStart, protocol.DrawStartRequest{
		RoomID: roomID, X: &x, Y: &y, Color: color, LineWidth: lineWidth, Tool: tool,
	})
	return tempID
}

// ExtendStroke appends a point to the open local stroke. No open stroke is a
// silent no-op.
func (r *Reconciler) ExtendStroke(x, y float64) {
	r.mu.Lock()
	path, ok := r.store.Get(r.localOpen)
	if !ok {
		r.mu.Unlock()
		return
	}
	path.Points = append(path.Points, domain.Point{X: x, Y: y})
	roomID := r.roomID
	r.mu.Unlock()

	r.renderer.DrawStroke(path)
	r.emit(protocol.EventDrawMove, protocol.DrawMoveRequest{RoomID: roomID, X: &x, Y: &y})
}

// FinishStroke commits the open stroke locally and signals completion.
func (r *Reconciler) FinishStroke() {
	r.mu.Lock()
	if r.localOpen == "" {
		r.mu.Unlock()
		return
	}
	r.undoStack = append(r.undoStack, r.localOpen)
	r.localOpen = ""
	roomID := r.roomID
	r.mu.Unlock()

	r.emit(protocol.EventDrawEnd, protocol.DrawEndRequest{RoomID: roomID})
}

// DrawShape commits a two-point shape (line, rectangle, circle) in one go,
// mirroring the start/move/end triple the protocol expects.
func (r *Reconciler) DrawShape(start, end domain.Point, color string, lineWidth float64, tool domain.Tool) string {
	tempID := r.BeginStroke(start.X, start.Y, color, lineWidth, tool)
	r.mu.Lock()
	path, ok := r.store.Get(tempID)
	if ok {
		path.Start = &start
		path.End = &end
	}
	r.mu.Unlock()
	if ok {
		r.renderer.DrawShapePreview(path)
	}
	r.ExtendStroke(end.X, end.Y)
	r.FinishStroke()
	return tempID
}

// CursorMove publishes the local cursor position; never stored anywhere.
func (r *Reconciler) CursorMove(x, y float64) {
	r.mu.Lock()
	roomID := r.roomID
	r.mu.Unlock()
	r.emit(protocol.EventCursorMove, protocol.CursorMoveRequest{RoomID: roomID, X: &x, Y: &y})
}

// Undo optimistically removes our most recent committed path and asks the
// server to undo. The echo reconciles any divergence.
func (r *Reconciler) Undo() {
	r.mu.Lock()
	if n := len(r.undoStack); n > 0 {
		pathID := r.undoStack[n-1]
		r.undoStack = r.undoStack[:n-1]
		r.store.Remove(pathID)
	}
	roomID := r.roomID
	paths := r.store.Paths()
	r.mu.Unlock()

	r.renderer.RedrawAll(paths)
	r.emit(protocol.EventUndo, protocol.UndoRequest{RoomID: roomID})
}

// Redo requests a redo. Restoration happens when the echo arrives: the
// removed path's data lives on the server's redo stack, not here.
func (r *Reconciler) Redo() {
	r.mu.Lock()
	roomID := r.roomID
	r.mu.Unlock()
	r.emit(protocol.EventRedo, protocol.RedoRequest{RoomID: roomID})
}

// ClearCanvas wipes the local canvas and broadcasts the wipe.
func (r *Reconciler) ClearCanvas() {
	r.mu.Lock()
	r.store.Clear()
	r.undoStack = nil
	r.localOpen = ""
	roomID := r.roomID
	r.mu.Unlock()

	r.renderer.RedrawAll(nil)
	r.emit(protocol.EventClearCanvas, protocol.ClearRequest{RoomID: roomID})
}

func (r *Reconciler) emit(event string, data interface{}) {
	if err := r.emitter.Emit(event, data); err != nil {
		r.log.WithError(err).WithField("event", event).Warn("Failed to emit event")
	}
}

// --- server events ---

// Apply merges one server event into local state. Unknown or malformed
// events are logged and dropped; they never corrupt the local canvas.
func (r *Reconciler) Apply(msg protocol.Message) {
	logCtx := r.log.WithField("event", msg.Event)
	fail := func(err error) { logCtx.WithError(err).Warn("Dropping malformed server event") }

	switch msg.Event {
	case protocol.EventWelcome:
		var ev protocol.WelcomeEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.mu.Lock()
		r.userID = ev.UserID
		r.mu.Unlock()

	case protocol.EventCanvasState:
		var ev protocol.CanvasStateEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.applyCanvasState(ev)

	case protocol.EventDrawStart:
		var ev protocol.DrawStartEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.applyDrawStart(ev)

	case protocol.EventDrawMove:
		var ev protocol.DrawMoveEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.applyDrawMove(ev)

	case protocol.EventDrawEnd:
		var ev protocol.DrawEndEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.mu.Lock()
		delete(r.openByUser, ev.UserID)
		r.mu.Unlock()

	case protocol.EventCursorMove:
		var ev protocol.CursorMoveEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.mu.Lock()
		self := ev.UserID == r.userID
		cb := r.OnCursorMove
		r.mu.Unlock()
		if !self && cb != nil {
			cb(ev.UserID, ev.X, ev.Y)
		}

	case protocol.EventUndo:
		var ev protocol.UndoEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.applyUndo(ev)

	case protocol.EventRedo:
		var ev protocol.RedoEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil || ev.Path == nil {
			fail(err)
			return
		}
		r.applyRedo(ev)

	case protocol.EventClearCanvas:
		r.mu.Lock()
		r.store.Clear()
		r.undoStack = nil
		r.localOpen = ""
		r.pending = ""
		paths := r.store.Paths()
		r.mu.Unlock()
		r.renderer.RedrawAll(paths)

	case protocol.EventUserJoined:
		var ev protocol.UserJoinedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		if r.OnUserJoined != nil {
			r.OnUserJoined(ev.UserID, ev.UserName, ev.Color)
		}

	case protocol.EventUsersUpdated:
		var users []domain.UserInfo
		if err := json.Unmarshal(msg.Data, &users); err != nil {
			fail(err)
			return
		}
		if r.OnUsersUpdated != nil {
			r.OnUsersUpdated(users)
		}

	case protocol.EventUserLeft:
		var ev protocol.UserLeftEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			fail(err)
			return
		}
		r.mu.Lock()
		delete(r.openByUser, ev.UserID)
		cb := r.OnUserLeft
		r.mu.Unlock()
		if cb != nil {
			cb(ev.UserID)
		}

	default:
		logCtx.Debug("Ignoring unknown server event")
	}
}

// applyCanvasState replaces the local canvas with the server snapshot; this
// is both the join handshake and the reconnect recovery path.
func (r *Reconciler) applyCanvasState(ev protocol.CanvasStateEvent) {
	r.mu.Lock()
	r.store.Clear()
	r.undoStack = nil
	for _, p := range ev.Paths {
		r.store.Add(p)
		if p.OwnerID == r.userID {
			r.undoStack = append(r.undoStack, p.ID)
		}
	}
	paths := r.store.Paths()
	cb := r.OnUsersUpdated
	r.mu.Unlock()

	r.renderer.RedrawAll(paths)
	if cb != nil {
		cb(ev.Users)
	}
}

// applyDrawStart either confirms our own in-flight stroke under the server's
// canonical id, or opens a fresh path for a remote peer.
func (r *Reconciler) applyDrawStart(ev protocol.DrawStartEvent) {
	r.mu.Lock()
	if ev.UserID == r.userID {
		if r.pending != "" && r.store.Confirm(r.pending, ev.PathID) {
			for i, id := range r.undoStack {
				if id == r.pending {
					r.undoStack[i] = ev.PathID
				}
			}
			if r.localOpen == r.pending {
				r.localOpen = ev.PathID
			}
			r.pending = ""
		}
		r.mu.Unlock()
		return
	}

	start := domain.Point{X: ev.X, Y: ev.Y}
	path := &domain.Path{
		ID:        ev.PathID,
		OwnerID:   ev.UserID,
		Tool:      ev.Tool,
		Color:     ev.Color,
		LineWidth: ev.LineWidth,
		Opacity:   1.0,
		Points:    []domain.Point{start},
		Start:     &start,
		End:       &start,
		CreatedAt: time.Now().UnixMilli(),
	}
	r.store.Add(path)
	r.openByUser[ev.UserID] = ev.PathID
	r.mu.Unlock()

	if ev.Tool.Shape() {
		r.renderer.DrawShapePreview(path)
	} else {
		r.renderer.DrawStroke(path)
	}
}

// applyDrawMove extends a remote peer's open path. An unmatched move fails
// silently, mirroring the server's tolerance for out-of-order delivery.
func (r *Reconciler) applyDrawMove(ev protocol.DrawMoveEvent) {
	r.mu.Lock()
	if ev.UserID == r.userID {
		r.mu.Unlock()
		return
	}
	pathID, ok := r.openByUser[ev.UserID]
	if !ok {
		r.mu.Unlock()
		return
	}
	path, ok := r.store.Get(pathID)
	if !ok {
		r.mu.Unlock()
		return
	}
	point := domain.Point{X: ev.X, Y: ev.Y}
	path.Points = append(path.Points, point)
	path.End = &point
	paths := r.store.Paths()
	r.mu.Unlock()

	r.renderer.RedrawAll(paths)
}

// applyUndo removes the named path. For our own echo this is usually a
// no-op: the optimistic removal already happened.
func (r *Reconciler) applyUndo(ev protocol.UndoEvent) {
	r.mu.Lock()
	removed := r.store.Remove(ev.PathID)
	for i, id := range r.undoStack {
		if id == ev.PathID {
			r.undoStack = append(r.undoStack[:i], r.undoStack[i+1:]...)
			break
		}
	}
	paths := r.store.Paths()
	r.mu.Unlock()

	if removed {
		r.renderer.RedrawAll(paths)
	}
}

// applyRedo restores the full path from the event; our own redo restores the
// same way since the data only survived on the server.
func (r *Reconciler) applyRedo(ev protocol.RedoEvent) {
	r.mu.Lock()
	r.store.Add(ev.Path)
	if ev.UserID == r.userID {
		r.undoStack = append(r.undoStack, ev.Path.ID)
	}
	paths := r.store.Paths()
	r.mu.Unlock()

	r.renderer.RedrawAll(paths)
}
