// Package state holds the authoritative drawing state of a single room: the
// committed paths, each user's path history, the shared undo log and the
// room-wide redo stack.
//
// A DrawingState is not safe for concurrent use. The hub's event loop is its
// single writer; every mutation runs to completion before the next frame is
// dispatched, which is the room's whole concurrency story.
package state

import (
	"fmt"
	"sort"
	"time"

	"collaborative-canvas/internal/domain"
)

// historyEntry records one committed add operation. The log is shared across
// users and kept in chronological order; undo filters it per user.
type historyEntry struct {
	PathID string
	UserID string
}

// redoEntry keeps the full removed path so redo can restore it verbatim.
type redoEntry struct {
	PathID string
	UserID string
	Path   *domain.Path
}

// DrawingState is the per-room state machine.
type DrawingState struct {
	paths     map[string]*domain.Path
	userPaths map[string][]string
	history   []historyEntry
	redoStack []redoEntry

	// open indexes each user's currently-open path. A new StartPath
	// implicitly closes the previous one; undoing the open path drops the
	// entry so stray draw-move frames fall into the silent no-op case.
	open map[string]string

	// seq orders snapshot output. Entries survive undo so a redone path
	// returns to its original position.
	seq     map[string]uint64
	counter uint64
}

// New returns an empty DrawingState.
func New() *DrawingState {
	return &DrawingState{
		paths:     make(map[string]*domain.Path),
		userPaths: make(map[string][]string),
		open:      make(map[string]string),
		seq:       make(map[string]uint64),
	}
}

// StartPath allocates a room-unique path id, registers a path with a single
// initial point and appends it to the shared history. Any new path
// invalidates the whole room's redo stack, not just the owner's entries.
func (s *DrawingState) StartPath(userID string, x, y float64, color string, lineWidth float64, tool domain.Tool) string {
	// The counter alone guarantees uniqueness even when the clock does not
	// advance between calls; the timestamp is kept for readability.
	pathID := fmt.Sprintf("path-%d-%d", time.Now().UnixMilli(), s.counter)
	path := &domain.Path{
		ID:        pathID,
		OwnerID:   userID,
		Tool:      tool,
		Color:     color,
		LineWidth: lineWidth,
		Opacity:   1.0,
		Points:    []domain.Point{{X: x, Y: y}},
		CreatedAt: time.Now().UnixMilli(),
	}

	s.paths[pathID] = path
	s.userPaths[userID] = append(s.userPaths[userID], pathID)
	s.history = append(s.history, historyEntry{PathID: pathID, UserID: userID})
	s.open[userID] = pathID
	s.seq[pathID] = s.counter
	s.counter++

	s.redoStack = s.redoStack[:0]

	return pathID
}

// AddPoint appends a point to the user's open path. A user with no open path
// is a silent no-op: out-of-order or duplicate delivery must not fail.
func (s *DrawingState) AddPoint(userID string, x, y float64) bool {
	pathID, ok := s.open[userID]
	if !ok {
		return false
	}
	path, ok := s.paths[pathID]
	if !ok {
		return false
	}
	path.Points = append(path.Points, domain.Point{X: x, Y: y})
	return true
}

// EndPath marks the user's stroke complete. It performs no mutation: the
// open index stays in place until the next StartPath implicitly closes it,
// so late-arriving points still land on the finished stroke. The operation
// exists so callers have a defined finalization point.
func (s *DrawingState) EndPath(userID string) {}

// Undo removes the user's most recent committed path and parks it on the
// redo stack. The scan is per user: another user's newer paths stay put.
// Returns the removed path id, or false if the user has nothing to undo.
func (s *DrawingState) Undo(userID string) (string, bool) {
	for i := len(s.history) - 1; i >= 0; i-- {
		entry := s.history[i]
		if entry.UserID != userID {
			continue
		}
		path, ok := s.paths[entry.PathID]
		if !ok {
			continue
		}

		delete(s.paths, entry.PathID)
		s.userPaths[userID] = removeID(s.userPaths[userID], entry.PathID)
		if s.open[userID] == entry.PathID {
			delete(s.open, userID)
		}
		s.redoStack = append(s.redoStack, redoEntry{
			PathID: entry.PathID,
			UserID: userID,
			Path:   path,
		})
		s.history = append(s.history[:i], s.history[i+1:]...)
		return entry.PathID, true
	}
	return "", false
}

// Redo restores the user's most recently undone path verbatim. The stack is
// shared room-wide but searched per user, so one user's redo never consumes
// another's entry. Returns false if the user has no pending redo.
func (s *DrawingState) Redo(userID string) (*domain.Path, bool) {
	for i := len(s.redoStack) - 1; i >= 0; i-- {
		entry := s.redoStack[i]
		if entry.UserID != userID {
			continue
		}

		s.paths[entry.PathID] = entry.Path
		s.userPaths[userID] = append(s.userPaths[userID], entry.PathID)
		s.history = append(s.history, historyEntry{PathID: entry.PathID, UserID: userID})
		s.redoStack = append(s.redoStack[:i], s.redoStack[i+1:]...)
		return entry.Path, true
	}
	return nil, false
}

// Clear wipes the room: all paths, both stacks, every open stroke. Not
// undoable. The id counter is kept so ids never repeat within the room.
func (s *DrawingState) Clear() {
	s.paths = make(map[string]*domain.Path)
	s.userPaths = make(map[string][]string)
	s.history = nil
	s.redoStack = nil
	s.open = make(map[string]string)
	s.seq = make(map[string]uint64)
}

// AllPaths snapshots the active paths in creation order, for state transfer
// to a newly joined user. Callers must not mutate the returned paths.
func (s *DrawingState) AllPaths() []*domain.Path {
	paths := make([]*domain.Path, 0, len(s.paths))
	for _, p := range s.paths {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		return s.seq[paths[i].ID] < s.seq[paths[j].ID]
	})
	return paths
}

// Path looks up a single active path by id.
func (s *DrawingState) Path(pathID string) (*domain.Path, bool) {
	p, ok := s.paths[pathID]
	return p, ok
}

// Len is the number of active paths.
func (s *DrawingState) Len() int { return len(s.paths) }

// HistoryLen is the depth of the shared undo log.
func (s *DrawingState) HistoryLen() int { return len(s.history) }

// RedoLen is the depth of the room-wide redo stack.
func (s *DrawingState) RedoLen() int { return len(s.redoStack) }

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
