package client

import "collaborative-canvas/internal/domain"

// Renderer is the pixel-output collaborator. The reconciler decides what is
// on the canvas; something else decides how it looks.
type Renderer interface {
	DrawStroke(path *domain.Path)
	DrawShapePreview(path *domain.Path)
	RedrawAll(paths []*domain.Path)
}

// NopRenderer discards all drawing calls, for headless or test use.
type NopRenderer struct{}

func (NopRenderer) DrawStroke(*domain.Path)       {}
func (NopRenderer) DrawShapePreview(*domain.Path) {}
func (NopRenderer) RedrawAll([]*domain.Path)      {}

// Store is the local optimistic path store: what this client believes is on
// the canvas, eventually consistent with the server. Not safe for concurrent
// use; the Reconciler serializes access.
type Store struct {
	paths map[string]*domain.Path
	order []string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{paths: make(map[string]*domain.Path)}
}

// Add inserts or replaces a path, keeping first-insertion order.
func (s *Store) Add(path *domain.Path) {
	if _, ok := s.paths[path.ID]; !ok {
		s.order = append(s.order, path.ID)
	}
	s.paths[path.ID] = path
}

// Remove deletes a path; absent ids are a no-op.
func (s *Store) Remove(pathID string) bool {
	if _, ok := s.paths[pathID]; !ok {
		return false
	}
	delete(s.paths, pathID)
	for i, id := range s.order {
		if id == pathID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Confirm renames an entry in place: the pending-to-confirmed transition
// when the server's canonical id replaces the client's temporary one. The
// path object itself survives, so points appended meanwhile are kept.
func (s *Store) Confirm(tempID, canonicalID string) bool {
	path, ok := s.paths[tempID]
	if !ok {
		return false
	}
	delete(s.paths, tempID)
	path.ID = canonicalID
	s.paths[canonicalID] = path
	for i, id := range s.order {
		if id == tempID {
			s.order[i] = canonicalID
			break
		}
	}
	return true
}

// Get looks up a path by id.
func (s *Store) Get(pathID string) (*domain.Path, bool) {
	p, ok := s.paths[pathID]
	return p, ok
}

// Paths returns the paths in insertion order for redraw.
func (s *Store) Paths() []*domain.Path {
	out := make([]*domain.Path, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.paths[id])
	}
	return out
}

// Len is the number of stored paths.
func (s *Store) Len() int { return len(s.paths) }

// Clear empties the store.
func (s *Store) Clear() {
	s.paths = make(map[string]*domain.Path)
	s.order = nil
}
