package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/state"
)

func TestStartPath_IDsAreUnique(t *testing.T) {
	s := state.New()

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := s.StartPath("user-a", float64(i), float64(i), "#FF6B6B", 2, domain.ToolBrush)
		assert.False(t, seen[id], "id %s allocated twice", id)
		seen[id] = true
	}

	// Clear must not allow ids to repeat within the room's lifetime.
	s.Clear()
	id := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	assert.False(t, seen[id], "id %s reused after clear", id)
}

func TestStartPath_RegistersSinglePointPath(t *testing.T) {
	s := state.New()

	id := s.StartPath("user-a", 10, 20, "#4ECDC4", 3, domain.ToolBrush)

	path, ok := s.Path(id)
	require.True(t, ok)
	assert.Equal(t, "user-a", path.OwnerID)
	assert.Equal(t, domain.ToolBrush, path.Tool)
	assert.Equal(t, "#4ECDC4", path.Color)
	assert.Equal(t, 3.0, path.LineWidth)
	assert.Equal(t, []domain.Point{{X: 10, Y: 20}}, path.Points)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.HistoryLen())
}

func TestAddPoint_AppendsToOpenPath(t *testing.T) {
	s := state.New()
	id := s.StartPath("user-a", 1, 1, "#FF6B6B", 2, domain.ToolBrush)

	assert.True(t, s.AddPoint("user-a", 2, 2))
	assert.True(t, s.AddPoint("user-a", 3, 3))

	path, ok := s.Path(id)
	require.True(t, ok)
	assert.Equal(t, []domain.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}, path.Points)
}

func TestAddPoint_NoOpenPathIsSilentNoop(t *testing.T) {
	s := state.New()

	assert.NotPanics(t, func() {
		assert.False(t, s.AddPoint("ghost", 5, 5))
	})
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.HistoryLen())
}

func TestAddPoint_NewStartImplicitlyClosesPrevious(t *testing.T) {
	s := state.New()
	first := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	second := s.StartPath("user-a", 9, 9, "#FF6B6B", 2, domain.ToolBrush)

	s.AddPoint("user-a", 10, 10)

	firstPath, _ := s.Path(first)
	secondPath, _ := s.Path(second)
	assert.Len(t, firstPath.Points, 1)
	assert.Len(t, secondPath.Points, 2)
}

func TestEndPath_PerformsNoMutation(t *testing.T) {
	s := state.New()
	id := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)

	s.EndPath("user-a")

	// A late point still lands on the finished stroke; only a new StartPath
	// retargets the user's open path.
	assert.True(t, s.AddPoint("user-a", 1, 1))
	path, _ := s.Path(id)
	assert.Len(t, path.Points, 2)
}

func TestUndo_RemovesOwnMostRecentPathOnly(t *testing.T) {
	s := state.New()
	aPath := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	bPath := s.StartPath("user-b", 5, 5, "#4ECDC4", 2, domain.ToolBrush)

	removed, ok := s.Undo("user-a")
	require.True(t, ok)
	assert.Equal(t, aPath, removed)

	_, ok = s.Path(aPath)
	assert.False(t, ok, "undone path must leave the active map")
	_, ok = s.Path(bPath)
	assert.True(t, ok, "other user's path must survive")

	// Nothing further to undo for user-a.
	_, ok = s.Undo("user-a")
	assert.False(t, ok)
}

func TestUndo_PerUserScanSkipsNewerForeignEntries(t *testing.T) {
	s := state.New()
	aPath := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	s.StartPath("user-b", 1, 1, "#4ECDC4", 2, domain.ToolBrush)
	s.StartPath("user-b", 2, 2, "#4ECDC4", 2, domain.ToolBrush)

	removed, ok := s.Undo("user-a")
	require.True(t, ok)
	assert.Equal(t, aPath, removed)
	assert.Equal(t, 2, s.Len())
}

func TestRedo_RestoresPathVerbatim(t *testing.T) {
	s := state.New()
	id := s.StartPath("user-x", 10, 10, "#BB8FCE", 4, domain.ToolBrush)
	s.AddPoint("user-x", 12, 11)
	s.AddPoint("user-x", 15, 14)

	_, ok := s.Undo("user-x")
	require.True(t, ok)
	assert.Empty(t, s.AllPaths())

	restored, ok := s.Redo("user-x")
	require.True(t, ok)
	assert.Equal(t, id, restored.ID)
	assert.Equal(t, "#BB8FCE", restored.Color)
	assert.Equal(t, domain.ToolBrush, restored.Tool)
	assert.Equal(t, 4.0, restored.LineWidth)
	assert.Equal(t, []domain.Point{{X: 10, Y: 10}, {X: 12, Y: 11}, {X: 15, Y: 14}}, restored.Points)

	path, ok := s.Path(id)
	require.True(t, ok)
	assert.Equal(t, restored, path)
}

func TestRedo_NothingPendingReturnsNone(t *testing.T) {
	s := state.New()
	s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)

	_, ok := s.Redo("user-a")
	assert.False(t, ok)
}

func TestStartPath_ClearsRedoStackRoomWide(t *testing.T) {
	s := state.New()
	s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	_, ok := s.Undo("user-a")
	require.True(t, ok)
	require.Equal(t, 1, s.RedoLen())

	// Another user's new path invalidates the whole room's redo history.
	s.StartPath("user-b", 1, 1, "#4ECDC4", 2, domain.ToolBrush)

	_, ok = s.Redo("user-a")
	assert.False(t, ok)
	assert.Equal(t, 0, s.RedoLen())
}

func TestRedo_SharedStackIsFilteredPerUser(t *testing.T) {
	s := state.New()
	aPath := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	bPath := s.StartPath("user-b", 1, 1, "#4ECDC4", 2, domain.ToolBrush)

	// A undoes first, then B: B's entry sits on top of the shared stack.
	_, ok := s.Undo("user-a")
	require.True(t, ok)
	_, ok = s.Undo("user-b")
	require.True(t, ok)
	require.Equal(t, 2, s.RedoLen())

	// A's redo must skip B's newer entry. B's undo did not clear A's redo:
	// only StartPath clears the stack.
	restored, ok := s.Redo("user-a")
	require.True(t, ok)
	assert.Equal(t, aPath, restored.ID)
	assert.Equal(t, 1, s.RedoLen())

	restored, ok = s.Redo("user-b")
	require.True(t, ok)
	assert.Equal(t, bPath, restored.ID)
}

func TestUndo_OpenPathStopsReceivingPoints(t *testing.T) {
	s := state.New()
	s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)

	_, ok := s.Undo("user-a")
	require.True(t, ok)

	// The undone path was the open one; stray moves are now silent no-ops.
	assert.False(t, s.AddPoint("user-a", 1, 1))
}

func TestClear_WipesEverything(t *testing.T) {
	s := state.New()
	s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	s.StartPath("user-b", 1, 1, "#4ECDC4", 2, domain.ToolBrush)
	_, ok := s.Undo("user-a")
	require.True(t, ok)

	s.Clear()

	assert.Empty(t, s.AllPaths())
	assert.Equal(t, 0, s.HistoryLen())
	assert.Equal(t, 0, s.RedoLen())
	_, ok = s.Undo("user-b")
	assert.False(t, ok)
	_, ok = s.Redo("user-a")
	assert.False(t, ok)
}

func TestAllPaths_CreationOrderIsStable(t *testing.T) {
	s := state.New()
	first := s.StartPath("user-a", 0, 0, "#FF6B6B", 2, domain.ToolBrush)
	second := s.StartPath("user-b", 1, 1, "#4ECDC4", 2, domain.ToolBrush)
	third := s.StartPath("user-a", 2, 2, "#FF6B6B", 2, domain.ToolBrush)

	// A redone path returns to its original snapshot position.
	_, ok := s.Undo("user-b")
	require.True(t, ok)
	_, ok = s.Redo("user-b")
	require.True(t, ok)

	paths := s.AllPaths()
	require.Len(t, paths, 3)
	assert.Equal(t, []string{first, second, third}, []string{paths[0].ID, paths[1].ID, paths[2].ID})
}
