package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/registry"
)

func TestAddUser_ExplicitMetadataIsKept(t *testing.T) {
	r := registry.New()

	user := r.AddUser("room-1", "abcdef123456", "Alice", "#FF6B6B")

	assert.Equal(t, "abcdef123456", user.UserID)
	assert.Equal(t, "Alice", user.UserName)
	assert.Equal(t, "#FF6B6B", user.Color)
	assert.NotZero(t, user.JoinedAt)
}

func TestAddUser_DefaultsDeriveNameAndColor(t *testing.T) {
	r := registry.New()

	user := r.AddUser("room-1", "abcdef123456", "", "")

	assert.Equal(t, "User-abcdef", user.UserName)
	assert.Regexp(t, `^#[0-9A-F]{6}$`, user.Color)
}

func TestAddUser_ReaddingKeepsJoinedAt(t *testing.T) {
	r := registry.New()
	first := r.AddUser("room-1", "u1", "Alice", "#FF6B6B")

	again := r.AddUser("room-1", "u1", "Alicia", "")

	assert.Equal(t, first.JoinedAt, again.JoinedAt)
	assert.Equal(t, "Alicia", again.UserName, "provided name must refresh")
	assert.Equal(t, "#FF6B6B", again.Color, "omitted color must not be rerolled")

	users := r.RoomUsers("room-1")
	require.Len(t, users, 1)
}

func TestRemoveUser_EmptiedRoomIsDeleted(t *testing.T) {
	r := registry.New()
	r.AddUser("room-1", "u1", "", "")
	r.AddUser("room-1", "u2", "", "")
	require.Equal(t, 1, r.RoomCount())

	r.RemoveUser("room-1", "u1")
	assert.Equal(t, 1, r.RoomCount())

	r.RemoveUser("room-1", "u2")
	assert.Equal(t, 0, r.RoomCount())
	assert.Empty(t, r.RoomUsers("room-1"))
}

func TestRemoveUser_UnknownIsNoop(t *testing.T) {
	r := registry.New()

	assert.NotPanics(t, func() {
		r.RemoveUser("no-such-room", "nobody")
	})
}

func TestUserRoom_ReverseLookupFollowsMembership(t *testing.T) {
	r := registry.New()
	r.AddUser("room-1", "u1", "", "")

	roomID, ok := r.UserRoom("u1")
	require.True(t, ok)
	assert.Equal(t, "room-1", roomID)

	r.RemoveUser("room-1", "u1")
	_, ok = r.UserRoom("u1")
	assert.False(t, ok)
}

func TestRoomUsers_OrderedByJoinTime(t *testing.T) {
	r := registry.New()
	r.AddUser("room-1", "u-b", "", "")
	r.AddUser("room-1", "u-a", "", "")

	users := r.RoomUsers("room-1")
	require.Len(t, users, 2)
	if users[0].JoinedAt == users[1].JoinedAt {
		// Same-millisecond joins fall back to user id order.
		assert.Equal(t, "u-a", users[0].UserID)
	} else {
		assert.Equal(t, "u-b", users[0].UserID)
	}
}

func TestRooms_SnapshotsMemberCounts(t *testing.T) {
	r := registry.New()
	r.AddUser("room-1", "u1", "", "")
	r.AddUser("room-1", "u2", "", "")
	r.AddUser("room-2", "u3", "", "")

	assert.Equal(t, map[string]int{"room-1": 2, "room-2": 1}, r.Rooms())
}
