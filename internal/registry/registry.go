// Package registry tracks which users belong to which room and their display
// metadata. Room lifetime is derived: a room exists exactly while it has
// members.
package registry

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"collaborative-canvas/internal/domain"
)

// palette is the fixed set of colors assigned to users who join without one.
var palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A",
	"#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E2",
	"#F8B739", "#6C5CE7", "#A29BFE", "#FD79A8",
}

// Registry is safe for concurrent use: the hub loop writes while HTTP
// handlers read rosters.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]domain.UserInfo
	userRoom map[string]string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]domain.UserInfo),
		userRoom: make(map[string]string),
	}
}

// AddUser inserts the user into the room, creating the room mapping on first
// use. The insertion is idempotent by userId: re-adding keeps the original
// joinedAt, only refreshing name/color when explicitly provided. Missing
// metadata gets a name derived from the user id and a random palette color.
func (r *Registry) AddUser(roomID, userID, name, color string) domain.UserInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		room = make(map[string]domain.UserInfo)
		r.rooms[roomID] = room
	}

	if existing, ok := room[userID]; ok {
		if name != "" {
			existing.UserName = name
		}
		if color != "" {
			existing.Color = color
		}
		room[userID] = existing
		r.userRoom[userID] = roomID
		return existing
	}

	if name == "" {
		name = "User-" + shortID(userID)
	}
	if color == "" {
		color = palette[rand.Intn(len(palette))]
	}
	user := domain.UserInfo{
		UserID:   userID,
		UserName: name,
		Color:    color,
		JoinedAt: time.Now().UnixMilli(),
	}
	room[userID] = user
	r.userRoom[userID] = roomID
	return user
}

// RemoveUser deletes the user from the room; an emptied room is deleted
// outright so zero-member rooms never linger. Unknown room or user is a
// no-op apart from clearing the reverse lookup.
func (r *Registry) RemoveUser(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		delete(room, userID)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.userRoom, userID)
}

// RoomUsers snapshots the room's roster ordered by join time, then user id
// for ties. Unknown rooms yield an empty slice.
func (r *Registry) RoomUsers(roomID string) []domain.UserInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room := r.rooms[roomID]
	users := make([]domain.UserInfo, 0, len(room))
	for _, u := range room {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt != users[j].JoinedAt {
			return users[i].JoinedAt < users[j].JoinedAt
		}
		return users[i].UserID < users[j].UserID
	})
	return users
}

// UserRoom reverse-looks-up the room a user is in. Disconnect events carry
// no room context, so this is how teardown finds the room to clean.
func (r *Registry) UserRoom(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.userRoom[userID]
	return roomID, ok
}

// RoomCount is the number of rooms with at least one member.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Rooms snapshots room ids with their member counts.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]int, len(r.rooms))
	for id, room := range r.rooms {
		out[id] = len(room)
	}
	return out
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
