// Package http exposes a small read-only API over the live room table:
// which rooms exist, who is in them and how deep their histories are. It
// never mutates room state; stats go through the hub's event loop.
package http

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"collaborative-canvas/internal/hub"
	"collaborative-canvas/internal/registry"
)

// RoomHandler serves room introspection endpoints.
type RoomHandler struct {
	registry *registry.Registry
	hub      *hub.Hub
}

// NewRoomHandler creates a RoomHandler.
func NewRoomHandler(reg *registry.Registry, h *hub.Hub) *RoomHandler {
	if reg == nil || h == nil {
		panic("registry and hub cannot be nil for RoomHandler")
	}
	return &RoomHandler{registry: reg, hub: h}
}

// RoomSummary is one row of the room list.
type RoomSummary struct {
	RoomID string `json:"roomId"`
	Users  int    `json:"users"`
}

// ListRooms returns every active room with its member count.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	counts := h.registry.Rooms()
	rooms := make([]RoomSummary, 0, len(counts))
	for id, n := range counts {
		rooms = append(rooms, RoomSummary{RoomID: id, Users: n})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].RoomID < rooms[j].RoomID })
	SuccessResponse(c, http.StatusOK, gin.H{"rooms": rooms})
}

// RoomUsers returns the roster snapshot for one room. Unknown rooms yield an
// empty list, not an error.
func (h *RoomHandler) RoomUsers(c *gin.Context) {
	roomID := c.Param("roomId")
	SuccessResponse(c, http.StatusOK, gin.H{
		"roomId": roomID,
		"users":  h.registry.RoomUsers(roomID),
	})
}

// RoomStats returns path and history counters for one room; 404 for rooms
// with no live state.
func (h *RoomHandler) RoomStats(c *gin.Context) {
	roomID := c.Param("roomId")
	stats := h.hub.Stats(roomID)
	if !stats.Known {
		ErrorResponse(c, http.StatusNotFound, "room not found")
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"roomId": roomID,
		"stats":  stats,
	})
}
