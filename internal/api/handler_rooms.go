package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/model"
	"campus-occupancy-backend/internal/store"
)

// snapshot combines a registry entry with the hub's live reading. The
// registry is refreshed on every poll while the live table only changes
// with occupancy, so a positive registry capacity wins over the live one.
func (h *Handler) snapshot(room model.Room) live.RoomSnapshot {
	snap := live.RoomSnapshot{
		RoomID:   room.RoomID,
		Name:     room.Name,
		Building: room.Building,
		Capacity: room.Capacity,
	}
	if st, ok := h.hub.Status(room.RoomID); ok {
		if snap.Capacity > 0 {
			st.Capacity = snap.Capacity
		} else if st.Capacity > 0 {
			snap.Capacity = st.Capacity
		}
		snap.LiveStatus = &st
	}
	return snap
}

// GetRooms handles the GET /api/rooms request.
func (h *Handler) GetRooms(c *gin.Context) {
	rooms, err := h.store.ListRooms(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve rooms"})
		return
	}

	snapshots := make([]live.RoomSnapshot, 0, len(rooms))
	for _, room := range rooms {
		snapshots = append(snapshots, h.snapshot(room))
	}
	c.JSON(http.StatusOK, snapshots)
}

// GetRoom handles the GET /api/rooms/:roomId request. An unknown room is a
// distinct 404, never an empty 200.
func (h *Handler) GetRoom(c *gin.Context) {
	roomID := c.Param("roomId")

	room, err := h.store.GetRoom(c.Request.Context(), roomID)
	if errors.Is(err, store.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve room"})
		return
	}

	c.JSON(http.StatusOK, h.snapshot(room))
}

// GetRoomHistory handles the GET /api/rooms/:roomId/history request,
// returning recent samples newest first.
func (h *Handler) GetRoomHistory(c *gin.Context) {
	roomID := c.Param("roomId")

	if _, err := h.store.GetRoom(c.Request.Context(), roomID); err != nil {
		if errors.Is(err, store.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve room"})
		}
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		if parsed > 500 {
			parsed = 500
		}
		limit = parsed
	}

	records, err := h.store.RecentRecords(c.Request.Context(), roomID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve history"})
		return
	}
	if records == nil {
		records = []model.OccupancyRecord{}
	}
	c.JSON(http.StatusOK, records)
}
