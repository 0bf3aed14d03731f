// Package viewer holds the client-side room state: a snapshot-primed room
// list kept current by merging live deltas.
package viewer

import (
	"sync"

	"campus-occupancy-backend/internal/live"
)

// State is one viewer's in-memory copy of the room list, unique by roomId.
// It is lost on restart and must be re-primed from a snapshot fetch.
type State struct {
	mu    sync.RWMutex
	rooms []live.RoomSnapshot
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// ApplySnapshot merges a REST snapshot into the state. Because a snapshot
// response can resolve after a newer push has already been applied, a
// snapshot entry never replaces a live status with a later lastUpdated.
// Rooms known only from pushes are retained.
func (s *State) ApplySnapshot(snaps []live.RoomSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]live.RoomSnapshot, 0, len(snaps))
	for _, snap := range snaps {
		if cur, ok := s.findLocked(snap.RoomID); ok && newerLive(cur, snap) {
			snap.LiveStatus = cur.LiveStatus
			if cur.Capacity > 0 {
				snap.Capacity = cur.Capacity
			}
		}
		merged = append(merged, snap)
	}

	seen := make(map[string]struct{}, len(merged))
	for _, snap := range merged {
		seen[snap.RoomID] = struct{}{}
	}
	for _, cur := range s.rooms {
		if _, ok := seen[cur.RoomID]; !ok {
			merged = append(merged, cur)
		}
	}

	s.rooms = merged
}

// ApplyDelta merges one push event. The matching room's occupancy and ghost
// flag are replaced; capacity is replaced only when the delta carries a
// positive value; every other room is left untouched. A delta older than
// the room's current live status is discarded, so arrival order cannot
// regress displayed state. A delta for an unknown room inserts a new entry.
func (s *State) ApplyDelta(u live.RoomUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.rooms {
		if s.rooms[i].RoomID == u.RoomID {
			idx = i
			break
		}
	}

	if idx == -1 {
		snap := live.RoomSnapshot{RoomID: u.RoomID}
		if u.Capacity != nil && *u.Capacity > 0 {
			snap.Capacity = *u.Capacity
		}
		snap.LiveStatus = liveStatusFrom(u, snap.Capacity)
		s.rooms = append(s.rooms, snap)
		return
	}

	room := s.rooms[idx]
	if room.LiveStatus != nil && u.LastUpdated.Before(room.LiveStatus.LastUpdated) {
		return // stale delta
	}

	if u.Capacity != nil && *u.Capacity > 0 {
		room.Capacity = *u.Capacity
	}
	room.LiveStatus = liveStatusFrom(u, room.Capacity)
	s.rooms[idx] = room
}

// Rooms returns a copy of the current room list.
func (s *State) Rooms() []live.RoomSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]live.RoomSnapshot, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Room returns one room's current snapshot.
func (s *State) Room(roomID string) (live.RoomSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.findLocked(roomID)
}

func (s *State) findLocked(roomID string) (live.RoomSnapshot, bool) {
	for _, room := range s.rooms {
		if room.RoomID == roomID {
			return room, true
		}
	}
	return live.RoomSnapshot{}, false
}

func liveStatusFrom(u live.RoomUpdate, capacity int) *live.RoomLiveStatus {
	return &live.RoomLiveStatus{
		RoomID:           u.RoomID,
		CurrentOccupancy: u.Occupancy,
		IsGhost:          u.IsGhost,
		Capacity:         capacity,
		LastUpdated:      u.LastUpdated,
	}
}

// newerLive reports whether cur's live status is strictly newer than snap's.
func newerLive(cur, snap live.RoomSnapshot) bool {
	if cur.LiveStatus == nil {
		return false
	}
	if snap.LiveStatus == nil {
		return true
	}
	return cur.LiveStatus.LastUpdated.After(snap.LiveStatus.LastUpdated)
}
