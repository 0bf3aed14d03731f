package live

import "time"

// RoomUpdate is the delta pushed to every connected viewer when a room's
// occupancy changes. Capacity is optional: a nil value means "unchanged",
// which is distinct from an explicit zero.
type RoomUpdate struct {
	RoomID      string    `json:"roomId"`
	Occupancy   int       `json:"occupancy"`
	IsGhost     bool      `json:"isGhost"`
	Capacity    *int      `json:"capacity,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// RoomLiveStatus is the most recent occupancy reading for one room. It is
// held in memory only; a restart re-primes it from persisted history.
type RoomLiveStatus struct {
	RoomID           string    `json:"roomId"`
	CurrentOccupancy int       `json:"currentOccupancy"`
	IsGhost          bool      `json:"isGhost"`
	Capacity         int       `json:"capacity"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// RoomSnapshot is the REST read shape for one room: registry fields plus the
// embedded live status. LiveStatus is nil when no reading exists yet.
type RoomSnapshot struct {
	RoomID     string          `json:"roomId"`
	Name       string          `json:"name,omitempty"`
	Building   string          `json:"building,omitempty"`
	Capacity   int             `json:"capacity"`
	LiveStatus *RoomLiveStatus `json:"liveStatus,omitempty"`
}

// EventRoomUpdate is the event name carried on the socket channel.
const EventRoomUpdate = "room_update"

// Envelope frames every message sent over the live channel.
type Envelope struct {
	Event string     `json:"event"`
	Data  RoomUpdate `json:"data"`
}
