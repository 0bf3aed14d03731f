// Package status derives a display status from a room's live occupancy.
package status

// RoomStatus is the display classification of a room.
type RoomStatus string

const (
	Available RoomStatus = "available"
	Partial   RoomStatus = "partial"
	Occupied  RoomStatus = "occupied"
	Ghost     RoomStatus = "ghost"
)

// defaultCapacity stands in when a room's capacity is unknown, so the
// half-capacity threshold never divides by zero.
const defaultCapacity = 50

// Classify maps an occupancy reading onto a display status. A ghost booking
// wins over every occupancy rule. The partial threshold is a strict
// less-than: occupancy at exactly half capacity classifies as occupied.
func Classify(occupancy, capacity int, isGhost bool) RoomStatus {
	if isGhost {
		return Ghost
	}
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	switch {
	case occupancy == 0:
		return Available
	case float64(occupancy) < float64(capacity)/2:
		return Partial
	default:
		return Occupied
	}
}
