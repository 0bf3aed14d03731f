package model

import "time"

// OccupancyRecord is one persisted occupancy sample. Records are append-only:
// nothing in this system updates or deletes them. The JSON field names match
// the document-store schema the dashboard predates.
type OccupancyRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	RoomID    string    `gorm:"size:64;not null;index:idx_occupancy_room_time,priority:1" json:"roomId"`
	Timestamp time.Time `gorm:"not null;index:idx_occupancy_room_time,priority:2,sort:desc" json:"timestamp"`
	Occupancy int       `gorm:"not null" json:"occupancy"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	IsGhost   bool      `gorm:"not null" json:"isGhost"`
	// DayOfWeek is redundant with Timestamp but kept so downstream pattern
	// lookups need no date arithmetic.
	DayOfWeek string `gorm:"size:16;not null" json:"dayOfWeek"`
}
