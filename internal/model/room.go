package model

import "time"

// Room represents one entry in the campus room registry.
type Room struct {
	RoomID    string    `gorm:"primaryKey;size:64;column:room_id" json:"roomId"`
	Name      string    `gorm:"size:128" json:"name"`
	Building  string    `gorm:"size:128" json:"building"`
	Capacity  int       `gorm:"not null" json:"capacity"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}
