package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"campus-occupancy-backend/internal/model"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(&model.Room{}, &model.OccupancyRecord{}, &model.PushSubscription{}))
	return NewGormStore(db)
}

func TestUpsertRooms(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertRooms(ctx, []model.Room{
		{RoomID: "101", Name: "Physics Lab", Building: "Science", Capacity: 50},
		{RoomID: "205", Name: "Seminar 205", Building: "Arts", Capacity: 30},
	}))

	// A second upsert for the same room refreshes its registry fields.
	require.NoError(t, s.UpsertRooms(ctx, []model.Room{
		{RoomID: "101", Name: "Physics Lab", Building: "Science", Capacity: 60},
	}))

	rooms, err := s.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "101", rooms[0].RoomID)
	assert.Equal(t, 60, rooms[0].Capacity)
	assert.Equal(t, "205", rooms[1].RoomID)
}

func TestGetRoomNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetRoom(context.Background(), "999")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRecentRecordsWindow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.AppendRecord(ctx, &model.OccupancyRecord{
			RoomID:    "101",
			Timestamp: ts,
			Occupancy: i,
			Capacity:  50,
			DayOfWeek: ts.Weekday().String(),
		}))
	}
	// A record for another room must not leak into the window.
	require.NoError(t, s.AppendRecord(ctx, &model.OccupancyRecord{
		RoomID: "205", Timestamp: base.Add(2 * time.Hour), Occupancy: 9, Capacity: 30, DayOfWeek: "Monday",
	}))

	records, err := s.RecentRecords(ctx, "101", 50)
	require.NoError(t, err)
	require.Len(t, records, 50)

	// Newest first: the first entry is the 60th sample, and timestamps
	// descend monotonically.
	assert.Equal(t, 59, records[0].Occupancy)
	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.Before(records[i-1].Timestamp),
			"records must be ordered newest first")
	}
	// The 10 oldest samples fall outside the window.
	assert.Equal(t, 10, records[len(records)-1].Occupancy)
}

func TestRecentRecordsEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.RecentRecords(context.Background(), "101", 50)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLatestRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	for _, rec := range []model.OccupancyRecord{
		{RoomID: "101", Timestamp: base, Occupancy: 5, Capacity: 50, DayOfWeek: "Monday"},
		{RoomID: "101", Timestamp: base.Add(time.Hour), Occupancy: 30, Capacity: 50, DayOfWeek: "Monday"},
		{RoomID: "205", Timestamp: base, Occupancy: 0, Capacity: 30, IsGhost: true, DayOfWeek: "Monday"},
	} {
		r := rec
		require.NoError(t, s.AppendRecord(ctx, &r))
	}

	latest, err := s.LatestRecords(ctx)
	require.NoError(t, err)
	require.Len(t, latest, 2)

	byRoom := make(map[string]model.OccupancyRecord)
	for _, rec := range latest {
		byRoom[rec.RoomID] = rec
	}
	assert.Equal(t, 30, byRoom["101"].Occupancy)
	assert.True(t, byRoom["205"].IsGhost)
}
