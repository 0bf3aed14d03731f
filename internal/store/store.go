package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-occupancy-backend/internal/model"
)

// ErrRoomNotFound is returned when a room identifier is unknown to the registry.
var ErrRoomNotFound = errors.New("room not found")

// Store defines the interface for all database operations.
type Store interface {
	// DB exposes the underlying connection for handler-level queries.
	DB() *gorm.DB

	UpsertRooms(ctx context.Context, rooms []model.Room) error
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, roomID string) (model.Room, error)

	AppendRecord(ctx context.Context, rec *model.OccupancyRecord) error
	RecentRecords(ctx context.Context, roomID string, limit int) ([]model.OccupancyRecord, error)
	LatestRecords(ctx context.Context) ([]model.OccupancyRecord, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// UpsertRooms creates or refreshes registry entries keyed by room_id.
func (s *gormStore) UpsertRooms(ctx context.Context, rooms []model.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "building", "capacity", "updated_at"}),
	}).Create(&rooms).Error; err != nil {
		return fmt.Errorf("batch upsert rooms failed: %w", err)
	}
	return nil
}

func (s *gormStore) ListRooms(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	if err := s.db.WithContext(ctx).Order("room_id").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *gormStore) GetRoom(ctx context.Context, roomID string) (model.Room, error) {
	var room model.Room
	err := s.db.WithContext(ctx).First(&room, "room_id = ?", roomID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return model.Room{}, fmt.Errorf("failed to fetch room %s: %w", roomID, err)
	}
	return room, nil
}

// AppendRecord writes one occupancy sample. Records are never updated.
func (s *gormStore) AppendRecord(ctx context.Context, rec *model.OccupancyRecord) error {
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("failed to append occupancy record for room %s: %w", rec.RoomID, err)
	}
	return nil
}

// RecentRecords returns up to limit samples for one room, newest first.
func (s *gormStore) RecentRecords(ctx context.Context, roomID string, limit int) ([]model.OccupancyRecord, error) {
	var records []model.OccupancyRecord
	if err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch records for room %s: %w", roomID, err)
	}
	return records, nil
}

// LatestRecords returns the most recent sample per room, used to prime the
// in-memory live status table after a restart.
func (s *gormStore) LatestRecords(ctx context.Context) ([]model.OccupancyRecord, error) {
	var records []model.OccupancyRecord
	if err := s.db.WithContext(ctx).
		Where("id IN (?)", s.db.Model(&model.OccupancyRecord{}).
			Select("MAX(id)").
			Group("room_id")).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch latest records: %w", err)
	}
	return records, nil
}
