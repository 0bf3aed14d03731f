// Package sensor polls the campus occupancy gateway and feeds every other
// component: the history store, the live channel, and the notifier.
package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"campus-occupancy-backend/config"
	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/model"
	"campus-occupancy-backend/internal/notification"
	"campus-occupancy-backend/internal/store"
)

// Service orchestrates the polling loop.
type Service struct {
	cfg        *config.Config
	store      store.Store
	hub        *live.Hub
	client     *http.Client
	workerPool *notification.WorkerPool
	loc        *time.Location
}

// NewService creates the poller. The hub is the application-owned live
// channel handle; the service publishes to it but does not own it.
func NewService(cfg *config.Config, s store.Store, hub *live.Hub) *Service {
	var transport http.RoundTripper = &http.Transport{}
	if cfg.Sensor.HTTPProxy != "" {
		proxyURL, err := url.Parse(cfg.Sensor.HTTPProxy)
		if err != nil {
			log.Printf("Warning: invalid proxy URL %q: %v. Poller will not use a proxy.", cfg.Sensor.HTTPProxy, err)
		} else {
			transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		}
	}

	loc := time.UTC
	if cfg.Sensor.Timezone != "" {
		if l, err := time.LoadLocation(cfg.Sensor.Timezone); err == nil {
			loc = l
		} else {
			log.Printf("Warning: invalid timezone %q: %v. Using UTC.", cfg.Sensor.Timezone, err)
		}
	}

	return &Service{
		cfg:   cfg,
		store: s,
		hub:   hub,
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
		workerPool: notification.NewWorkerPool(cfg.WorkerPool.Size, s.DB(), notification.OptionsFromConfig(&cfg.Push)),
		loc:        loc,
	}
}

// Run starts the polling loop and the notification workers.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Sensor.Enabled {
		log.Println("Sensor poller is disabled. Not starting.")
		return
	}
	log.Println("Starting sensor poller...")

	s.workerPool.Start(ctx)

	s.PollOnce(ctx)

	timer := time.NewTimer(s.cfg.Sensor.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Sensor poller shutting down.")
			return
		case <-timer.C:
			s.PollOnce(ctx)
			timer.Reset(s.cfg.Sensor.Interval)
		}
	}
}

// PollOnce fetches the feed and applies one round of changes.
func (s *Service) PollOnce(ctx context.Context) {
	items, err := s.fetchFeed(ctx)
	if err != nil {
		log.Printf("Sensor poll failed: %v", err)
		return
	}

	now := time.Now().In(s.loc)

	rooms := make([]model.Room, 0, len(items))
	for _, item := range items {
		rooms = append(rooms, model.Room{
			RoomID:   item.RoomID,
			Name:     item.Name,
			Building: item.Building,
			Capacity: item.Capacity,
		})
	}
	if err := s.store.UpsertRooms(ctx, rooms); err != nil {
		log.Printf("Failed to upsert rooms: %v", err)
		return
	}

	for _, item := range items {
		s.applyReading(ctx, item, now)
	}
}

// applyReading persists and publishes one room's reading when it differs
// from the last known live state.
func (s *Service) applyReading(ctx context.Context, item FeedItem, now time.Time) {
	// A reservation with nobody in the room is a ghost booking.
	isGhost := item.Reserved && item.Occupancy == 0

	prev, known := s.hub.Status(item.RoomID)
	if known && prev.CurrentOccupancy == item.Occupancy && prev.IsGhost == isGhost {
		return
	}

	rec := model.OccupancyRecord{
		RoomID:    item.RoomID,
		Timestamp: now,
		Occupancy: item.Occupancy,
		Capacity:  item.Capacity,
		IsGhost:   isGhost,
		DayOfWeek: now.Weekday().String(),
	}
	if err := s.store.AppendRecord(ctx, &rec); err != nil {
		log.Printf("Failed to append record for room %s: %v", item.RoomID, err)
		return
	}

	update := live.RoomUpdate{
		RoomID:      item.RoomID,
		Occupancy:   item.Occupancy,
		IsGhost:     isGhost,
		LastUpdated: now,
	}
	if item.Capacity > 0 {
		capacity := item.Capacity
		update.Capacity = &capacity
	}
	s.hub.Publish(update)

	if known && prev.CurrentOccupancy > 0 && item.Occupancy == 0 && !isGhost {
		s.workerPool.Dispatch(notification.Job{RoomID: item.RoomID, Kind: notification.AlertAvailable})
	}
	if isGhost && (!known || !prev.IsGhost) {
		s.workerPool.Dispatch(notification.Job{RoomID: item.RoomID, Kind: notification.AlertGhost})
	}
}

func (s *Service) fetchFeed(ctx context.Context) ([]FeedItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.Sensor.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}
	for k, v := range s.cfg.Sensor.Headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("feed returned %d: %s", resp.StatusCode, body)
	}

	var feed FeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}
	if feed.Code != 0 {
		return nil, fmt.Errorf("feed returned error code %d", feed.Code)
	}
	return feed.Data.Items, nil
}
