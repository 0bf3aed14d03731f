package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-occupancy-backend/internal/model"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	return hub, wsURL
}

func dial(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg, &envelope))
	return envelope
}

func TestHubBroadcastsToAllClients(t *testing.T) {
	hub, wsURL := startHub(t)

	first := dial(t, wsURL)
	second := dial(t, wsURL)

	// Registration races the publish without a short settle.
	time.Sleep(50 * time.Millisecond)

	capacity := 50
	hub.Publish(RoomUpdate{
		RoomID:      "101",
		Occupancy:   30,
		IsGhost:     false,
		Capacity:    &capacity,
		LastUpdated: time.Now(),
	})

	for _, conn := range []*websocket.Conn{first, second} {
		envelope := readEnvelope(t, conn)
		assert.Equal(t, EventRoomUpdate, envelope.Event)
		assert.Equal(t, "101", envelope.Data.RoomID)
		assert.Equal(t, 30, envelope.Data.Occupancy)
		require.NotNil(t, envelope.Data.Capacity)
		assert.Equal(t, 50, *envelope.Data.Capacity)
	}
}

func TestHubNoBacklogForLateJoiners(t *testing.T) {
	hub, wsURL := startHub(t)

	hub.Publish(RoomUpdate{RoomID: "101", Occupancy: 10, LastUpdated: time.Now()})
	time.Sleep(50 * time.Millisecond)

	conn := dial(t, wsURL)
	time.Sleep(50 * time.Millisecond)

	// The late joiner only sees events published after it connected.
	hub.Publish(RoomUpdate{RoomID: "205", Occupancy: 3, LastUpdated: time.Now()})
	envelope := readEnvelope(t, conn)
	assert.Equal(t, "205", envelope.Data.RoomID)
}

func TestHubStatusTable(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	capacity := 50
	hub.Publish(RoomUpdate{
		RoomID:      "101",
		Occupancy:   12,
		IsGhost:     false,
		Capacity:    &capacity,
		LastUpdated: time.Now(),
	})

	st, ok := hub.Status("101")
	require.True(t, ok)
	assert.Equal(t, 12, st.CurrentOccupancy)
	assert.Equal(t, 50, st.Capacity)

	// A capacity-less update keeps the known capacity.
	hub.Publish(RoomUpdate{RoomID: "101", Occupancy: 0, LastUpdated: time.Now()})
	st, ok = hub.Status("101")
	require.True(t, ok)
	assert.Equal(t, 0, st.CurrentOccupancy)
	assert.Equal(t, 50, st.Capacity)

	_, ok = hub.Status("999")
	assert.False(t, ok)
}

func TestHubPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the queue: publishing past the buffer must
	// drop updates instead of blocking, and the status table still tracks
	// the latest reading.
	hub := NewHub()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish(RoomUpdate{RoomID: "101", Occupancy: i, LastUpdated: time.Now()})
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked without a running hub loop")
	}

	st, ok := hub.Status("101")
	require.True(t, ok)
	assert.Equal(t, 99, st.CurrentOccupancy)
}

func TestHubPrime(t *testing.T) {
	hub := NewHub()

	hub.Prime([]model.OccupancyRecord{
		{RoomID: "101", Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), Occupancy: 7, Capacity: 50},
		{RoomID: "205", Timestamp: time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC), Occupancy: 0, Capacity: 30, IsGhost: true},
	})

	st, ok := hub.Status("101")
	require.True(t, ok)
	assert.Equal(t, 7, st.CurrentOccupancy)

	st, ok = hub.Status("205")
	require.True(t, ok)
	assert.True(t, st.IsGhost)
	assert.Equal(t, time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC), st.LastUpdated)
}
