package live

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"campus-occupancy-backend/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns the set of connected viewers and the server-side live status
// table. It is constructed once in main and passed to everything that needs
// to publish or serve connections; there is no package-level instance.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	mu     sync.RWMutex
	status map[string]RoomLiveStatus
}

// NewHub creates a hub with an empty client set and live status table.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		status:     make(map[string]RoomLiveStatus),
	}
}

// Run dispatches registrations and broadcasts until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			log.Printf("live: client %s connected (%d total)", c.id, len(h.clients))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				log.Printf("live: client %s disconnected (%d total)", c.id, len(h.clients))
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Delivery is best-effort; a client that cannot keep up
					// is dropped and must re-prime from a snapshot.
					delete(h.clients, c)
					close(c.send)
					log.Printf("live: client %s dropped, send buffer full", c.id)
				}
			}
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

// Prime seeds the live status table from persisted history, one latest
// record per room. Called once at startup before any publishes.
func (h *Hub) Prime(records []model.OccupancyRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, rec := range records {
		h.status[rec.RoomID] = RoomLiveStatus{
			RoomID:           rec.RoomID,
			CurrentOccupancy: rec.Occupancy,
			IsGhost:          rec.IsGhost,
			Capacity:         rec.Capacity,
			LastUpdated:      rec.Timestamp,
		}
	}
}

// Publish overwrites the room's live status and fans the delta out to every
// connected client. At-most-once per client, no backlog for late joiners.
func (h *Hub) Publish(u RoomUpdate) {
	h.mu.Lock()
	st := h.status[u.RoomID]
	st.RoomID = u.RoomID
	st.CurrentOccupancy = u.Occupancy
	st.IsGhost = u.IsGhost
	if u.Capacity != nil && *u.Capacity > 0 {
		st.Capacity = *u.Capacity
	}
	st.LastUpdated = u.LastUpdated
	h.status[u.RoomID] = st
	h.mu.Unlock()

	msg, err := json.Marshal(Envelope{Event: EventRoomUpdate, Data: u})
	if err != nil {
		log.Printf("live: failed to marshal room update: %v", err)
		return
	}
	// Never block the publisher: if the dispatch loop has stopped or the
	// queue is full the delta is dropped, same best-effort contract as a
	// slow client.
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("live: broadcast queue full, dropping update for room %s", u.RoomID)
	}
}

// Status returns the live status for one room, if any reading exists.
func (h *Hub) Status(roomID string) (RoomLiveStatus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.status[roomID]
	return st, ok
}

// ServeWS upgrades an HTTP request into a live channel connection.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("live: websocket upgrade failed: %v", err)
		return
	}
	c := newClient(h, conn)
	h.register <- c
	go c.writePump()
	go c.readPump()
}
