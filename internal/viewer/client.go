package viewer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"campus-occupancy-backend/internal/live"
)

// Config describes where a viewer connects and how hard it tries.
type Config struct {
	// BaseURL is the REST root, e.g. http://localhost:8080.
	BaseURL string
	// ReconnectAttempts bounds consecutive failed connection attempts
	// before the client gives up.
	ReconnectAttempts int
	// ReconnectWait is the pause between attempts.
	ReconnectWait time.Duration
}

// Client owns one live channel connection plus the viewer state it feeds.
// It is constructed explicitly and torn down with the context; there is no
// shared global connection.
type Client struct {
	cfg      Config
	state    *State
	http     *resty.Client
	onUpdate func(live.RoomUpdate)
}

// NewClient creates a viewer client. onUpdate may be nil.
func NewClient(cfg Config, onUpdate func(live.RoomUpdate)) *Client {
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = 5
	}
	if cfg.ReconnectWait <= 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	return &Client{
		cfg:      cfg,
		state:    NewState(),
		http:     resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(10 * time.Second),
		onUpdate: onUpdate,
	}
}

// State returns the room state this client maintains.
func (c *Client) State() *State {
	return c.state
}

// Run connects, primes state from a snapshot, and merges pushes until the
// context is cancelled or the reconnect budget is exhausted. Every
// (re)connect re-fetches a snapshot first: events during a gap are
// permanently lost, so continuity can never be assumed.
func (c *Client) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		connected, err := c.connectAndRead(ctx)
		if err == nil {
			// Clean shutdown via context.
			return nil
		}
		if connected {
			// The connection was established before it dropped, so the
			// failure streak starts over. Only consecutive failed
			// attempts count against the budget.
			attempts = 0
		} else {
			attempts++
			if attempts > c.cfg.ReconnectAttempts {
				return fmt.Errorf("live connection lost after %d attempts: %w", attempts, err)
			}
		}
		log.Printf("viewer: connection lost (%v), retrying in %s (attempt %d/%d)",
			err, c.cfg.ReconnectWait, attempts, c.cfg.ReconnectAttempts)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.cfg.ReconnectWait):
		}
	}
}

// connectAndRead does one snapshot fetch plus one connection's read loop.
// A nil error means the context ended; any error means the connection
// should be retried. The bool reports whether the websocket connection
// was established at all before the error.
func (c *Client) connectAndRead(ctx context.Context) (bool, error) {
	if err := c.FetchSnapshot(ctx); err != nil {
		return false, err
	}

	wsURL, err := c.websocketURL()
	if err != nil {
		return false, err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return true, fmt.Errorf("read: %w", err)
		}

		var envelope struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(msg, &envelope); err != nil {
			log.Printf("viewer: discarding malformed frame: %v", err)
			continue
		}
		if envelope.Event != live.EventRoomUpdate {
			continue
		}

		var update live.RoomUpdate
		if err := json.Unmarshal(envelope.Data, &update); err != nil {
			log.Printf("viewer: discarding malformed room update: %v", err)
			continue
		}

		c.state.ApplyDelta(update)
		if c.onUpdate != nil {
			c.onUpdate(update)
		}
	}
}

// FetchSnapshot primes state from GET /api/rooms.
func (c *Client) FetchSnapshot(ctx context.Context) error {
	var snaps []live.RoomSnapshot
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&snaps).
		Get("/api/rooms")
	if err != nil {
		return fmt.Errorf("snapshot fetch failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("snapshot fetch returned %d", resp.StatusCode())
	}
	c.state.ApplySnapshot(snaps)
	return nil
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", c.cfg.BaseURL, err)
	}
	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}
