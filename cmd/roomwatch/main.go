// roomwatch is a terminal viewer: it primes room state from the snapshot
// API, follows live updates, and prints a status line per change.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/status"
	"campus-occupancy-backend/internal/viewer"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "base URL of the occupancy backend")
	attempts := flag.Int("reconnect-attempts", 5, "consecutive failed connection attempts before giving up")
	wait := flag.Duration("reconnect-wait", 2*time.Second, "pause between reconnect attempts")
	flag.Parse()

	logger := log.New(os.Stdout, "roomwatch ", log.LstdFlags)

	var client *viewer.Client
	client = viewer.NewClient(viewer.Config{
		BaseURL:           *server,
		ReconnectAttempts: *attempts,
		ReconnectWait:     *wait,
	}, func(u live.RoomUpdate) {
		room, ok := client.State().Room(u.RoomID)
		if !ok {
			return
		}
		printRoom(room)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Show the primed snapshot once before following updates.
	if err := client.FetchSnapshot(ctx); err != nil {
		logger.Fatalf("initial snapshot failed: %v", err)
	}
	for _, room := range client.State().Rooms() {
		printRoom(room)
	}

	if err := client.Run(ctx); err != nil {
		logger.Fatalf("viewer stopped: %v", err)
	}
}

func printRoom(room live.RoomSnapshot) {
	occupancy := 0
	isGhost := false
	if room.LiveStatus != nil {
		occupancy = room.LiveStatus.CurrentOccupancy
		isGhost = room.LiveStatus.IsGhost
	}
	st := status.Classify(occupancy, room.Capacity, isGhost)
	fmt.Printf("%-12s %-10s %3d/%-3d\n", room.RoomID, st, occupancy, room.Capacity)
}
