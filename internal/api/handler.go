package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"campus-occupancy-backend/internal/insight"
	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	hub      *live.Hub
	insights *insight.Generator
	webpush  *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, hub *live.Hub, insights *insight.Generator, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:    s,
		hub:      hub,
		insights: insights,
		webpush:  webpushOptions,
	}
}
