package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"

	"campus-occupancy-backend/config"
	"campus-occupancy-backend/internal/insight"
	"campus-occupancy-backend/internal/live"
	"campus-occupancy-backend/internal/mw"
	"campus-occupancy-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(s store.Store, hub *live.Hub, insights *insight.Generator, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, hub, insights, webpushOptions)

	rateLimiter := mw.RateLimiter(cfg.RateLimitPerSec, cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Snapshot reads. Live room state is never cached; only the
		// append-only history endpoint sits behind the response cache.
		api.GET("/rooms", handler.GetRooms)
		api.GET("/rooms/:roomId", handler.GetRoom)
		api.GET("/rooms/:roomId/history", caching, handler.GetRoomHistory)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	// Dashboard clients call the insight endpoint at the root, outside /api.
	r.GET("/insight/:roomId", handler.GetInsight)

	// Live update channel.
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request)
	})

	return r
}
