package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-occupancy-backend/internal/insight"
)

// GetInsight handles the GET /insight/:roomId request. The response shape is
// intentionally not uniform: an insight object on success, the literal
// string "No data available yet." for an empty history, and a generic error
// object on failure. Callers check the payload type, not the status code.
func (h *Handler) GetInsight(c *gin.Context) {
	roomID := c.Param("roomId")
	log.Printf("Generating AI insights for room %s...", roomID)

	ins, err := h.insights.Generate(c.Request.Context(), roomID)
	if errors.Is(err, insight.ErrNoData) {
		c.JSON(http.StatusOK, "No data available yet.")
		return
	}
	if err != nil {
		var provider *insight.ProviderError
		var parse *insight.ParseError
		switch {
		case errors.As(err, &provider):
			log.Printf("Insight provider failure for room %s: %v", roomID, err)
		case errors.As(err, &parse):
			log.Printf("Insight response unparseable for room %s: %v", roomID, err)
		default:
			log.Printf("Insight generation failed for room %s: %v", roomID, err)
		}
		c.JSON(http.StatusOK, gin.H{"error": "Failed to generate insights"})
		return
	}

	c.JSON(http.StatusOK, ins)
}
