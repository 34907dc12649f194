package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"icehaus/models"
)

// availabilityCacheTTL keeps the availability endpoint cheap under polling
// while staying close enough to live occupancy.
const availabilityCacheTTL = 30 * time.Second

// AvailabilityHandler handles GET /api/availability?date=YYYY-MM-DD.
// Responses are cached briefly in Redis; a booking landing inside the TTL
// is caught again by the reservation's own conditional update.
func (h *BookingHandler) AvailabilityHandler(cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		date := c.Query("date")
		serviceType := c.Query("serviceType")
		if date == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date query parameter is required"})
			return
		}

		ctx := c.Request.Context()
		cacheKey := "availability:" + date + ":" + serviceType

		if cache != nil {
			if cached, err := cache.Get(ctx, cacheKey).Result(); err == nil {
				var slots []models.SlotAvailability
				if json.Unmarshal([]byte(cached), &slots) == nil {
					c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots, "cached": true})
					return
				}
			}
		}

		slots, err := h.Svc.DayAvailability(ctx, date, serviceType)
		if err != nil {
			h.respondError(c, err)
			return
		}

		if cache != nil {
			if data, err := json.Marshal(slots); err == nil {
				if err := cache.Set(ctx, cacheKey, data, availabilityCacheTTL).Err(); err != nil {
					h.Logger.Warn("Failed to cache availability", zap.String("date", date), zap.Error(err))
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
	}
}
