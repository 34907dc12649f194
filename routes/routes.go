package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"icehaus/handlers"
	"icehaus/middleware"
)

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, bh *handlers.BookingHandler, cache *redis.Client) {
	api := r.Group("/api/bookings")
	{
		// Anonymous customers may book; a valid token attaches identity.
		api.POST("", middleware.OptionalAuthMiddleware(), bh.CreateBookingHandler)
		api.POST("/confirm", bh.ConfirmBookingHandler)
		api.POST("/:id/cancel", bh.CancelBookingHandler)
		api.POST("/:id/verify", bh.VerifyBookingHandler)

		api.GET("", middleware.JWTAuthMiddleware(), bh.MyBookingsHandler)
	}

	r.GET("/api/availability", bh.AvailabilityHandler(cache))
}

// RegisterGiftCardRoutes sets up gift card redemption.
func RegisterGiftCardRoutes(r *gin.Engine, gh *handlers.GiftCardHandler) {
	api := r.Group("/api/giftcards")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("/redeem", gh.RedeemHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
