package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"icehaus/services/booking"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Svc    booking.BookingService
	Logger *zap.Logger
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Svc: svc, Logger: logger}
}

// statusFor maps engine error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case booking.CodeNotFound:
		return http.StatusNotFound
	case booking.CodeConflict:
		return http.StatusConflict
	case booking.CodeInvalidInput:
		return http.StatusBadRequest
	case booking.CodeInsufficientFunds:
		return http.StatusPaymentRequired
	case booking.CodeUpstreamFailure:
		return http.StatusBadGateway
	case booking.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the engine's error envelope. Unclassified errors are
// logged in full and reported as a bare 500.
func (h *BookingHandler) respondError(c *gin.Context, err error) {
	var engineErr *booking.Error
	if errors.As(err, &engineErr) {
		c.JSON(statusFor(engineErr.Code), gin.H{
			"error": engineErr.Message,
			"code":  engineErr.Code,
		})
		return
	}
	h.Logger.Error("Unhandled booking error",
		zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// CreateBookingHandler handles POST /api/bookings.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	// A signed-in caller's identity overrides whatever the body claims.
	if userID := c.GetString("userID"); userID != "" {
		req.UserID = userID
	}

	result, err := h.Svc.CreateBooking(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// ConfirmBookingHandler handles POST /api/bookings/confirm. It is called
// from the checkout success redirect with the gateway session id.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil && c.Query("session_id") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = strings.TrimSpace(c.Query("session_id"))
	}

	confirmed, err := h.Svc.ConfirmBooking(c.Request.Context(), sessionID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookingId":     confirmed.ID,
		"status":        confirmed.Status,
		"paymentStatus": confirmed.PaymentStatus,
	})
}

// CancelBookingHandler handles POST /api/bookings/:id/cancel.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	bookingID := c.Param("id")

	var body struct {
		PartialRefund bool `json:"partialRefund"`
	}
	// An empty body means a full refund cancellation.
	_ = c.ShouldBindJSON(&body)

	result, err := h.Svc.CancelBooking(c.Request.Context(), bookingID, body.PartialRefund)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// VerifyBookingHandler handles POST /api/bookings/:id/verify.
func (h *BookingHandler) VerifyBookingHandler(c *gin.Context) {
	result, err := h.Svc.VerifyBookingPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// MyBookingsHandler handles GET /api/bookings for the signed-in customer.
func (h *BookingHandler) MyBookingsHandler(c *gin.Context) {
	userID := c.GetString("userID")
	email := c.GetString("userEmail")
	if userID == "" && email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	bookings, err := h.Svc.CustomerBookings(c.Request.Context(), userID, email)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}
