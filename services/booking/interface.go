package booking

import (
	"context"
	"time"

	"icehaus/models"
)

// CreateBookingRequest is the single entry point for every payment mode.
type CreateBookingRequest struct {
	CustomerName    string `json:"customerName" binding:"required"`
	CustomerEmail   string `json:"customerEmail" binding:"required,email"`
	CustomerPhone   string `json:"customerPhone,omitempty"`
	UserID          string `json:"userId,omitempty"`
	TimeSlotID      string `json:"timeSlotId" binding:"required"`
	BookingType     string `json:"bookingType" binding:"required"`
	GuestCount      int    `json:"guestCount"`
	SpecialRequests string `json:"specialRequests,omitempty"`
	DiscountCode    string `json:"discountCode,omitempty"`
	PaymentMode     string `json:"paymentMode" binding:"required"`
}

// BookingResult is returned by CreateBooking. Exactly one of BookingID
// (settled immediately) or RedirectURL (gateway checkout pending) drives
// the caller's next step.
type BookingResult struct {
	BookingID   string `json:"bookingId,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
	FinalAmount int64  `json:"finalAmount"`
}

// CancelResult reports a cancellation, including steps that failed after
// the booking row itself was already cancelled.
type CancelResult struct {
	Success          bool     `json:"success"`
	AlreadyCancelled bool     `json:"alreadyCancelled,omitempty"`
	TokenRefunded    bool     `json:"tokenRefunded,omitempty"`
	SlotsFreed       int      `json:"slotsFreed"`
	RefundIssued     int64    `json:"refundIssued,omitempty"` // pence
	Warnings         []string `json:"warnings,omitempty"`
}

// VerifyResult reports the payment verification reconciler's outcome.
type VerifyResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// TaskScheduler defers work to the background worker.
type TaskScheduler interface {
	ScheduleBookingExpiry(bookingID string, after time.Duration) error
	EnqueueBookingEmail(kind, bookingID string) error
}

// Email task kinds.
const (
	EmailConfirmation = "confirmation"
	EmailCancellation = "cancellation"
)

// BookingService is the transaction orchestrator plus its reconcilers.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error)
	// ConfirmBooking flips a pending gateway booking to paid. Idempotent:
	// confirming an already-paid booking is a no-op. Seats were reserved
	// provisionally at creation, so confirmation never touches occupancy.
	ConfirmBooking(ctx context.Context, stripeSessionID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, partialRefund bool) (*CancelResult, error)
	VerifyBookingPayment(ctx context.Context, bookingID string) (*VerifyResult, error)
	DayAvailability(ctx context.Context, date, serviceType string) ([]models.SlotAvailability, error)
	CustomerBookings(ctx context.Context, userID, email string) ([]models.Booking, error)
	// ExpirePendingBooking cancels a gateway booking whose checkout never
	// completed; reports whether anything was expired.
	ExpirePendingBooking(ctx context.Context, bookingID string) (bool, error)
}
