// File: database/repository/booking/interface.go
package bookingRepo

import (
	"context"

	"icehaus/database"
	"icehaus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository persists bookings and the audit trail.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetByStripeSession(ctx context.Context, sessionID string) (*models.Booking, error)
	// ActiveBySlot returns bookings that still count toward the slot's
	// occupancy (paid, or pending while a payment is in flight).
	ActiveBySlot(ctx context.Context, slotID string) ([]models.Booking, error)
	// FreeEntitlementOnDate returns the customer's paid zero-amount
	// bookings for a calendar date; used by the one-free-per-day guard.
	FreeEntitlementOnDate(ctx context.Context, customerEmail, date string) ([]models.Booking, error)
	ByCustomer(ctx context.Context, userID, email string) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID, status, paymentStatus string) error
	// MarkPaidIfPending flips a pending booking to paid+confirmed and
	// reports whether this call performed the transition. Repeated calls
	// return false, which makes gateway confirmation idempotent.
	MarkPaidIfPending(ctx context.Context, bookingID string) (bool, error)
	// CancelIfPending cancels a booking only while its payment is still
	// pending and reports whether this call performed the transition. A
	// concurrent paid transition wins and leaves the booking untouched.
	CancelIfPending(ctx context.Context, bookingID string) (bool, error)
	SetStripeSession(ctx context.Context, bookingID, sessionID string) error
	RecordAudit(ctx context.Context, entry models.AuditEntry) error
	EnsureIndexes() error
}

type mongoBookingRepo struct {
	coll  *mongo.Collection
	audit *mongo.Collection
}

// NewMongoBookingRepo constructs a new MongoDB BookingRepository.
func NewMongoBookingRepo() BookingRepository {
	db := database.MongoClient.Database("icehaus")
	return &mongoBookingRepo{
		coll:  db.Collection("bookings"),
		audit: db.Collection("booking_audit"),
	}
}
