package models

import "time"

// Payment statuses.
const (
	PaymentPending       = "pending"
	PaymentPaid          = "paid"
	PaymentCancelled     = "cancelled"
	PaymentRefunded      = "refunded"
	PaymentPartialRefund = "partial_refund"
)

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Payment modes accepted by the orchestrator.
const (
	PayModeGateway    = "gateway"
	PayModeToken      = "token"
	PayModeMembership = "membership"
	PayModeCredit     = "credit"
)

// Booking is a reservation of one or more seats in a TimeSlot.
// All monetary fields are integer pence.
type Booking struct {
	ID              string    `bson:"id" json:"id"`
	CustomerName    string    `bson:"customerName" json:"customerName"`
	CustomerEmail   string    `bson:"customerEmail" json:"customerEmail"`
	CustomerPhone   string    `bson:"customerPhone,omitempty" json:"customerPhone,omitempty"`
	UserID          string    `bson:"userId,omitempty" json:"userId,omitempty"`
	TimeSlotID      string    `bson:"timeSlotId" json:"timeSlotId"`
	Date            string    `bson:"date" json:"date"`
	Time            string    `bson:"time" json:"time"`
	ServiceType     string    `bson:"serviceType" json:"serviceType"`
	BookingType     string    `bson:"bookingType" json:"bookingType"` // "communal" | "private"
	GuestCount      int       `bson:"guestCount" json:"guestCount"`
	PriceAmount     int64     `bson:"priceAmount" json:"priceAmount"`
	DiscountAmount  int64     `bson:"discountAmount" json:"discountAmount"`
	FinalAmount     int64     `bson:"finalAmount" json:"finalAmount"` // priceAmount - discountAmount, never negative
	PaymentStatus   string    `bson:"paymentStatus" json:"paymentStatus"`
	Status          string    `bson:"status" json:"status"`
	PaymentMode     string    `bson:"paymentMode" json:"paymentMode"`
	SpecialRequests string    `bson:"specialRequests,omitempty" json:"specialRequests,omitempty"`
	StripeSessionID string    `bson:"stripeSessionId,omitempty" json:"stripeSessionId,omitempty"`
	// CreditDeductions records which store-credit grants funded this
	// booking so cancellation can return exactly what was taken.
	CreditDeductions []CreditDeduction `bson:"creditDeductions,omitempty" json:"creditDeductions,omitempty"`
	CreatedAt        time.Time         `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time         `bson:"updatedAt" json:"updatedAt"`
}

// FreeOfCharge reports whether the booking was settled entirely by an
// entitlement (token, membership or credit) rather than a gateway charge.
func (b Booking) FreeOfCharge() bool {
	return b.FinalAmount == 0
}

// Active reports whether the booking still counts toward slot occupancy.
func (b Booking) Active() bool {
	if b.Status == StatusCancelled {
		return false
	}
	return b.PaymentStatus == PaymentPaid || b.PaymentStatus == PaymentPending
}
