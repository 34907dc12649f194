package payment

import (
	"context"

	"icehaus/models"
)

// Gateway session payment statuses, as reported by the processor.
const (
	SessionPaid   = "paid"
	SessionUnpaid = "unpaid"
)

// CheckoutRequest describes a gateway checkout to be created for the unpaid
// remainder of a booking. Amount is integer pence.
type CheckoutRequest struct {
	BookingID     string
	TimeSlotID    string
	CustomerEmail string
	Description   string
	AmountPence   int64
	ExpiresIn     int // minutes until the checkout session expires
}

// Gateway abstracts the payment processor so the booking engine can be
// exercised against a fake in tests.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error)
	// SessionPaymentStatus returns SessionPaid or SessionUnpaid.
	SessionPaymentStatus(ctx context.Context, sessionID string) (string, error)
	// RefundSession refunds the payment behind a checkout session.
	// amountPence of 0 means a full refund.
	RefundSession(ctx context.Context, sessionID string, amountPence int64) error
}
