package models

// CheckoutSession is the engine's view of a gateway checkout.
type CheckoutSession struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

// Gateway payment states reported by the verification reconciler.
const (
	VerifyAlreadyPaid      = "already_paid"
	VerifyPaymentConfirmed = "payment_confirmed"
	VerifyUnpaid           = "unpaid"
	VerifyNoStripeSession  = "no_stripe_session"
	VerifyStripeError      = "stripe_error"
)

// AuditEntry records a recovery or reconciliation action against a booking.
type AuditEntry struct {
	ID        string `bson:"id" json:"id"`
	BookingID string `bson:"bookingId" json:"bookingId"`
	Action    string `bson:"action" json:"action"`
	Detail    string `bson:"detail,omitempty" json:"detail,omitempty"`
	At        int64  `bson:"at" json:"at"` // unix seconds
}
