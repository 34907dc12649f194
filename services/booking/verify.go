package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	"icehaus/models"
	"icehaus/services/payment"
)

// VerifyBookingPayment re-checks a booking's checkout session against the
// gateway. It recovers bookings stuck in pending after a missed webhook:
// if the processor says the session settled, the booking is confirmed
// through the same idempotent path the webhook uses and the recovery is
// recorded in the audit trail.
func (s *DefaultBookingService) VerifyBookingPayment(ctx context.Context, bookingID string) (*VerifyResult, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if bookingRepo.IsNotFound(err) {
			return nil, NotFound("booking %s not found", bookingID)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.PaymentStatus == models.PaymentPaid {
		return &VerifyResult{Success: true, Status: models.VerifyAlreadyPaid}, nil
	}
	if booking.StripeSessionID == "" {
		return &VerifyResult{Success: false, Status: models.VerifyNoStripeSession}, nil
	}

	status, err := s.Gateway.SessionPaymentStatus(ctx, booking.StripeSessionID)
	if err != nil {
		s.Logger.Error("Gateway status check failed",
			zap.String("bookingId", booking.ID),
			zap.String("sessionId", booking.StripeSessionID),
			zap.Error(err))
		return &VerifyResult{Success: false, Status: models.VerifyStripeError}, nil
	}
	if status != payment.SessionPaid {
		return &VerifyResult{Success: false, Status: models.VerifyUnpaid}, nil
	}

	if _, err := s.ConfirmBooking(ctx, booking.StripeSessionID); err != nil {
		return nil, fmt.Errorf("failed to confirm recovered booking: %w", err)
	}

	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Action:    "payment_recovered",
		Detail:    fmt.Sprintf("session %s reported paid on manual verification", booking.StripeSessionID),
		At:        s.Clock.Now().Unix(),
	}
	if err := s.Bookings.RecordAudit(ctx, entry); err != nil {
		s.Logger.Error("Failed to record recovery audit entry",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}

	s.Logger.Info("Recovered stuck booking via payment verification",
		zap.String("bookingId", booking.ID),
		zap.String("sessionId", booking.StripeSessionID))

	return &VerifyResult{Success: true, Status: models.VerifyPaymentConfirmed}, nil
}
