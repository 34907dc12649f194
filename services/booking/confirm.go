package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	"icehaus/models"
)

// ConfirmBooking flips a pending gateway booking to paid+confirmed once the
// processor reports the checkout settled. Both the webhook and the manual
// verification path land here. The transition itself is a conditional
// update, so replays and races confirm exactly once; seats were reserved
// when the booking was created and are not touched again.
func (s *DefaultBookingService) ConfirmBooking(ctx context.Context, stripeSessionID string) (*models.Booking, error) {
	if stripeSessionID == "" {
		return nil, InvalidInput("session id is required")
	}

	booking, err := s.Bookings.GetByStripeSession(ctx, stripeSessionID)
	if err != nil {
		if bookingRepo.IsNotFound(err) {
			return nil, NotFound("no booking for checkout session %s", stripeSessionID)
		}
		return nil, fmt.Errorf("failed to load booking for session: %w", err)
	}

	transitioned, err := s.Bookings.MarkPaidIfPending(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if !transitioned {
		// Already paid (or cancelled); nothing to do.
		s.Logger.Debug("Confirmation replay ignored",
			zap.String("bookingId", booking.ID),
			zap.String("paymentStatus", booking.PaymentStatus))
		return booking, nil
	}

	booking.PaymentStatus = models.PaymentPaid
	booking.Status = models.StatusConfirmed

	s.enqueueEmail(EmailConfirmation, booking.ID)
	s.Logger.Info("Booking confirmed",
		zap.String("bookingId", booking.ID),
		zap.String("sessionId", stripeSessionID))

	return booking, nil
}
