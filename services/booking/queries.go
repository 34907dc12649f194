package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	"icehaus/models"
)

// DayAvailability returns live availability for every slot on a date,
// optionally filtered to one service type. Days are synthesized from the
// schedule on first query; closed days come back empty.
func (s *DefaultBookingService) DayAvailability(ctx context.Context, date, serviceType string) ([]models.SlotAvailability, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, InvalidInput("invalid date %q, want YYYY-MM-DD", date)
	}

	slots, err := s.Ledger.GetOrCreateDay(ctx, date)
	if err != nil {
		return nil, err
	}

	out := make([]models.SlotAvailability, 0, len(slots))
	for i := range slots {
		if serviceType != "" && slots[i].ServiceType != serviceType {
			continue
		}
		avail, err := s.Ledger.ComputeAvailability(ctx, &slots[i])
		if err != nil {
			return nil, err
		}
		out = append(out, avail)
	}
	return out, nil
}

// CustomerBookings lists a customer's bookings, newest first. Either the
// user id or the email may be empty; both empty is a caller bug.
func (s *DefaultBookingService) CustomerBookings(ctx context.Context, userID, email string) ([]models.Booking, error) {
	if userID == "" && email == "" {
		return nil, InvalidInput("a user id or email is required")
	}
	bookings, err := s.Bookings.ByCustomer(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer bookings: %w", err)
	}
	return bookings, nil
}

// ExpirePendingBooking cancels a gateway booking whose checkout never
// settled within the pending TTL, returning its seats and any credit
// portions. Bookings that paid or cancelled in the meantime are left
// alone.
func (s *DefaultBookingService) ExpirePendingBooking(ctx context.Context, bookingID string) (bool, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if bookingRepo.IsNotFound(err) {
			// Nothing to expire; the task outlived its booking.
			return false, nil
		}
		return false, fmt.Errorf("failed to load booking for expiry: %w", err)
	}

	if booking.PaymentStatus != models.PaymentPending || booking.Status != models.StatusPending {
		s.Logger.Debug("Expiry skipped, booking already settled",
			zap.String("bookingId", booking.ID),
			zap.String("paymentStatus", booking.PaymentStatus))
		return false, nil
	}

	// The checkout may have settled moments ago without the webhook having
	// landed yet; ask the gateway before dropping the seats.
	if booking.StripeSessionID != "" {
		result, err := s.VerifyBookingPayment(ctx, booking.ID)
		if err == nil && result.Success {
			s.Logger.Info("Expiry found a settled checkout, booking confirmed instead",
				zap.String("bookingId", booking.ID))
			return false, nil
		}
	}

	// Conditional on the payment still being pending: a webhook landing
	// between the checks above and this write keeps its paid booking.
	cancelled, err := s.Bookings.CancelIfPending(ctx, booking.ID)
	if err != nil {
		return false, fmt.Errorf("failed to expire booking: %w", err)
	}
	if !cancelled {
		s.Logger.Info("Expiry lost to a concurrent payment, booking kept",
			zap.String("bookingId", booking.ID))
		return false, nil
	}

	if err := s.Ledger.Release(ctx, booking.TimeSlotID, booking.BookingType, booking.GuestCount); err != nil {
		s.Logger.Error("Failed to release seats for expired booking",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}
	if len(booking.CreditDeductions) > 0 {
		s.refundCreditDeductions(ctx, booking)
	}

	entry := models.AuditEntry{
		ID:        uuid.NewString(),
		BookingID: booking.ID,
		Action:    "pending_expired",
		Detail:    "checkout not completed within the pending window",
		At:        s.Clock.Now().Unix(),
	}
	if err := s.Bookings.RecordAudit(ctx, entry); err != nil {
		s.Logger.Error("Failed to record expiry audit entry",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}

	s.Logger.Info("Expired pending booking",
		zap.String("bookingId", booking.ID),
		zap.String("slotId", booking.TimeSlotID))
	return true, nil
}
