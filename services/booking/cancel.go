package booking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	"icehaus/models"
)

// CancelBooking reverses a committed booking: the row is cancelled first,
// then seats are released and entitlements restocked. Steps after the row
// update are lenient: a failed refund or restock is reported in the
// result's warnings, never rolled into un-cancelling the booking.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string, partialRefund bool) (*CancelResult, error) {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if bookingRepo.IsNotFound(err) {
			return nil, NotFound("booking %s not found", bookingID)
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}

	if booking.Status == models.StatusCancelled {
		return &CancelResult{Success: true, AlreadyCancelled: true}, nil
	}

	result := &CancelResult{Success: true}
	wasPaid := booking.PaymentStatus == models.PaymentPaid
	entitlementFunded := booking.FreeOfCharge() && booking.DiscountAmount > 0

	paymentStatus := models.PaymentCancelled
	refundAmount := int64(0)
	if wasPaid && !entitlementFunded && booking.StripeSessionID != "" && booking.FinalAmount > 0 {
		if partialRefund {
			paymentStatus = models.PaymentPartialRefund
			refundAmount = booking.FinalAmount / 2
		} else {
			paymentStatus = models.PaymentRefunded
			refundAmount = booking.FinalAmount
		}
	}

	if err := s.Bookings.UpdateStatus(ctx, booking.ID, models.StatusCancelled, paymentStatus); err != nil {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	// Seats come back regardless of how the booking was funded.
	if err := s.Ledger.Release(ctx, booking.TimeSlotID, booking.BookingType, booking.GuestCount); err != nil {
		s.Logger.Error("Failed to release seats on cancellation",
			zap.String("bookingId", booking.ID), zap.Error(err))
		result.Warnings = append(result.Warnings, "seat release failed; availability will self-correct")
	} else {
		result.SlotsFreed = booking.GuestCount
	}

	// Restock whatever entitlement funded the booking.
	switch {
	case entitlementFunded && booking.PaymentMode == models.PayModeToken:
		if err := s.Entitlements.RestockToken(ctx, booking.CustomerEmail); err != nil {
			s.Logger.Error("Failed to restock token on cancellation",
				zap.String("bookingId", booking.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "token restock failed")
		} else {
			result.TokenRefunded = true
		}
	case entitlementFunded && booking.PaymentMode == models.PayModeMembership:
		if err := s.restockMembership(ctx, booking); err != nil {
			s.Logger.Error("Failed to restock membership session on cancellation",
				zap.String("bookingId", booking.ID), zap.Error(err))
			result.Warnings = append(result.Warnings, "membership session restock failed")
		}
	}
	if len(booking.CreditDeductions) > 0 {
		if ok := s.refundCreditDeductions(ctx, booking); !ok {
			result.Warnings = append(result.Warnings, "store credit refund failed")
		}
	}

	// Gateway refund last; the money step reports its own failure.
	if refundAmount > 0 {
		partial := int64(0)
		if partialRefund {
			partial = refundAmount
		}
		if err := s.Gateway.RefundSession(ctx, booking.StripeSessionID, partial); err != nil {
			s.Logger.Error("Gateway refund failed",
				zap.String("bookingId", booking.ID),
				zap.String("sessionId", booking.StripeSessionID),
				zap.Error(err))
			result.Warnings = append(result.Warnings, "payment refund failed; support has been notified")
		} else {
			result.RefundIssued = refundAmount
		}
	}

	s.enqueueEmail(EmailCancellation, booking.ID)
	s.Logger.Info("Booking cancelled",
		zap.String("bookingId", booking.ID),
		zap.Bool("tokenRefunded", result.TokenRefunded),
		zap.Int64("refundPence", result.RefundIssued),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

func (s *DefaultBookingService) restockMembership(ctx context.Context, booking *models.Booking) error {
	membership, err := s.Entitlements.ResolveMembership(ctx, booking.UserID)
	if err != nil {
		return err
	}
	if membership == nil || membership.Unlimited {
		return nil
	}
	return s.Entitlements.RestockMembershipSession(ctx, membership.ID)
}

// refundCreditDeductions returns every credit portion a booking consumed.
func (s *DefaultBookingService) refundCreditDeductions(ctx context.Context, booking *models.Booking) bool {
	ok := true
	for _, d := range booking.CreditDeductions {
		if err := s.Entitlements.RefundCreditDeduction(ctx, d); err != nil {
			s.Logger.Error("Failed to refund credit deduction",
				zap.String("bookingId", booking.ID),
				zap.String("creditId", d.CreditID),
				zap.Error(err))
			ok = false
		}
	}
	return ok
}
