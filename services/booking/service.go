package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	"icehaus/models"
	"icehaus/services/entitlement"
	"icehaus/services/payment"
	"icehaus/utils"
)

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Ledger       *SlotLedger
	Entitlements entitlement.EntitlementService
	Bookings     bookingRepo.BookingRepository
	Gateway      payment.Gateway
	Scheduler    TaskScheduler
	Prices       PriceTable
	Clock        utils.Clock
	Logger       *zap.Logger
	// PendingTTL bounds how long an unpaid gateway booking may hold seats.
	PendingTTL time.Duration
}

// CreateBooking validates the request against the slot ledger and the
// entitlement resolver, decides whether a gateway payment is required, and
// commits the booking. See CreateBookingRequest for the payment modes.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	if err := validateCreateRequest(&req); err != nil {
		return nil, err
	}

	slot, err := s.Ledger.GetSlot(ctx, req.TimeSlotID)
	if err != nil {
		return nil, err
	}

	// Token and membership bookings are always communal single-guest, and
	// a customer gets at most one free session per calendar day.
	if req.PaymentMode == models.PayModeToken || req.PaymentMode == models.PayModeMembership {
		req.BookingType = models.BookingTypeCommunal
		req.GuestCount = 1

		existing, err := s.Entitlements.FreeEntitlementUsedToday(ctx, req.CustomerEmail, slot.Date)
		if err != nil {
			return nil, fmt.Errorf("free-entitlement guard failed: %w", err)
		}
		if existing != nil {
			return nil, Conflict("you already have a free session at %s on %s", existing.Time, existing.Date)
		}
	}

	// Verify the entitlement exists before touching any state.
	var membership *models.Membership
	switch req.PaymentMode {
	case models.PayModeToken:
		grants, err := s.Entitlements.ResolveTokens(ctx, req.CustomerEmail)
		if err != nil {
			return nil, err
		}
		if len(grants) == 0 {
			return nil, InsufficientFunds("no session tokens available")
		}
	case models.PayModeMembership:
		membership, err = s.Entitlements.ResolveMembership(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		if membership == nil {
			return nil, InsufficientFunds("no active membership")
		}
		if !membership.Unlimited && membership.SessionsRemaining <= 0 {
			return nil, InsufficientFunds("no membership sessions remaining this week")
		}
	}

	price := s.Prices.Quote(slot.ServiceType, req.BookingType, req.GuestCount)
	var discount int64
	var discountCodeID string

	if req.DiscountCode != "" {
		discount, discountCodeID, err = s.Entitlements.ResolveDiscountCode(ctx, req.DiscountCode, price)
		if err != nil {
			if isDiscountRejection(err) {
				return nil, InvalidInput("discount code rejected: %v", err)
			}
			return nil, fmt.Errorf("failed to resolve discount code: %w", err)
		}
	}

	// Token and membership bookings are free in full; credit covers as much
	// of the remainder as the balance allows (full-cost-first rule).
	var creditDeductions []models.CreditDeduction
	due := price - discount
	if due < 0 {
		due = 0
	}

	switch req.PaymentMode {
	case models.PayModeToken, models.PayModeMembership:
		discount = price
		due = 0
	case models.PayModeCredit:
		credits, err := s.Entitlements.ResolveCredits(ctx, req.UserID)
		if err != nil {
			return nil, err
		}
		var covered int64
		covered, creditDeductions = entitlement.PlanCreditDeductions(credits, due)
		discount += covered
		due -= covered
	}

	booking := &models.Booking{
		CustomerName:     req.CustomerName,
		CustomerEmail:    req.CustomerEmail,
		CustomerPhone:    req.CustomerPhone,
		UserID:           req.UserID,
		TimeSlotID:       slot.ID,
		Date:             slot.Date,
		Time:             slot.Time,
		ServiceType:      slot.ServiceType,
		BookingType:      req.BookingType,
		GuestCount:       req.GuestCount,
		PriceAmount:      price,
		DiscountAmount:   discount,
		FinalAmount:      due,
		PaymentMode:      req.PaymentMode,
		SpecialRequests:  req.SpecialRequests,
		CreditDeductions: creditDeductions,
	}

	if due == 0 {
		return s.commitSettledBooking(ctx, booking, membership, discountCodeID)
	}
	return s.commitGatewayBooking(ctx, booking, discountCodeID)
}

// commitSettledBooking commits a booking fully covered by entitlements:
// reserve seats, insert the booking as paid+confirmed, then consume the
// entitlements. A failure after the reserve triggers a compensating
// release so no seat stays held for a booking that never landed.
func (s *DefaultBookingService) commitSettledBooking(ctx context.Context, booking *models.Booking, membership *models.Membership, discountCodeID string) (*BookingResult, error) {
	if err := s.Ledger.Reserve(ctx, booking.TimeSlotID, booking.BookingType, booking.GuestCount); err != nil {
		return nil, err
	}

	booking.PaymentStatus = models.PaymentPaid
	booking.Status = models.StatusConfirmed

	if err := s.Bookings.Create(ctx, booking); err != nil {
		s.compensateReserve(ctx, booking)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.consumeEntitlements(ctx, booking, membership); err != nil {
		// Unwind the booking and the seats; the customer keeps their
		// entitlement and can retry.
		if stErr := s.Bookings.UpdateStatus(ctx, booking.ID, models.StatusCancelled, models.PaymentCancelled); stErr != nil {
			s.Logger.Error("Failed to cancel booking after entitlement failure",
				zap.String("bookingId", booking.ID), zap.Error(stErr))
		}
		s.compensateReserve(ctx, booking)
		return nil, err
	}

	if discountCodeID != "" {
		if err := s.Entitlements.CommitDiscountUsage(ctx, discountCodeID); err != nil {
			s.Logger.Warn("Failed to record discount usage", zap.String("codeId", discountCodeID), zap.Error(err))
		}
	}

	s.enqueueEmail(EmailConfirmation, booking.ID)
	s.Logger.Info("Booking settled by entitlement",
		zap.String("bookingId", booking.ID),
		zap.String("mode", booking.PaymentMode),
		zap.String("slotId", booking.TimeSlotID))

	return &BookingResult{BookingID: booking.ID, FinalAmount: 0}, nil
}

// commitGatewayBooking reserves seats provisionally, stores the booking as
// pending, and hands back a checkout redirect. The paid transition happens
// out-of-band via ConfirmBooking.
func (s *DefaultBookingService) commitGatewayBooking(ctx context.Context, booking *models.Booking, discountCodeID string) (*BookingResult, error) {
	if err := s.Ledger.Reserve(ctx, booking.TimeSlotID, booking.BookingType, booking.GuestCount); err != nil {
		return nil, err
	}

	booking.PaymentStatus = models.PaymentPending
	booking.Status = models.StatusPending

	if err := s.Bookings.Create(ctx, booking); err != nil {
		s.compensateReserve(ctx, booking)
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	// Credit portions are taken up front; expiry or cancellation returns
	// them.
	if len(booking.CreditDeductions) > 0 {
		if err := s.Entitlements.ApplyCreditDeductions(ctx, booking.CreditDeductions); err != nil {
			if stErr := s.Bookings.UpdateStatus(ctx, booking.ID, models.StatusCancelled, models.PaymentCancelled); stErr != nil {
				s.Logger.Error("Failed to cancel booking after credit failure",
					zap.String("bookingId", booking.ID), zap.Error(stErr))
			}
			s.compensateReserve(ctx, booking)
			if errors.Is(err, entitlement.ErrCreditRace) {
				return nil, Conflict("store credit changed while booking; please retry")
			}
			return nil, err
		}
	}

	session, err := s.Gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		BookingID:     booking.ID,
		TimeSlotID:    booking.TimeSlotID,
		CustomerEmail: booking.CustomerEmail,
		Description:   fmt.Sprintf("%s %s booking, %s %s", booking.ServiceType, booking.BookingType, booking.Date, booking.Time),
		AmountPence:   booking.FinalAmount,
		ExpiresIn:     int(s.PendingTTL / time.Minute),
	})
	if err != nil {
		s.unwindGatewayBooking(ctx, booking)
		return nil, Upstream("payment gateway error: %v", err)
	}

	if err := s.Bookings.SetStripeSession(ctx, booking.ID, session.ID); err != nil {
		s.unwindGatewayBooking(ctx, booking)
		return nil, fmt.Errorf("failed to attach checkout session: %w", err)
	}

	if discountCodeID != "" {
		if err := s.Entitlements.CommitDiscountUsage(ctx, discountCodeID); err != nil {
			s.Logger.Warn("Failed to record discount usage", zap.String("codeId", discountCodeID), zap.Error(err))
		}
	}

	// Pending bookings must not hold seats forever if the checkout is
	// abandoned.
	if s.Scheduler != nil {
		if err := s.Scheduler.ScheduleBookingExpiry(booking.ID, s.PendingTTL); err != nil {
			s.Logger.Error("Failed to schedule pending-booking expiry",
				zap.String("bookingId", booking.ID), zap.Error(err))
		}
	}

	s.Logger.Info("Booking pending gateway payment",
		zap.String("bookingId", booking.ID),
		zap.String("sessionId", session.ID),
		zap.Int64("amountPence", booking.FinalAmount))

	return &BookingResult{RedirectURL: session.RedirectURL, BookingID: booking.ID, FinalAmount: booking.FinalAmount}, nil
}

func (s *DefaultBookingService) consumeEntitlements(ctx context.Context, booking *models.Booking, membership *models.Membership) error {
	switch booking.PaymentMode {
	case models.PayModeToken:
		if _, err := s.Entitlements.ConsumeToken(ctx, booking.CustomerEmail); err != nil {
			if errors.Is(err, entitlement.ErrNoTokens) {
				return InsufficientFunds("no session tokens available")
			}
			return err
		}
	case models.PayModeMembership:
		if err := s.Entitlements.ConsumeMembershipSession(ctx, membership); err != nil {
			if errors.Is(err, entitlement.ErrNoSessions) {
				return InsufficientFunds("no membership sessions remaining this week")
			}
			return err
		}
	case models.PayModeCredit:
		if err := s.Entitlements.ApplyCreditDeductions(ctx, booking.CreditDeductions); err != nil {
			if errors.Is(err, entitlement.ErrCreditRace) {
				return Conflict("store credit changed while booking; please retry")
			}
			return err
		}
	}
	return nil
}

// unwindGatewayBooking compensates a pending booking that failed before the
// customer ever saw a checkout: seats back, credits back, row cancelled.
func (s *DefaultBookingService) unwindGatewayBooking(ctx context.Context, booking *models.Booking) {
	if err := s.Bookings.UpdateStatus(ctx, booking.ID, models.StatusCancelled, models.PaymentCancelled); err != nil {
		s.Logger.Error("Failed to cancel booking during unwind",
			zap.String("bookingId", booking.ID), zap.Error(err))
	}
	s.compensateReserve(ctx, booking)
	s.refundCreditDeductions(ctx, booking)
}

func (s *DefaultBookingService) compensateReserve(ctx context.Context, booking *models.Booking) {
	if err := s.Ledger.Release(ctx, booking.TimeSlotID, booking.BookingType, booking.GuestCount); err != nil {
		// Visible inconsistency beats silent data loss; the seat count
		// self-corrects on the next availability computation.
		s.Logger.Error("Failed to release seats during compensation",
			zap.String("bookingId", booking.ID),
			zap.String("slotId", booking.TimeSlotID),
			zap.Error(err))
	}
}

func (s *DefaultBookingService) enqueueEmail(kind, bookingID string) {
	if s.Scheduler == nil {
		return
	}
	if err := s.Scheduler.EnqueueBookingEmail(kind, bookingID); err != nil {
		s.Logger.Warn("Failed to enqueue booking email",
			zap.String("kind", kind), zap.String("bookingId", bookingID), zap.Error(err))
	}
}

// isDiscountRejection separates a code the customer cannot use from a
// lookup that failed outright; only the former is the customer's problem.
func isDiscountRejection(err error) bool {
	return errors.Is(err, entitlement.ErrCodeNotFound) ||
		errors.Is(err, entitlement.ErrCodeInactive) ||
		errors.Is(err, entitlement.ErrCodeExpired) ||
		errors.Is(err, entitlement.ErrCodeExhausted) ||
		errors.Is(err, entitlement.ErrCodeMinAmount)
}

func validateCreateRequest(req *CreateBookingRequest) error {
	if req.CustomerName == "" || req.CustomerEmail == "" {
		return InvalidInput("customer name and email are required")
	}
	if req.TimeSlotID == "" {
		return InvalidInput("timeSlotId is required")
	}
	switch req.BookingType {
	case models.BookingTypeCommunal, models.BookingTypePrivate:
	default:
		return InvalidInput("bookingType must be %q or %q", models.BookingTypeCommunal, models.BookingTypePrivate)
	}
	switch req.PaymentMode {
	case models.PayModeGateway, models.PayModeToken, models.PayModeMembership, models.PayModeCredit:
	default:
		return InvalidInput("unknown payment mode %q", req.PaymentMode)
	}
	if req.GuestCount < 1 {
		req.GuestCount = 1
	}
	if req.BookingType == models.BookingTypeCommunal && req.GuestCount > models.CommunalCapacity {
		return InvalidInput("guest count %d exceeds the %d communal seats", req.GuestCount, models.CommunalCapacity)
	}
	if req.PaymentMode == models.PayModeCredit && req.UserID == "" {
		return NewError(CodeUnauthorized, "credit payment requires a signed-in customer")
	}
	return nil
}
