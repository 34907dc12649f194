package entitlement

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	bookingRepo "icehaus/database/repository/booking"
	entitlementRepo "icehaus/database/repository/entitlement"
	"icehaus/models"
	"icehaus/utils"
)

// DefaultEntitlementService implements EntitlementService.
type DefaultEntitlementService struct {
	Repo     entitlementRepo.EntitlementRepository
	Bookings bookingRepo.BookingRepository
	Clock    utils.Clock
	Logger   *zap.Logger
}

func (s *DefaultEntitlementService) ResolveTokens(ctx context.Context, customerEmail string) ([]models.TokenGrant, error) {
	grants, err := s.Repo.ActiveTokenGrants(ctx, customerEmail, s.Clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve token grants: %w", err)
	}
	return grants, nil
}

func (s *DefaultEntitlementService) ResolveMembership(ctx context.Context, userID string) (*models.Membership, error) {
	if userID == "" {
		return nil, nil
	}
	membership, err := s.Repo.ActiveMembership(ctx, userID, s.Clock.Today())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve membership: %w", err)
	}
	return membership, nil
}

func (s *DefaultEntitlementService) ResolveCredits(ctx context.Context, userID string) ([]models.StoreCredit, error) {
	if userID == "" {
		return nil, nil
	}
	credits, err := s.Repo.ActiveCredits(ctx, userID, s.Clock.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store credits: %w", err)
	}
	return credits, nil
}

func (s *DefaultEntitlementService) ResolveDiscountCode(ctx context.Context, code string, baseAmount int64) (int64, string, error) {
	discount, err := s.Repo.DiscountByCode(ctx, code)
	if err != nil {
		return 0, "", fmt.Errorf("failed to look up discount code: %w", err)
	}
	if discount == nil {
		return 0, "", ErrCodeNotFound
	}
	if !discount.Active {
		return 0, "", ErrCodeInactive
	}
	now := s.Clock.Now()
	if discount.ValidFrom != nil && now.Before(*discount.ValidFrom) {
		return 0, "", ErrCodeExpired
	}
	if discount.ValidUntil != nil && now.After(*discount.ValidUntil) {
		return 0, "", ErrCodeExpired
	}
	if discount.UsageLimit > 0 && discount.UsageCount >= discount.UsageLimit {
		return 0, "", ErrCodeExhausted
	}
	if discount.MinAmountPence > 0 && baseAmount < discount.MinAmountPence {
		return 0, "", ErrCodeMinAmount
	}

	return DiscountAmount(*discount, baseAmount), discount.ID, nil
}

// DiscountAmount computes the pence reduction a code yields on baseAmount.
// Percentages round half away from zero; fixed amounts never exceed the base.
func DiscountAmount(code models.DiscountCode, baseAmount int64) int64 {
	switch code.Kind {
	case models.DiscountPercentage:
		return int64(math.Round(float64(baseAmount) * float64(code.Value) / 100.0))
	case models.DiscountFixed:
		if code.Value > baseAmount {
			return baseAmount
		}
		return code.Value
	default:
		return 0
	}
}

// FreeEntitlementUsedToday enforces the one-free-session-per-day rule shared
// by the token and membership paths: any paid booking on the date with a
// zero final amount blocks another free booking.
func (s *DefaultEntitlementService) FreeEntitlementUsedToday(ctx context.Context, customerEmail, date string) (*models.Booking, error) {
	existing, err := s.Bookings.FreeEntitlementOnDate(ctx, customerEmail, date)
	if err != nil {
		return nil, fmt.Errorf("failed to scan for free bookings: %w", err)
	}
	if len(existing) == 0 {
		return nil, nil
	}
	return &existing[0], nil
}

func (s *DefaultEntitlementService) CommitDiscountUsage(ctx context.Context, codeID string) error {
	ok, err := s.Repo.IncrementCodeUsage(ctx, codeID)
	if err != nil {
		return err
	}
	if !ok {
		// Usage cap was hit between validation and commit. The discount
		// already priced the booking; log rather than unwind it.
		s.Logger.Warn("Discount code reached its limit between validation and commit",
			zap.String("codeId", codeID))
	}
	return nil
}
