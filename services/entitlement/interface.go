package entitlement

import (
	"context"

	"icehaus/models"
)

// EntitlementService resolves how a customer can pay without the gateway:
// session tokens, membership allowance, store credit and discount codes.
type EntitlementService interface {
	ResolveTokens(ctx context.Context, customerEmail string) ([]models.TokenGrant, error)
	ResolveMembership(ctx context.Context, userID string) (*models.Membership, error)
	ResolveCredits(ctx context.Context, userID string) ([]models.StoreCredit, error)
	// ResolveDiscountCode validates the code against its active flag, date
	// window, usage cap and minimum amount, and returns the discount in
	// pence along with the code's id.
	ResolveDiscountCode(ctx context.Context, code string, baseAmount int64) (int64, string, error)
	// FreeEntitlementUsedToday returns the booking that already consumed
	// the customer's one free session for the date, or nil.
	FreeEntitlementUsedToday(ctx context.Context, customerEmail, date string) (*models.Booking, error)
	// ConsumeToken debits one token from the earliest-expiring grant.
	ConsumeToken(ctx context.Context, customerEmail string) (string, error)
	// RestockToken returns one token to the customer's earliest-expiring
	// grant, creating a fresh single-token grant if none exists.
	RestockToken(ctx context.Context, customerEmail string) error
	// ConsumeMembershipSession debits one weekly session (no-op for
	// unlimited memberships).
	ConsumeMembershipSession(ctx context.Context, membership *models.Membership) error
	// RestockMembershipSession returns one weekly session after a
	// cancellation.
	RestockMembershipSession(ctx context.Context, membershipID string) error
	// ApplyCreditDeductions debits the planned amounts from each grant.
	ApplyCreditDeductions(ctx context.Context, deductions []models.CreditDeduction) error
	// RefundCreditDeduction returns one previously applied deduction.
	RefundCreditDeduction(ctx context.Context, deduction models.CreditDeduction) error
	// CommitDiscountUsage bumps the code's usage counter.
	CommitDiscountUsage(ctx context.Context, codeID string) error
	// RedeemGiftCard converts an unredeemed gift card into store credit.
	RedeemGiftCard(ctx context.Context, userID, code string) (*models.StoreCredit, error)
}
