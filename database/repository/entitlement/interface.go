// File: database/repository/entitlement/interface.go
package entitlementRepo

import (
	"context"
	"time"

	"icehaus/database"
	"icehaus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// EntitlementRepository persists every non-gateway way a customer can pay:
// token grants, memberships, store credit, gift cards and discount codes.
// Expiry filters take the caller's notion of "now" so the resolver can run
// on an injected clock.
type EntitlementRepository interface {
	// Token grants.
	ActiveTokenGrants(ctx context.Context, customerEmail string, now time.Time) ([]models.TokenGrant, error)
	CreateTokenGrant(ctx context.Context, grant *models.TokenGrant) error
	// DebitToken takes one token from the grant only if it still has any
	// remaining; reports whether the debit happened.
	DebitToken(ctx context.Context, grantID string) (bool, error)
	RestockToken(ctx context.Context, grantID string) error

	// Memberships.
	ActiveMembership(ctx context.Context, userID string, today string) (*models.Membership, error)
	// DebitMembershipSession decrements sessionsRemaining only while it is
	// positive; unlimited memberships are never debited.
	DebitMembershipSession(ctx context.Context, membershipID string) (bool, error)
	RestockMembershipSession(ctx context.Context, membershipID string) error

	// Store credit.
	ActiveCredits(ctx context.Context, userID string, now time.Time) ([]models.StoreCredit, error)
	CreateCredit(ctx context.Context, credit *models.StoreCredit) error
	// DeductCredit subtracts amount from the grant only if the balance
	// still covers it; reports whether the deduction happened.
	DeductCredit(ctx context.Context, creditID string, amount int64) (bool, error)
	// RefundCredit adds amount back to a grant (compensation path).
	RefundCredit(ctx context.Context, creditID string, amount int64) error

	// Gift cards.
	GiftCardByCode(ctx context.Context, code string) (*models.GiftCard, error)
	// RedeemGiftCard marks the card redeemed only if it is not already;
	// reports whether this call won the redemption.
	RedeemGiftCard(ctx context.Context, cardID, userID string, at time.Time) (bool, error)

	// Discount codes.
	DiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error)
	// IncrementCodeUsage bumps usageCount subject to the usage limit;
	// reports whether the increment happened.
	IncrementCodeUsage(ctx context.Context, codeID string) (bool, error)

	EnsureIndexes() error
}

type mongoEntitlementRepo struct {
	tokens      *mongo.Collection
	memberships *mongo.Collection
	credits     *mongo.Collection
	giftCards   *mongo.Collection
	codes       *mongo.Collection
}

// NewMongoEntitlementRepo constructs a new MongoDB EntitlementRepository.
func NewMongoEntitlementRepo() EntitlementRepository {
	db := database.MongoClient.Database("icehaus")
	return &mongoEntitlementRepo{
		tokens:      db.Collection("customer_tokens"),
		memberships: db.Collection("memberships"),
		credits:     db.Collection("customer_credits"),
		giftCards:   db.Collection("gift_cards"),
		codes:       db.Collection("discount_codes"),
	}
}
