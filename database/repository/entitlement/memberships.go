// File: database/repository/entitlement/memberships.go
package entitlementRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"icehaus/models"
)

func (r *mongoEntitlementRepo) ActiveMembership(ctx context.Context, userID string, today string) (*models.Membership, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId":  userID,
		"status":  "active",
		"endDate": bson.M{"$gte": today},
	}
	var membership models.Membership
	err := r.memberships.FindOne(ctx, filter).Decode(&membership)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch membership: %w", err)
	}
	return &membership, nil
}

func (r *mongoEntitlementRepo) DebitMembershipSession(ctx context.Context, membershipID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":                membershipID,
		"unlimited":         false,
		"sessionsRemaining": bson.M{"$gt": 0},
	}
	res, err := r.memberships.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"sessionsRemaining": -1}})
	if err != nil {
		return false, fmt.Errorf("failed to debit membership session: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoEntitlementRepo) RestockMembershipSession(ctx context.Context, membershipID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Unlimited memberships have nothing to restock; the filter simply
	// matches nothing.
	filter := bson.M{"id": membershipID, "unlimited": false}
	_, err := r.memberships.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"sessionsRemaining": 1}})
	if err != nil {
		return fmt.Errorf("failed to restock membership session: %w", err)
	}
	return nil
}
