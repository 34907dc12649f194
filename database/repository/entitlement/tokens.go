// File: database/repository/entitlement/tokens.go
package entitlementRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icehaus/models"
)

func (r *mongoEntitlementRepo) ActiveTokenGrants(ctx context.Context, customerEmail string, now time.Time) ([]models.TokenGrant, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"customerEmail": customerEmail,
		"remaining":     bson.M{"$gt": 0},
		"$or": []bson.M{
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": bson.M{"$gte": now}},
		},
	}
	// Soonest expiry first; never-expiring grants sort last.
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})

	cursor, err := r.tokens.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token grants: %w", err)
	}
	defer cursor.Close(ctx)

	var grants []models.TokenGrant
	if err := cursor.All(ctx, &grants); err != nil {
		return nil, fmt.Errorf("error decoding token grants: %w", err)
	}
	return grants, nil
}

func (r *mongoEntitlementRepo) CreateTokenGrant(ctx context.Context, grant *models.TokenGrant) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now()
	}
	if _, err := r.tokens.InsertOne(ctx, grant); err != nil {
		return fmt.Errorf("failed to insert token grant: %w", err)
	}
	return nil
}

func (r *mongoEntitlementRepo) DebitToken(ctx context.Context, grantID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": grantID, "remaining": bson.M{"$gt": 0}}
	res, err := r.tokens.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"remaining": -1}})
	if err != nil {
		return false, fmt.Errorf("failed to debit token grant: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoEntitlementRepo) RestockToken(ctx context.Context, grantID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.tokens.UpdateOne(ctx, bson.M{"id": grantID}, bson.M{"$inc": bson.M{"remaining": 1}})
	if err != nil {
		return fmt.Errorf("failed to restock token grant: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
