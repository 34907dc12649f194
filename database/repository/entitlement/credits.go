// File: database/repository/entitlement/credits.go
package entitlementRepo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icehaus/models"
)

func (r *mongoEntitlementRepo) ActiveCredits(ctx context.Context, userID string, now time.Time) ([]models.StoreCredit, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"userId":  userID,
		"balance": bson.M{"$gt": 0},
		"$or": []bson.M{
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$exists": false}},
			{"expiresAt": bson.M{"$gte": now}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})

	cursor, err := r.credits.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch store credits: %w", err)
	}
	defer cursor.Close(ctx)

	var credits []models.StoreCredit
	if err := cursor.All(ctx, &credits); err != nil {
		return nil, fmt.Errorf("error decoding store credits: %w", err)
	}
	return credits, nil
}

func (r *mongoEntitlementRepo) CreateCredit(ctx context.Context, credit *models.StoreCredit) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if credit.ID == "" {
		credit.ID = uuid.New().String()
	}
	if credit.CreatedAt.IsZero() {
		credit.CreatedAt = time.Now()
	}
	if _, err := r.credits.InsertOne(ctx, credit); err != nil {
		return fmt.Errorf("failed to insert store credit: %w", err)
	}
	return nil
}

func (r *mongoEntitlementRepo) DeductCredit(ctx context.Context, creditID string, amount int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": creditID, "balance": bson.M{"$gte": amount}}
	res, err := r.credits.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"balance": -amount}})
	if err != nil {
		return false, fmt.Errorf("failed to deduct store credit: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *mongoEntitlementRepo) RefundCredit(ctx context.Context, creditID string, amount int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.credits.UpdateOne(ctx, bson.M{"id": creditID}, bson.M{"$inc": bson.M{"balance": amount}})
	if err != nil {
		return fmt.Errorf("failed to refund store credit: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("store credit %s not found during refund", creditID)
	}
	return nil
}
