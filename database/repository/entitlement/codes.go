// File: database/repository/entitlement/codes.go
package entitlementRepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"icehaus/models"
)

func (r *mongoEntitlementRepo) DiscountByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var discount models.DiscountCode
	err := r.codes.FindOne(ctx, bson.M{"code": strings.ToUpper(strings.TrimSpace(code))}).Decode(&discount)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch discount code: %w", err)
	}
	return &discount, nil
}

func (r *mongoEntitlementRepo) IncrementCodeUsage(ctx context.Context, codeID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id": codeID,
		"$or": []bson.M{
			{"usageLimit": 0},
			{"usageLimit": bson.M{"$exists": false}},
			{"$expr": bson.M{"$lt": []string{"$usageCount", "$usageLimit"}}},
		},
	}
	res, err := r.codes.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"usageCount": 1}})
	if err != nil {
		return false, fmt.Errorf("failed to increment code usage: %w", err)
	}
	return res.MatchedCount > 0, nil
}
