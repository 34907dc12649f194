// File: database/repository/entitlement/indexes.go
package entitlementRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the entitlement collections.
func (r *mongoEntitlementRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type target struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}

	targets := []target{
		{r.tokens, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
			{Keys: bson.D{{Key: "customerEmail", Value: 1}, {Key: "expiresAt", Value: 1}}, Options: options.Index().SetName("email_expiry_idx")},
		}},
		{r.memberships, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}, Options: options.Index().SetName("user_status_idx")},
		}},
		{r.credits, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_id")},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "expiresAt", Value: 1}}, Options: options.Index().SetName("user_expiry_idx")},
		}},
		{r.giftCards, []mongo.IndexModel{
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_code")},
		}},
		{r.codes, []mongo.IndexModel{
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: options.Index().SetUnique(true).SetName("unique_code")},
		}},
	}

	for _, t := range targets {
		if _, err := t.coll.Indexes().CreateMany(ctx, t.models); err != nil {
			return fmt.Errorf("failed to create entitlement indexes: %w", err)
		}
	}
	return nil
}
