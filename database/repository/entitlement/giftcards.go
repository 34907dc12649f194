// File: database/repository/entitlement/giftcards.go
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

func (r *mongoEntitlementRepo) GiftCardByCode(ctx context.Context, code string) (*models.GiftCard, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var card models.GiftCard
	err := r.giftCards.FindOne(ctx, bson.M{"code": strings.ToUpper(strings.TrimSpace(code))}).Decode(&card)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch gift card: %w", err)
	}
	return &card, nil
}

func (r *mongoEntitlementRepo) RedeemGiftCard(ctx context.Context, cardID, userID string, at time.Time) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Conditional update so two concurrent redemptions cannot both win.
	filter := bson.M{"id": cardID, "redeemed": false}
	update := bson.M{"$set": bson.M{
		"redeemed":   true,
		"redeemedBy": userID,
		"redeemedAt": at,
	}}
	res, err := r.giftCards.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to redeem gift card: %w", err)
	}
	return res.MatchedCount > 0, nil
}
