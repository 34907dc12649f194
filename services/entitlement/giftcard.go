package entitlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"icehaus/models"
)

// RedeemGiftCard converts an unredeemed gift card into a store credit grant
// for the redeeming user. The redemption flag flips with a conditional
// update so two concurrent redemptions cannot both succeed.
func (s *DefaultEntitlementService) RedeemGiftCard(ctx context.Context, userID, code string) (*models.StoreCredit, error) {
	card, err := s.Repo.GiftCardByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up gift card: %w", err)
	}
	if card == nil {
		return nil, ErrGiftCardNotFound
	}
	if card.Redeemed {
		return nil, ErrGiftCardRedeemed
	}
	now := s.Clock.Now()
	if card.ExpiresAt != nil && now.After(*card.ExpiresAt) {
		return nil, ErrGiftCardExpired
	}

	won, err := s.Repo.RedeemGiftCard(ctx, card.ID, userID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrGiftCardRedeemed
	}

	validityDays := card.CreditExpiry
	if validityDays <= 0 {
		validityDays = 365
	}
	expiry := now.Add(time.Duration(validityDays) * 24 * time.Hour)
	credit := &models.StoreCredit{
		UserID:    userID,
		Balance:   card.AmountPence,
		ExpiresAt: &expiry,
		Source:    "gift_card",
	}
	if err := s.Repo.CreateCredit(ctx, credit); err != nil {
		// The card is burned but the credit failed to land; surface it
		// loudly rather than losing the value silently.
		s.Logger.Error("Gift card redeemed but credit creation failed",
			zap.String("cardId", card.ID), zap.String("userId", userID), zap.Error(err))
		return nil, fmt.Errorf("gift card redeemed but credit creation failed: %w", err)
	}

	s.Logger.Info("Gift card redeemed",
		zap.String("cardId", card.ID),
		zap.String("userId", userID),
		zap.Int64("amountPence", card.AmountPence))
	return credit, nil
}
