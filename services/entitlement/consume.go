package entitlement

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"icehaus/models"
)

// PlanCreditDeductions walks credits oldest-expiry-first and plans how to
// cover amountNeeded. It never deducts more than a grant's balance nor more
// than amountNeeded in total. The credits slice must already be sorted by
// soonest expiry (ResolveCredits returns it that way).
func PlanCreditDeductions(credits []models.StoreCredit, amountNeeded int64) (int64, []models.CreditDeduction) {
	var covered int64
	var deductions []models.CreditDeduction

	for _, credit := range credits {
		if covered >= amountNeeded {
			break
		}
		take := amountNeeded - covered
		if take > credit.Balance {
			take = credit.Balance
		}
		if take <= 0 {
			continue
		}
		deductions = append(deductions, models.CreditDeduction{CreditID: credit.ID, Amount: take})
		covered += take
	}
	return covered, deductions
}

// ApplyCreditDeductions debits each grant conditionally; a lost race on any
// grant aborts with ErrCreditRace so the orchestrator can re-resolve.
func (s *DefaultEntitlementService) ApplyCreditDeductions(ctx context.Context, deductions []models.CreditDeduction) error {
	for i, d := range deductions {
		ok, err := s.Repo.DeductCredit(ctx, d.CreditID, d.Amount)
		if err != nil {
			return fmt.Errorf("failed to apply credit deduction: %w", err)
		}
		if !ok {
			// Roll back what we already took from earlier grants.
			for j := 0; j < i; j++ {
				if rbErr := s.Repo.RefundCredit(ctx, deductions[j].CreditID, deductions[j].Amount); rbErr != nil {
					s.Logger.Error("Failed to roll back credit deduction",
						zap.String("creditId", deductions[j].CreditID), zap.Error(rbErr))
				}
			}
			return ErrCreditRace
		}
	}
	return nil
}

// ConsumeToken debits one token from the customer's earliest-expiring grant.
func (s *DefaultEntitlementService) ConsumeToken(ctx context.Context, customerEmail string) (string, error) {
	grants, err := s.ResolveTokens(ctx, customerEmail)
	if err != nil {
		return "", err
	}
	for _, grant := range grants {
		ok, err := s.Repo.DebitToken(ctx, grant.ID)
		if err != nil {
			return "", fmt.Errorf("failed to consume token: %w", err)
		}
		if ok {
			return grant.ID, nil
		}
		// Raced to zero; try the next grant.
	}
	return "", ErrNoTokens
}

// RestockToken returns one token after a cancellation. Inventory is never
// lost: if the customer has no grant left, a fresh single-token grant is
// created.
func (s *DefaultEntitlementService) RestockToken(ctx context.Context, customerEmail string) error {
	grants, err := s.Repo.ActiveTokenGrants(ctx, customerEmail, s.Clock.Now())
	if err != nil {
		return fmt.Errorf("failed to load grants for restock: %w", err)
	}
	if len(grants) > 0 {
		return s.Repo.RestockToken(ctx, grants[0].ID)
	}

	expiry := s.Clock.Now().Add(90 * 24 * time.Hour)
	grant := &models.TokenGrant{
		CustomerEmail: customerEmail,
		Remaining:     1,
		ExpiresAt:     &expiry,
	}
	if err := s.Repo.CreateTokenGrant(ctx, grant); err != nil {
		return fmt.Errorf("failed to create restock grant: %w", err)
	}
	s.Logger.Info("Created replacement token grant on cancellation",
		zap.String("customerEmail", customerEmail))
	return nil
}

// ConsumeMembershipSession debits one weekly session. Unlimited memberships
// are untouched.
func (s *DefaultEntitlementService) ConsumeMembershipSession(ctx context.Context, membership *models.Membership) error {
	if membership.Unlimited {
		return nil
	}
	ok, err := s.Repo.DebitMembershipSession(ctx, membership.ID)
	if err != nil {
		return fmt.Errorf("failed to consume membership session: %w", err)
	}
	if !ok {
		return ErrNoSessions
	}
	return nil
}

// RestockMembershipSession returns one weekly session after a cancellation.
func (s *DefaultEntitlementService) RestockMembershipSession(ctx context.Context, membershipID string) error {
	if err := s.Repo.RestockMembershipSession(ctx, membershipID); err != nil {
		return fmt.Errorf("failed to restock membership session: %w", err)
	}
	return nil
}

// RefundCreditDeduction returns a previously applied deduction to its grant.
func (s *DefaultEntitlementService) RefundCreditDeduction(ctx context.Context, deduction models.CreditDeduction) error {
	if err := s.Repo.RefundCredit(ctx, deduction.CreditID, deduction.Amount); err != nil {
		return fmt.Errorf("failed to refund credit deduction: %w", err)
	}
	return nil
}
