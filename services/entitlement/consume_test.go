package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	entitlementRepo "icehaus/database/repository/entitlement"
	"icehaus/models"
	"icehaus/utils"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeEntitlementRepo embeds the interface so each test only scripts the
// calls its path actually takes; anything else panics loudly.
type fakeEntitlementRepo struct {
	entitlementRepo.EntitlementRepository

	grants       []models.TokenGrant
	debits       map[string]bool // grant/credit/membership id -> conditional outcome
	restocked    []string
	credits      []models.StoreCredit
	refunded     []models.CreditDeduction
	createdGrant *models.TokenGrant

	card        *models.GiftCard
	redeemWon   bool
	newCredit   *models.StoreCredit
	discount    *models.DiscountCode
	incremented []string
}

func (r *fakeEntitlementRepo) ActiveTokenGrants(context.Context, string, time.Time) ([]models.TokenGrant, error) {
	return r.grants, nil
}

func (r *fakeEntitlementRepo) CreateTokenGrant(_ context.Context, grant *models.TokenGrant) error {
	r.createdGrant = grant
	return nil
}

func (r *fakeEntitlementRepo) DebitToken(_ context.Context, grantID string) (bool, error) {
	return r.debits[grantID], nil
}

func (r *fakeEntitlementRepo) RestockToken(_ context.Context, grantID string) error {
	r.restocked = append(r.restocked, grantID)
	return nil
}

func (r *fakeEntitlementRepo) DebitMembershipSession(_ context.Context, membershipID string) (bool, error) {
	return r.debits[membershipID], nil
}

func (r *fakeEntitlementRepo) RestockMembershipSession(_ context.Context, membershipID string) error {
	r.restocked = append(r.restocked, membershipID)
	return nil
}

func (r *fakeEntitlementRepo) ActiveCredits(context.Context, string, time.Time) ([]models.StoreCredit, error) {
	return r.credits, nil
}

func (r *fakeEntitlementRepo) DeductCredit(_ context.Context, creditID string, _ int64) (bool, error) {
	return r.debits[creditID], nil
}

func (r *fakeEntitlementRepo) RefundCredit(_ context.Context, creditID string, amount int64) error {
	r.refunded = append(r.refunded, models.CreditDeduction{CreditID: creditID, Amount: amount})
	return nil
}

func (r *fakeEntitlementRepo) CreateCredit(_ context.Context, credit *models.StoreCredit) error {
	credit.ID = "cr-new"
	r.newCredit = credit
	return nil
}

func (r *fakeEntitlementRepo) GiftCardByCode(context.Context, string) (*models.GiftCard, error) {
	return r.card, nil
}

func (r *fakeEntitlementRepo) RedeemGiftCard(context.Context, string, string, time.Time) (bool, error) {
	return r.redeemWon, nil
}

func (r *fakeEntitlementRepo) DiscountByCode(context.Context, string) (*models.DiscountCode, error) {
	return r.discount, nil
}

func (r *fakeEntitlementRepo) IncrementCodeUsage(_ context.Context, codeID string) (bool, error) {
	r.incremented = append(r.incremented, codeID)
	return true, nil
}

func newTestService(repo *fakeEntitlementRepo) *DefaultEntitlementService {
	return &DefaultEntitlementService{
		Repo:   repo,
		Clock:  utils.FixedClock{T: testNow},
		Logger: zap.NewNop(),
	}
}

func TestPlanCreditDeductions(t *testing.T) {
	credits := []models.StoreCredit{
		{ID: "cr-1", Balance: 500},
		{ID: "cr-2", Balance: 2000},
		{ID: "cr-3", Balance: 1000},
	}

	t.Run("spans grants oldest first", func(t *testing.T) {
		covered, plan := PlanCreditDeductions(credits, 1800)
		assert.Equal(t, int64(1800), covered)
		require.Len(t, plan, 2)
		assert.Equal(t, models.CreditDeduction{CreditID: "cr-1", Amount: 500}, plan[0])
		assert.Equal(t, models.CreditDeduction{CreditID: "cr-2", Amount: 1300}, plan[1])
	})

	t.Run("partial coverage takes everything", func(t *testing.T) {
		covered, plan := PlanCreditDeductions(credits, 9000)
		assert.Equal(t, int64(3500), covered)
		assert.Len(t, plan, 3)
	})

	t.Run("no credits", func(t *testing.T) {
		covered, plan := PlanCreditDeductions(nil, 1800)
		assert.Zero(t, covered)
		assert.Empty(t, plan)
	})

	t.Run("zero amount needed", func(t *testing.T) {
		covered, plan := PlanCreditDeductions(credits, 0)
		assert.Zero(t, covered)
		assert.Empty(t, plan)
	})
}

func TestApplyCreditDeductionsRollsBackOnRace(t *testing.T) {
	repo := &fakeEntitlementRepo{debits: map[string]bool{"cr-1": true, "cr-2": false}}
	svc := newTestService(repo)

	err := svc.ApplyCreditDeductions(context.Background(), []models.CreditDeduction{
		{CreditID: "cr-1", Amount: 500},
		{CreditID: "cr-2", Amount: 300},
	})
	require.ErrorIs(t, err, ErrCreditRace)

	// The first grant's deduction was returned.
	require.Len(t, repo.refunded, 1)
	assert.Equal(t, models.CreditDeduction{CreditID: "cr-1", Amount: 500}, repo.refunded[0])
}

func TestConsumeTokenSkipsRacedGrant(t *testing.T) {
	repo := &fakeEntitlementRepo{
		grants: []models.TokenGrant{{ID: "g-1", Remaining: 1}, {ID: "g-2", Remaining: 2}},
		debits: map[string]bool{"g-1": false, "g-2": true},
	}
	svc := newTestService(repo)

	grantID, err := svc.ConsumeToken(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "g-2", grantID)
}

func TestConsumeTokenExhausted(t *testing.T) {
	repo := &fakeEntitlementRepo{
		grants: []models.TokenGrant{{ID: "g-1", Remaining: 1}},
		debits: map[string]bool{"g-1": false},
	}
	svc := newTestService(repo)

	_, err := svc.ConsumeToken(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, ErrNoTokens)
}

func TestRestockTokenPrefersExistingGrant(t *testing.T) {
	repo := &fakeEntitlementRepo{grants: []models.TokenGrant{{ID: "g-1", Remaining: 0}}}
	svc := newTestService(repo)

	require.NoError(t, svc.RestockToken(context.Background(), "ada@example.com"))
	assert.Equal(t, []string{"g-1"}, repo.restocked)
	assert.Nil(t, repo.createdGrant)
}

func TestRestockTokenCreatesGrantWhenNoneLeft(t *testing.T) {
	repo := &fakeEntitlementRepo{}
	svc := newTestService(repo)

	require.NoError(t, svc.RestockToken(context.Background(), "ada@example.com"))
	require.NotNil(t, repo.createdGrant)
	assert.Equal(t, 1, repo.createdGrant.Remaining)
	assert.Equal(t, "ada@example.com", repo.createdGrant.CustomerEmail)
}

func TestConsumeMembershipSession(t *testing.T) {
	repo := &fakeEntitlementRepo{debits: map[string]bool{"mem-1": true}}
	svc := newTestService(repo)

	t.Run("debits limited membership", func(t *testing.T) {
		err := svc.ConsumeMembershipSession(context.Background(), &models.Membership{ID: "mem-1"})
		assert.NoError(t, err)
	})

	t.Run("unlimited never debited", func(t *testing.T) {
		err := svc.ConsumeMembershipSession(context.Background(), &models.Membership{ID: "mem-x", Unlimited: true})
		assert.NoError(t, err)
	})

	t.Run("raced to zero", func(t *testing.T) {
		err := svc.ConsumeMembershipSession(context.Background(), &models.Membership{ID: "mem-2"})
		assert.ErrorIs(t, err, ErrNoSessions)
	})
}
